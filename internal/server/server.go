// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/ThinkInAIXYZ/go-mcp/transport"

	"mcp-nutrition-log/internal/provider/usda"
	"mcp-nutrition-log/internal/storage"
)

type Config struct {
	Host        string
	Port        int
	DBPath      string
	USDAAPIKey  string
	USDABaseURL string
}

type NutritionLogServer struct {
	server     *server.Server
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	foodSearch *usda.Client
	config     *Config
}

func NewNutritionLogServer(cfg *Config) (*NutritionLogServer, error) {
	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	nutritionServer := &NutritionLogServer{
		storage: stor,
		foodSearch: &usda.Client{
			APIKey:  cfg.USDAAPIKey,
			BaseURL: cfg.USDABaseURL,
		},
		config: cfg,
	}

	// Create HTTP server with MCP handler
	mux := http.NewServeMux()

	// Create MCP server (transport is never run, we'll handle HTTP
	// manually; NewServer requires a non-nil transport)
	mcpServer, err := server.NewServer(
		transport.NewMockServerTransport(io.NopCloser(bytes.NewReader(nil)), io.Discard),
		server.WithServerInfo(protocol.Implementation{
			Name:    "nutrition-log",
			Version: "1.0.0",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	nutritionServer.server = mcpServer

	if err := nutritionServer.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	mux.HandleFunc("/", nutritionServer.handleHTTP)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	nutritionServer.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return nutritionServer, nil
}

func (s *NutritionLogServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var result *protocol.CallToolResult
	var err error

	switch request.Name {
	case "log_food":
		result, err = s.handleLogFood(&request)
	case "search_foods":
		result, err = s.handleSearchFoods(&request)
	case "get_daily_summary":
		result, err = s.handleGetDailySummary(&request)
	case "get_nutrition_stats":
		result, err = s.handleGetNutritionStats(&request)
	case "set_goals":
		result, err = s.handleSetGoals(&request)
	case "get_goals":
		result, err = s.handleGetGoals(&request)
	case "delete_entry":
		result, err = s.handleDeleteEntry(&request)
	case "list_entries":
		result, err = s.handleListEntries(&request)
	default:
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	if err != nil {
		slog.Warn("tool call failed", "tool", request.Name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *NutritionLogServer) Start(ctx context.Context) error {
	slog.Info("starting nutrition log server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *NutritionLogServer) Stop() error {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func (s *NutritionLogServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
