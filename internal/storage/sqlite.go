// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"mcp-nutrition-log/internal/models"
)

var ErrEntryNotFound = errors.New("entry not found")

type SQLiteStorage struct {
	db *sqlx.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS entries (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        entry_date TEXT NOT NULL,
        meal TEXT NOT NULL DEFAULT '',
        calories REAL NOT NULL DEFAULT 0,
        protein_g REAL NOT NULL DEFAULT 0,
        carbs_g REAL NOT NULL DEFAULT 0,
        fat_g REAL NOT NULL DEFAULT 0,
        fiber_g REAL NOT NULL DEFAULT 0,
        notes TEXT NOT NULL DEFAULT '',
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS goals (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        daily_calories REAL,
        protein_g REAL,
        carbs_g REAL,
        fat_g REAL,
        updated_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(entry_date);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// entryRow mirrors models.LogEntry with created_at kept as RFC3339
// text, which sorts chronologically.
type entryRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Date string `db:"entry_date"`
	Meal string `db:"meal"`
	models.NutritionValues
	Notes     string `db:"notes"`
	CreatedAt string `db:"created_at"`
}

func (r entryRow) toEntry() (models.LogEntry, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to parse created_at for entry %s: %w", r.ID, err)
	}
	return models.LogEntry{
		ID:              r.ID,
		Name:            r.Name,
		Date:            r.Date,
		Meal:            r.Meal,
		NutritionValues: r.NutritionValues,
		Notes:           r.Notes,
		CreatedAt:       createdAt,
	}, nil
}

func (s *SQLiteStorage) SaveEntry(entry *models.LogEntry) error {
	row := entryRow{
		ID:              entry.ID,
		Name:            entry.Name,
		Date:            entry.Date,
		Meal:            entry.Meal,
		NutritionValues: entry.NutritionValues,
		Notes:           entry.Notes,
		CreatedAt:       entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	_, err := s.db.NamedExec(`
        INSERT INTO entries (id, name, entry_date, meal, calories, protein_g, carbs_g, fat_g, fiber_g, notes, created_at)
        VALUES (:id, :name, :entry_date, :meal, :calories, :protein_g, :carbs_g, :fat_g, :fiber_g, :notes, :created_at)
    `, row)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) EntriesForDate(date string) ([]models.LogEntry, error) {
	var rows []entryRow
	err := s.db.Select(&rows, `
        SELECT id, name, entry_date, meal, calories, protein_g, carbs_g, fat_g, fiber_g, notes, created_at
        FROM entries
        WHERE entry_date = ?
        ORDER BY created_at, rowid
    `, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for %s: %w", date, err)
	}
	return rowsToEntries(rows)
}

func (s *SQLiteStorage) EntriesForRange(startDate, endDate string) ([]models.LogEntry, error) {
	var rows []entryRow
	err := s.db.Select(&rows, `
        SELECT id, name, entry_date, meal, calories, protein_g, carbs_g, fat_g, fiber_g, notes, created_at
        FROM entries
        WHERE entry_date >= ? AND entry_date <= ?
        ORDER BY entry_date, created_at, rowid
    `, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for %s..%s: %w", startDate, endDate, err)
	}
	return rowsToEntries(rows)
}

func rowsToEntries(rows []entryRow) ([]models.LogEntry, error) {
	entries := make([]models.LogEntry, 0, len(rows))
	for _, r := range rows {
		entry, err := r.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *SQLiteStorage) DeleteEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for entry %s: %w", id, err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

type goalsRow struct {
	DailyCalories *float64 `db:"daily_calories"`
	ProteinG      *float64 `db:"protein_g"`
	CarbsG        *float64 `db:"carbs_g"`
	FatG          *float64 `db:"fat_g"`
	UpdatedAt     string   `db:"updated_at"`
}

// Goals returns the current goals record, or nil when none was ever set.
func (s *SQLiteStorage) Goals() (*models.Goals, error) {
	var row goalsRow
	err := s.db.Get(&row, `
        SELECT daily_calories, protein_g, carbs_g, fat_g, updated_at
        FROM goals WHERE id = 1
    `)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse goals updated_at: %w", err)
	}
	return &models.Goals{
		DailyCalories: row.DailyCalories,
		ProteinG:      row.ProteinG,
		CarbsG:        row.CarbsG,
		FatG:          row.FatG,
		UpdatedAt:     updatedAt,
	}, nil
}

// UpdateGoals upserts the singleton goals record. Only fields present
// in the patch overwrite stored values; the rest keep their prior
// value or stay unset.
func (s *SQLiteStorage) UpdateGoals(patch models.GoalsPatch) (*models.Goals, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
        INSERT INTO goals (id, daily_calories, protein_g, carbs_g, fat_g, updated_at)
        VALUES (1, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            daily_calories = COALESCE(excluded.daily_calories, goals.daily_calories),
            protein_g = COALESCE(excluded.protein_g, goals.protein_g),
            carbs_g = COALESCE(excluded.carbs_g, goals.carbs_g),
            fat_g = COALESCE(excluded.fat_g, goals.fat_g),
            updated_at = excluded.updated_at
    `, patch.DailyCalories, patch.ProteinG, patch.CarbsG, patch.FatG, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert goals: %w", err)
	}
	return s.Goals()
}
