package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"waitlist-api/pkg/models"
)

// SQLiteStore keeps the submission list in a SQLite table. The table is
// rewritten in one transaction on every Save, matching the file store
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema exists
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Save deletes and reinserts every row; keep it to a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	log.Printf("SQLite submission store initialized at %s", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			position   INTEGER PRIMARY KEY,
			id         INTEGER NOT NULL,
			email      TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			company    TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT '',
			team_size  TEXT NOT NULL DEFAULT '',
			challenges TEXT,
			timestamp  TEXT NOT NULL
		)`)
	return err
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, first_name, last_name, company, role, team_size, challenges, timestamp
		FROM submissions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("error querying submissions: %w", err)
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		var (
			sub        models.Submission
			challenges sql.NullString
			timestamp  string
		)
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Name, &sub.FirstName, &sub.LastName,
			&sub.Company, &sub.Role, &sub.TeamSize, &challenges, &timestamp); err != nil {
			return nil, fmt.Errorf("error scanning submission: %w", err)
		}
		if challenges.Valid && challenges.String != "" {
			if err := json.Unmarshal([]byte(challenges.String), &sub.Challenges); err != nil {
				return nil, fmt.Errorf("error decoding challenges for submission %d: %w", sub.ID, err)
			}
		}
		if sub.Timestamp, err = models.ParseTimestamp(timestamp); err != nil {
			return nil, fmt.Errorf("error parsing timestamp for submission %d: %w", sub.ID, err)
		}
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return submissions, nil
}

func (s *SQLiteStore) Save(ctx context.Context, submissions []models.Submission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM submissions"); err != nil {
		return fmt.Errorf("error clearing submissions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO submissions
			(position, id, email, name, first_name, last_name, company, role, team_size, challenges, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, sub := range submissions {
		var challenges sql.NullString
		if sub.Challenges != nil {
			data, err := json.Marshal(sub.Challenges)
			if err != nil {
				return fmt.Errorf("error encoding challenges for submission %d: %w", sub.ID, err)
			}
			challenges = sql.NullString{String: string(data), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, i, sub.ID, sub.Email, sub.Name, sub.FirstName, sub.LastName,
			sub.Company, sub.Role, sub.TeamSize, challenges, sub.Timestamp.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("error inserting submission %d: %w", sub.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing submissions: %w", err)
	}
	return nil
}
