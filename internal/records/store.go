package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/speech-steps/backend/internal/models"
)

type Store struct {
	db     *sql.DB
	driver string
}

func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Validate checks a create request before it is stored.
func Validate(req models.CreateTrainingRequest) error {
	switch {
	case req.ParentID <= 0:
		return errors.New("parent_id is required")
	case strings.TrimSpace(req.Title) == "":
		return errors.New("title is required")
	case strings.TrimSpace(req.Description) == "":
		return errors.New("description is required")
	case req.Duration != nil && *req.Duration < 0:
		return errors.New("duration must not be negative")
	}
	return nil
}

// CreateTraining stores one finished session.
func (s *Store) CreateTraining(ctx context.Context, req models.CreateTrainingRequest) (*models.CreateTrainingResponse, error) {
	if err := Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.bind(
		`INSERT INTO training_sessions (parent_id, title, description, duration, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`),
		req.ParentID, req.Title, req.Description, req.Duration, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("%w: insert training session: %v", models.ErrPersistence, err)
	}

	return &models.CreateTrainingResponse{Status: "success", ID: id}, nil
}

func (s *Store) GetTraining(ctx context.Context, id int64) (*models.TrainingSession, error) {
	var (
		ts       models.TrainingSession
		duration sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, s.bind(
		`SELECT id, parent_id, title, description, duration, created_at
		 FROM training_sessions WHERE id = ?`), id,
	).Scan(&ts.ID, &ts.ParentID, &ts.Title, &ts.Description, &duration, &ts.CreatedAt)
	if err != nil {
		return nil, err
	}
	ts.Duration = intPtr(duration)
	return &ts, nil
}

// ListTrainings returns a parent's sessions, newest first.
func (s *Store) ListTrainings(ctx context.Context, parentID int64, limit int) ([]models.TrainingSession, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(
		`SELECT id, parent_id, title, description, duration, created_at
		 FROM training_sessions WHERE parent_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`), parentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list training sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.TrainingSession{}
	for rows.Next() {
		var (
			ts       models.TrainingSession
			duration sql.NullInt64
		)
		if err := rows.Scan(&ts.ID, &ts.ParentID, &ts.Title, &ts.Description, &duration, &ts.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan training session: %w", err)
		}
		ts.Duration = intPtr(duration)
		sessions = append(sessions, ts)
	}
	return sessions, rows.Err()
}

// bind rewrites ? placeholders to $n for postgres.
func (s *Store) bind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
