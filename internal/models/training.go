package models

import "time"

// CreateTrainingRequest is the body of the single persistence call issued at
// session end.
type CreateTrainingRequest struct {
	ParentID    int64  `json:"parent_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    *int   `json:"duration"`
}

type CreateTrainingResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
}

type TrainingSession struct {
	ID          int64     `json:"id"`
	ParentID    int64     `json:"parent_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    *int      `json:"duration,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
