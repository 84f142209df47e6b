package records

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/speech-steps/backend/internal/auth"
	"github.com/speech-steps/backend/internal/models"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// CreateTraining stores a record for the caller. A missing parent_id is
// taken from the token; a different one is refused.
func (h *Handler) CreateTraining(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.CreateTrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.ParentID == 0 {
		req.ParentID = userID
	}
	if req.ParentID != userID {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Cannot record sessions for another parent"})
		return
	}
	if err := Validate(req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.store.CreateTraining(r.Context(), req)
	if err != nil {
		log.Printf("[records] create training for parent %d: %v", req.ParentID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to store training session"})
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetTraining returns one of the caller's records. Records of other parents
// are reported as missing.
func (h *Handler) GetTraining(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid training id"})
		return
	}

	ts, err := h.store.GetTraining(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && ts.ParentID != userID) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Training session not found"})
		return
	}
	if err != nil {
		log.Printf("[records] get training %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load training session"})
		return
	}

	writeJSON(w, http.StatusOK, ts)
}

func (h *Handler) ListTrainings(w http.ResponseWriter, r *http.Request) {
	parentID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	sessions, err := h.store.ListTrainings(r.Context(), parentID, limit)
	if err != nil {
		log.Printf("[records] list trainings for parent %d: %v", parentID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list training sessions"})
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
