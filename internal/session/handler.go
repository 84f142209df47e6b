package session

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/speech-steps/backend/internal/auth"
	"github.com/speech-steps/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 << 20
)

type Handler struct {
	manager  *Manager
	upgrader websocket.Upgrader
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origins are enforced by the CORS layer and the token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Pipeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Pipeline())
}

// Connect upgrades to the presentation channel and runs one session on it.
// The topic comes from the query string, the owner from the token.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	query := r.URL.Query()
	topic := &models.SessionTopic{
		Dimension:   query.Get("dimension"),
		Category:    query.Get("category"),
		Subcategory: query.Get("subcategory"),
		OwnerID:     userID,
	}
	if !topic.Resolved() {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: models.ErrMissingTopic.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[session] websocket upgrade: %v", err)
		return
	}
	sock := newSocket(conn)
	defer sock.close()

	o, err := h.manager.Open(topic, sock)
	if err != nil {
		sock.Present(models.Instruction{Kind: models.InstrNavigateBack, Text: err.Error()})
		return
	}

	started := time.Now()
	go func() {
		<-o.Done()
		sock.close()
	}()

	sock.readInputs(o)
	select {
	case <-o.Done():
	default:
		log.Printf("[session] %s: client left after %v", o.ID(), time.Since(started).Round(time.Second))
		o.Close()
	}
}

// socket is the presentation channel of one session. Present is safe for
// concurrent use.
type socket struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newSocket(conn *websocket.Conn) *socket {
	conn.SetReadLimit(maxMessageSize)
	return &socket{conn: conn}
}

func (s *socket) Present(instr models.Instruction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(instr); err != nil {
		log.Printf("[session] write %s: %v", instr.Kind, err)
		s.closed = true
		s.conn.Close()
	}
}

func (s *socket) readInputs(o *Orchestrator) {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				log.Printf("[session] %s: read: %v", o.ID(), err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var ev models.InputEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			log.Printf("[session] %s: malformed input: %v", o.ID(), err)
			continue
		}
		o.Submit(ev)
	}
}

func (s *socket) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	s.conn.Close()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
