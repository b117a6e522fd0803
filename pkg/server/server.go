package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
)

// requestTimeout bounds one full two-round exchange including tool calls.
const requestTimeout = 120 * time.Second

// Expert is the orchestration layer the server fronts.
type Expert interface {
	Invoke(ctx context.Context, req model.ExpertRequest) (*model.ExpertResponse, error)
}

// expertRequestBody is the wire shape of POST /cinema-expert. IDs are
// optional; missing ones are generated.
type expertRequestBody struct {
	UserInput      string `json:"user_input"`
	RequestID      string `json:"request_id"`
	ConversationID string `json:"conversation_id"`
}

type errorBody struct {
	Error string `json:"error"`
}

// New builds the HTTP handler for the service boundary.
func New(expert Expert) http.Handler {
	s := &server{expert: expert}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Post("/cinema-expert", s.handleExpert)
	r.Get("/health", s.handleHealth)

	return r
}

type server struct {
	expert Expert
}

func (s *server) handleExpert(w http.ResponseWriter, r *http.Request) {
	var body expertRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON format"})
		return
	}

	req, err := buildRequest(body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}

	resp, err := s.expert.Invoke(r.Context(), req)
	if err != nil {
		logging.From(r.Context()).Error("expert invocation failed",
			"request_id", req.RequestID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func buildRequest(body expertRequestBody) (model.ExpertRequest, error) {
	if body.UserInput == "" {
		return model.ExpertRequest{}, errMissingInput
	}

	req := model.NewExpertRequest(body.UserInput)
	if body.RequestID != "" {
		id, err := uuid.Parse(body.RequestID)
		if err != nil {
			return model.ExpertRequest{}, errBadRequestID
		}
		req.RequestID = id
	}
	if body.ConversationID != "" {
		id, err := uuid.Parse(body.ConversationID)
		if err != nil {
			return model.ExpertRequest{}, errBadConversationID
		}
		req.ConversationID = id
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
