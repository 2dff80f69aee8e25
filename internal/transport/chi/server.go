// Package chi exposes the HTTP trigger surface: the item-created event hook,
// manual recheck and item reads.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/domain"
	healthuc "github.com/refind-app/refind/internal/usecase/health"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest         = "bad_request"
	codeNotFound           = "not_found"
	codePreconditionFailed = "precondition_failed"
	codeUpstreamError      = "upstream_error"
	codeInternalError      = "internal_error"
	codeUnauthorized       = "unauthorized"
)

// Ingestor processes item-created events.
type Ingestor interface {
	ProcessCreated(ctx context.Context, kind domain.Kind, id string) (int, error)
}

// Rechecker re-runs matching for one item.
type Rechecker interface {
	Run(ctx context.Context, kind domain.Kind, id string) (int, error)
}

// ItemReader loads items with their match lists.
type ItemReader interface {
	Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	ingest        Ingestor
	recheck       Rechecker
	items         ItemReader
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingestor,
	recheck Rechecker,
	items ItemReader,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:  ingest,
		recheck: recheck,
		items:   items,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrPreconditionFailed, http.StatusPreconditionFailed, codePreconditionFailed),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, codeUpstreamError),
	}
	return s
}

// Routes mounts all handlers on a router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/api/v1/events/item-created", s.ItemCreated)
	r.Post("/api/v1/items/{kind}/{id}/recheck", s.Recheck)
	r.Get("/api/v1/items/{kind}/{id}", s.GetItem)
	r.Get("/health", s.GetHealth)
	r.Get("/metrics", s.Metrics)
}

type itemCreatedRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type acceptedResponse struct {
	AcceptedCount int `json:"accepted_count"`
}

// ItemCreated handles POST /api/v1/events/item-created. The event references
// an already-stored item; re-deliveries are safe.
func (s *Server) ItemCreated(w http.ResponseWriter, r *http.Request) {
	var req itemCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "item id is required")
		return
	}

	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	committed, err := s.ingest.ProcessCreated(r.Context(), kind, req.ID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, acceptedResponse{AcceptedCount: committed})
}

// Recheck handles POST /api/v1/items/{kind}/{id}/recheck.
func (s *Server) Recheck(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chirouter.URLParam(r, "kind"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	committed, err := s.recheck.Run(r.Context(), kind, chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, acceptedResponse{AcceptedCount: committed})
}

// GetItem handles GET /api/v1/items/{kind}/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chirouter.URLParam(r, "kind"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	it, err := s.items.Get(r.Context(), kind, chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemToResponse(it))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	writeJSON(w, status, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type matchResponse struct {
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Score     float64   `json:"score"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Category  string    `json:"category"`
}

type itemResponse struct {
	ID                  string              `json:"id"`
	Kind                string              `json:"kind"`
	Name                string              `json:"name"`
	Category            string              `json:"category"`
	RawDescription      string              `json:"raw_description,omitempty"`
	Location            string              `json:"location,omitempty"`
	LocationDescription string              `json:"location_description,omitempty"`
	Coordinates         *domain.Coordinates `json:"coordinates,omitempty"`
	ImageURL            string              `json:"image_url,omitempty"`
	ImageAnalysis       string              `json:"image_analysis,omitempty"`
	SemanticDescription string              `json:"semantic_description,omitempty"`
	EmbeddingID         string              `json:"embedding_id,omitempty"`
	UserID              string              `json:"user_id"`
	Matches             []matchResponse     `json:"matches"`
	CreatedAt           *time.Time          `json:"created_at,omitempty"`
	LastCheckedAt       *time.Time          `json:"last_checked_at,omitempty"`
}

func itemToResponse(it *domain.Item) itemResponse {
	matches := make([]matchResponse, len(it.Matches))
	for i, m := range it.Matches {
		matches[i] = matchResponse{
			ItemID:    m.ItemID,
			UserID:    m.UserID,
			Score:     m.Score,
			Kind:      string(m.Kind),
			Status:    m.Status,
			CreatedAt: m.CreatedAt,
			Category:  m.Category,
		}
	}

	resp := itemResponse{
		ID:                  it.ID,
		Kind:                string(it.Kind),
		Name:                it.Name,
		Category:            it.Category,
		RawDescription:      it.RawDescription,
		Location:            it.Location,
		LocationDescription: it.LocationDescription,
		Coordinates:         it.Coordinates,
		ImageURL:            it.ImageURL,
		ImageAnalysis:       it.ImageAnalysis,
		SemanticDescription: it.SemanticDescription,
		EmbeddingID:         it.EmbeddingID,
		UserID:              it.UserID,
		Matches:             matches,
	}
	if !it.CreatedAt.IsZero() {
		t := it.CreatedAt
		resp.CreatedAt = &t
	}
	if !it.LastCheckedAt.IsZero() {
		t := it.LastCheckedAt
		resp.LastCheckedAt = &t
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrPreconditionFailed,
		domain.ErrInvalidInput,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
