package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/haidizedan/your-psychological-bot/internal/api"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20 // 1MB

// AnalyzePath is the single gateway endpoint.
const AnalyzePath = "/api/analyze"

const rateLimitedMessage = "Too many requests. Please try again later."

// Limiter throttles callers by key.
type Limiter interface {
	Allow(key string) bool
}

// Handler serves POST /api/analyze.
type Handler struct {
	svc         *Service
	logger      *slog.Logger
	rateLimiter Limiter
	maxBodySize int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRateLimiter throttles analyze calls per client. Nil disables throttling.
func WithRateLimiter(l Limiter) HandlerOption {
	return func(h *Handler) {
		h.rateLimiter = l
	}
}

// WithMaxBodySize overrides the request body cap.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// NewHandler creates the analyze handler.
func NewHandler(svc *Service, logger *slog.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		svc:         svc,
		logger:      logger,
		maxBodySize: defaultMaxRequestBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the analyze route for every method so that
// non-POST requests get the handler's own 405.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc(AnalyzePath, h.HandleAnalyze)
}

// HandleAnalyze handles /api/analyze requests.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())

	if h.rateLimiter != nil && !h.rateLimiter.Allow(clientKey(r)) {
		h.logger.Warn("Analyze request rate limited", "request_id", reqID, "client", clientKey(r))
		writeError(w, http.StatusTooManyRequests, rateLimitedMessage)
		return
	}

	req, err := h.decodeRequest(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		h.logger.Info("Invalid analyze request body", "request_id", reqID, "error", err)
		writeError(w, http.StatusBadRequest, InvalidBodyMessage)
		return
	}

	h.logger.Info("Analyze request",
		"request_id", reqID,
		"session_mode", bool(req.SessionMode),
		"message_length", len(req.Message),
	)

	reply, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		h.logger.Error("Analyze failed", "request_id", reqID, "error", err)
		writeError(w, http.StatusInternalServerError, InternalErrorMessage)
		return
	}

	api.JSON(w, http.StatusOK, AnalysisResponse{Reply: reply})
}

// decodeRequest reads the body as an AnalysisRequest. An empty body decodes
// to the zero request, leaving every field as empty text.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (AnalysisRequest, error) {
	var req AnalysisRequest

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		return req, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	api.JSON(w, status, ErrorResponse{Message: message})
}
