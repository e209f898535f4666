package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wfmassist/internal/domain"
	"wfmassist/internal/feed"
	"wfmassist/internal/state"
	"wfmassist/internal/telemetry"
	"wfmassist/internal/views"
)

// Dashboard is the session surface driven by the HTTP API.
// Params: read accessors and the input operations of one dashboard.
// Returns: implemented by app.Dashboard.
type Dashboard interface {
	feed.Source
	CommandHandler
	Snapshot() domain.Status
	Views() views.Dashboard
	Transcript() []domain.Message
	Trigger(name string) (state.Snapshot, error)
	SubmitText(text string) bool
	ClickAction(label, messageID string) (domain.Message, bool)
	ToggleSimulationPanel() bool
}

// CommandHandler receives decoded presentation-layer commands.
// Params: validated command.
// Returns: whether the command was accepted, or validation error.
type CommandHandler interface {
	Handle(command domain.Command) (bool, error)
}

// RouterOptions configures the HTTP surface.
// Params: paths, body limit, readiness probe, optional metrics handler, observers.
// Returns: router construction settings.
type RouterOptions struct {
	APIPrefix      string
	HealthPath     string
	ReadyPath      string
	MaxBodyBytes   int64
	Ready          func() bool
	MetricsPath    string
	MetricsHandler http.Handler
	StreamOrigins  []string
	Logger         *slog.Logger
	Metrics        *telemetry.Metrics
}

type textRequest struct {
	Text string `json:"text"`
}

type actionRequest struct {
	Label     string `json:"label"`
	MessageID string `json:"message_id"`
}

type acceptedResponse struct {
	Accepted bool            `json:"accepted"`
	Message  *domain.Message `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type apiHandler struct {
	dashboard    Dashboard
	maxBodyBytes int64
	logger       *slog.Logger
	metrics      *telemetry.Metrics
}

// NewRouter builds the dashboard HTTP API.
// Params: dashboard and router options.
// Returns: chi router with health, API, stream, and optional metrics routes.
func NewRouter(dashboard Dashboard, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	handler := &apiHandler{
		dashboard:    dashboard,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       logger,
		metrics:      opts.Metrics,
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	if opts.HealthPath != "" {
		router.Get(opts.HealthPath, func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte("ok"))
		})
	}
	if opts.ReadyPath != "" {
		router.Get(opts.ReadyPath, func(writer http.ResponseWriter, _ *http.Request) {
			if opts.Ready != nil && !opts.Ready() {
				writer.WriteHeader(http.StatusServiceUnavailable)
				_, _ = writer.Write([]byte("not-ready"))
				return
			}
			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte("ready"))
		})
	}
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		router.Method(http.MethodGet, opts.MetricsPath, opts.MetricsHandler)
	}

	prefix := strings.TrimSuffix(opts.APIPrefix, "/")
	if prefix == "" {
		prefix = "/"
	}
	router.Route(prefix, func(api chi.Router) {
		api.Get("/dashboard", handler.getDashboard)
		api.Get("/views", handler.getViews)
		api.Get("/transcript", handler.getTranscript)
		api.Post("/messages", handler.postMessage)
		api.Post("/actions", handler.postAction)
		api.Post("/simulate/{trigger}", handler.postSimulate)
		api.Post("/panel/toggle", handler.postTogglePanel)
		api.Post("/commands", handler.postCommand)
		api.Method(http.MethodGet, "/stream", feed.NewStreamHandler(dashboard, logger, opts.Metrics, opts.StreamOrigins))
	})
	return router
}

func (h *apiHandler) getDashboard(writer http.ResponseWriter, _ *http.Request) {
	writeJSON(writer, http.StatusOK, h.dashboard.Snapshot())
}

func (h *apiHandler) getViews(writer http.ResponseWriter, _ *http.Request) {
	writeJSON(writer, http.StatusOK, h.dashboard.Views())
}

func (h *apiHandler) getTranscript(writer http.ResponseWriter, _ *http.Request) {
	writeJSON(writer, http.StatusOK, map[string]any{"messages": h.dashboard.Transcript()})
}

func (h *apiHandler) postMessage(writer http.ResponseWriter, request *http.Request) {
	var payload textRequest
	if !h.decode(writer, request, &payload) {
		return
	}
	accepted := h.dashboard.SubmitText(payload.Text)
	h.metrics.CommandHandled("http", acceptedResult(accepted))
	writeJSON(writer, http.StatusAccepted, acceptedResponse{Accepted: accepted})
}

func (h *apiHandler) postAction(writer http.ResponseWriter, request *http.Request) {
	var payload actionRequest
	if !h.decode(writer, request, &payload) {
		return
	}
	if strings.TrimSpace(payload.Label) == "" {
		h.reject(writer, http.StatusBadRequest, "label is required")
		return
	}
	echo, accepted := h.dashboard.ClickAction(payload.Label, payload.MessageID)
	h.metrics.CommandHandled("http", acceptedResult(accepted))
	response := acceptedResponse{Accepted: accepted}
	if accepted {
		response.Message = &echo
	}
	writeJSON(writer, http.StatusAccepted, response)
}

func (h *apiHandler) postSimulate(writer http.ResponseWriter, request *http.Request) {
	snapshot, err := h.dashboard.Trigger(chi.URLParam(request, "trigger"))
	if err != nil {
		h.reject(writer, http.StatusBadRequest, err.Error())
		return
	}
	h.metrics.CommandHandled("http", "accepted")
	writeJSON(writer, http.StatusOK, snapshot)
}

func (h *apiHandler) postTogglePanel(writer http.ResponseWriter, _ *http.Request) {
	open := h.dashboard.ToggleSimulationPanel()
	h.metrics.CommandHandled("http", "accepted")
	writeJSON(writer, http.StatusOK, map[string]bool{"panelOpen": open})
}

func (h *apiHandler) postCommand(writer http.ResponseWriter, request *http.Request) {
	body, ok := h.readBody(writer, request)
	if !ok {
		return
	}
	command, err := domain.DecodeCommand(body)
	if err != nil {
		h.reject(writer, http.StatusBadRequest, err.Error())
		return
	}
	accepted, err := h.dashboard.Handle(command)
	if err != nil {
		h.reject(writer, http.StatusBadRequest, err.Error())
		return
	}
	h.metrics.CommandHandled("http", acceptedResult(accepted))
	writeJSON(writer, http.StatusAccepted, acceptedResponse{Accepted: accepted})
}

// readBody reads request body bounded by the configured limit.
// Params: response writer and request.
// Returns: body bytes and false after writing an error response.
func (h *apiHandler) readBody(writer http.ResponseWriter, request *http.Request) ([]byte, bool) {
	if h.maxBodyBytes > 0 {
		request.Body = http.MaxBytesReader(writer, request.Body, h.maxBodyBytes)
	}
	defer request.Body.Close()
	body, err := io.ReadAll(request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(writer, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		h.reject(writer, http.StatusBadRequest, "read body: "+err.Error())
		return nil, false
	}
	return body, true
}

func (h *apiHandler) decode(writer http.ResponseWriter, request *http.Request, dst any) bool {
	body, ok := h.readBody(writer, request)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.reject(writer, http.StatusBadRequest, "decode body: "+err.Error())
		return false
	}
	return true
}

func (h *apiHandler) reject(writer http.ResponseWriter, status int, message string) {
	h.metrics.CommandHandled("http", "rejected")
	h.logger.Debug("http request rejected", "status", status, "error", message)
	writeJSON(writer, status, errorResponse{Error: message})
}

func acceptedResult(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "ignored"
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}
