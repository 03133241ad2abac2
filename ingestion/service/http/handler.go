package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	core "logshelf/ingestion/service/core"
	"logshelf/storage/store"
)

// StoredMessage is the confirmation text returned after a successful pass.
const StoredMessage = "Logs stored in database"

// LogHandler encapsulates the logic for handling HTTP log requests
type LogHandler struct {
	svc    *core.Service
	logger *log.Logger
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(s *core.Service, l *log.Logger) *LogHandler {
	return &LogHandler{svc: s, logger: l}
}

// Register adds every route to mux
func (h *LogHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.Hello)
	mux.HandleFunc("/store_logs", h.StoreLogs)
	mux.HandleFunc("/logs", h.ListLogs)
	mux.HandleFunc("/health", h.HealthCheck)
}

// Hello handles GET / requests
func (h *LogHandler) Hello(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.respondError(w, "Not Found: "+r.URL.Path, http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello, world!"))
}

// StoreLogs handles GET|POST /store_logs requests by running one ingestion pass
func (h *LogHandler) StoreLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.svc.StoreLogs(r.Context())
	if err != nil {
		h.logger.Printf("HTTP Handler: Ingestion pass failed: %v", err)
		h.respondError(w, err.Error(), statusFor(err))
		return
	}

	respPayload := map[string]interface{}{
		"pass_id":              result.PassID,
		"stored":               result.Stored,
		"lines":                result.Lines,
		"malformed_timestamps": result.MalformedTimestamps,
		"dropped_lines":        result.DroppedLines,
		"queued":               result.Queued,
		"duration_ms":          result.Duration.Milliseconds(),
		"message":              StoredMessage,
	}

	h.respondJSON(w, respPayload, http.StatusOK)
}

// ListLogs handles GET /logs requests
func (h *LogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := h.svc.ListLogs(r.Context())
	if err != nil {
		h.logger.Printf("HTTP Handler: Listing records failed: %v", err)
		h.respondError(w, err.Error(), statusFor(err))
		return
	}

	h.respondJSON(w, records, http.StatusOK)
}

// HealthCheck handles GET /health requests
func (h *LogHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	storeStatus := "ok"
	if err := h.svc.Ping(ctx); err != nil {
		h.logger.Printf("HTTP Handler: Health check failed: %v", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
		storeStatus = err.Error()
	}

	resp := map[string]interface{}{
		"status":    status,
		"store":     storeStatus,
		"publisher": h.svc.Stats(),
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "logshelf-ingestion",
	}

	h.respondJSON(w, resp, code)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrPersistence):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		// Unreadable source and anything unexpected
		return http.StatusInternalServerError
	}
}

// respondJSON sends JSON response
func (h *LogHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
		// Cannot send error to client at this point
	}
}

// respondError sends error response
func (h *LogHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	errorResp := map[string]interface{}{
		"error":   message,
		"status":  statusCode,
		"message": http.StatusText(statusCode),
	}

	h.respondJSON(w, errorResp, statusCode)
}
