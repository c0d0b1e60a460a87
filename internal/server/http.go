package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brocode/spot/internal/store"
)

// NewHTTPHandler creates the HTTP handler with all routes registered.
// If authToken is non-empty, all routes except health require a Bearer token.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/notifications", s.handleCreateNotification)
	mux.HandleFunc("GET /v1/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /v1/notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("POST /v1/notifications/read-all", s.handleMarkAllRead)

	mux.HandleFunc("GET /v1/payments", s.handleListPayments)
	mux.HandleFunc("PUT /v1/payments/{memberId}", s.handleSetPaid)

	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	return AuthMiddleware(authToken, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createNotificationRequest is the body of POST /v1/notifications.
type createNotificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	n, err := s.notifications.Notify(r.Context(), req.Title, req.Message)
	if err != nil {
		slog.Error("failed to create notification", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create notification")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"notification": n})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": s.notifications.All(),
		"unread_count":  s.notifications.UnreadCount(),
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	n, err := s.notifications.MarkRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("notification %s not found", id))
			return
		}
		slog.Error("failed to mark notification read", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notification": n})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkAllRead(r.Context()); err != nil {
		slog.Error("failed to mark all notifications read", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark all notifications read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"unread_count": s.notifications.UnreadCount(),
	})
}

func (s *Server) handleListPayments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"payments":   s.payments.Statuses(),
		"completion": s.payments.Completion(),
	})
}

// setPaidRequest is the body of PUT /v1/payments/{memberId}.
type setPaidRequest struct {
	Paid bool `json:"paid"`
}

func (s *Server) handleSetPaid(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("memberId")

	// Authorization happens here, before the store is touched: only roster
	// admins may record payments, on anyone's behalf.
	actor := r.Header.Get("X-Member-ID")
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "X-Member-ID header is required")
		return
	}
	if !s.roster.IsAdmin(actor) {
		writeError(w, http.StatusForbidden, fmt.Sprintf("member %s is not an admin", actor))
		return
	}

	var req setPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	status, err := s.payments.SetPaid(r.Context(), memberID, req.Paid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("payment status for %s not found", memberID))
			return
		}
		slog.Error("failed to set payment status", "member_id", memberID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set payment status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"payment": status})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
