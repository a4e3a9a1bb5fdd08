// Package httphandler is the HTTP driving adapter that serves the JSON API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/knguessan/moodlewatch/internal/application"
	"github.com/knguessan/moodlewatch/internal/domain/model"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
	"github.com/knguessan/moodlewatch/internal/vault"
)

// Handler serves the roster and platform-connection API. Request identity is
// the {email} path segment: account authentication belongs to the fronting
// API gateway, not this service.
type Handler struct {
	users    driven.UserStore
	vault    *vault.Vault
	syncSvc  *application.SyncService
	watchSvc *application.WatchService
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	users driven.UserStore,
	v *vault.Vault,
	syncSvc *application.SyncService,
	watchSvc *application.WatchService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:    users,
		vault:    v,
		syncSvc:  syncSvc,
		watchSvc: watchSvc,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("POST /api/v1/users", h.CreateUser)
	mux.HandleFunc("GET /api/v1/users/{email}/platform", h.PlatformStatus)
	mux.HandleFunc("POST /api/v1/users/{email}/platform", h.ConnectPlatform)
	mux.HandleFunc("DELETE /api/v1/users/{email}/platform", h.DisconnectPlatform)
	mux.HandleFunc("POST /api/v1/users/{email}/sync", h.SyncNow)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateUser adds a roster entry.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("user lookup failed", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.FullName)
	if err != nil {
		// A concurrent create can slip past the pre-check; the store reports
		// it as ErrEmailTaken.
		if errors.Is(err, driven.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "user already exists")
			return
		}
		h.logger.Error("user create failed", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

// PlatformStatus reports whether the user has a connected Moodle account.
func (h *Handler) PlatformStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, PlatformStatusResponse{
		Connected: user.HasPlatformAccount(),
		Username:  user.PlatformUsername,
	})
}

// ConnectPlatform verifies the submitted Moodle credentials against the live
// site, then encrypts and stores them. The plaintext password exists only for
// the duration of this request. A failed verification is reported without
// detail: wrong username, wrong password, and an unreachable site all look
// the same to the caller.
func (h *Handler) ConnectPlatform(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	var req ConnectPlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if !h.syncSvc.Verify(r.Context(), req.Username, req.Password) {
		writeError(w, http.StatusBadRequest, "platform credentials could not be verified")
		return
	}

	encrypted, err := h.vault.Encrypt(req.Password)
	if err != nil {
		h.logger.Error("credential encrypt failed", "email", user.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.users.SetPlatformAccount(r.Context(), user.Email, req.Username, encrypted); err != nil {
		h.logger.Error("platform account store failed", "email", user.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, PlatformStatusResponse{
		Connected: true,
		Username:  req.Username,
	})
}

// DisconnectPlatform clears the user's Moodle account and stored credential.
func (h *Handler) DisconnectPlatform(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	if err := h.users.ClearPlatformAccount(r.Context(), user.Email); err != nil {
		h.logger.Error("platform account clear failed", "email", user.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, PlatformStatusResponse{Connected: false})
}

// SyncNow runs one on-demand scan for the user and returns whatever the
// platform currently reports. An empty list does not distinguish "nothing
// upcoming" from a failed sync; the failure cause is in the logs.
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	if !user.HasPlatformAccount() {
		writeError(w, http.StatusConflict, "platform account not connected")
		return
	}

	assignments, err := h.watchSvc.SyncUser(r.Context(), *user)
	if err != nil {
		h.logger.Error("manual sync failed", "email", user.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "stored credential unreadable, reconnect the platform account")
		return
	}

	resp := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		resp = append(resp, toAssignmentResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// lookupUser resolves the {email} path segment. It writes the error response
// itself and reports success through the second return value.
func (h *Handler) lookupUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	email := r.PathValue("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return nil, false
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("user lookup failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}
