// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limit func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/refresh", h.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	userAgent, ip := clientInfo(r)
	resp, err := h.service.Login(r.Context(), req, userAgent, ip)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	userAgent, ip := clientInfo(r)
	resp, err := h.service.Register(r.Context(), req, userAgent, ip)
	if err != nil {
		fail(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	userAgent, ip := clientInfo(r)
	resp, err := h.service.Refresh(r.Context(), req.RefreshToken, userAgent, ip)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req RefreshRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	claims := middleware.GetClaims(r.Context())
	if err := h.service.Logout(r.Context(), req.RefreshToken, userID, claims); err != nil {
		fail(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		fail(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.GetActiveSessions(r.Context(), userID)
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := uuid.Parse(sessionID); err != nil {
		core.BadRequest(w, "session id must be a UUID")
		return
	}

	if err := h.service.RevokeSession(r.Context(), userID, sessionID); err != nil {
		fail(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if msg, ok := core.DecodeAndValidate(r, h.validator, &req); !ok {
		core.BadRequest(w, msg)
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, ErrInvalidCredentials) {
		core.JSONError(w, core.UnauthorizedError("current password is incorrect"))
		return
	}
	if err != nil {
		fail(w, err)
		return
	}

	core.NoContent(w)
}

// GetMe restores the session: the caller's profile for a valid token.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	me, err := h.service.GetCurrentUser(r.Context(), userID)
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "profile")
		return
	}
	if err != nil {
		fail(w, err)
		return
	}

	core.OK(w, me)
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return "", false
	}
	return userID, true
}

// fail maps identity errors onto the messages shown at sign in and sign up.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		core.JSONError(w, core.UnauthorizedError(MsgInvalidCredentials))
	case errors.Is(err, ErrEmailExists):
		core.JSONError(w, core.NewAppError(
			core.ErrDuplicateKey,
			MsgEmailRegistered,
			http.StatusConflict,
			"DUPLICATE",
		))
	case errors.Is(err, ErrTokenReuse):
		core.JSONError(w, core.NewAppError(
			core.ErrTokenRevoked,
			"token reuse detected, every session was signed out",
			http.StatusUnauthorized,
			"TOKEN_REUSE_DETECTED",
		))
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "session")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "session belongs to another profile")
	default:
		core.InternalServerError(w, err)
	}
}

func clientInfo(r *http.Request) (string, string) {
	return r.UserAgent(), middleware.ClientIP(r)
}
