package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/tahmid/skillswap/internal/auth"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/service"
)

// AuthHandler manages registration, login, and the Google OAuth flow.
type AuthHandler struct {
	auths  *service.AuthService
	google *auth.GoogleProvider
	logger *slog.Logger
}

func NewAuthHandler(auths *service.AuthService, google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auths:  auths,
		google: google,
		logger: logger,
	}
}

// authResponse is the body returned by register, login, and the OAuth
// callback: the account plus a bearer token for API clients. Browser
// clients get the same token in an HttpOnly cookie.
type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// HandleRegister creates a password account.
//
// HTTP: POST /api/auth/register
// Body: {"name", "email", "password", "teach": [..], "learn": [..]}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name"`
		Email    string   `json:"email"`
		Password string   `json:"password"`
		Teach    []string `json:"teach"`
		Learn    []string `json:"learn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.auths.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Teach:    req.Teach,
		Learn:    req.Learn,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, authResponse{User: result.User, Token: result.Token})
}

// HandleLogin checks credentials and issues a token.
//
// HTTP: POST /api/auth/login
// Body: {"email", "password"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.auths.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{User: result.User, Token: result.Token})
}

// HandleLogout clears the token cookie. Bearer-header clients just discard
// the token.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleGoogleLogin redirects the browser to Google's authorization page.
//
// HTTP: GET /api/auth/google/login
//
// The random state value is stored in a short-lived HttpOnly cookie and
// verified on callback, so a forged callback cannot complete the flow.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow: verifies the state,
// exchanges the code for a profile, creates the account on first login, and
// issues a token.
//
// HTTP: GET /api/auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch or missing state cookie")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authorization was denied"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "internal_error", Message: "OAuth exchange failed"})
		return
	}

	result, err := h.auths.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{User: result.User, Token: result.Token})
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
