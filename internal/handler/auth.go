package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yja/firesim/internal/handler/views"
	appI18n "github.com/yja/firesim/internal/i18n"
	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/session"
)

const (
	adminCookieName       = "admin_session"
	participantCookieName = "participant"
	csrfCookieName        = "csrf_token"
)

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// csrfMiddleware implements the double-submit cookie pattern. Safe requests
// reuse an existing token so that background GETs (event streams, card
// views in another tab) do not invalidate forms already on screen.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			token := ""
			if c, err := r.Cookie(csrfCookieName); err == nil && c.Value != "" {
				token = c.Value
			} else {
				var err error
				token, err = generateCSRFToken()
				if err != nil {
					slog.Error("failed to generate CSRF token", "error", err)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				h.setCSRFCookie(w, token)
			}
			ctx := model.ContextWithCSRFToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue("csrf_token")
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		token, err := generateCSRFToken()
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.setCSRFCookie(w, token)

		ctx := model.ContextWithCSRFToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type sessionCtxKey struct{}

func contextWithSession(ctx context.Context, cfg *model.SessionConfig) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, cfg)
}

func sessionFromContext(ctx context.Context) *model.SessionConfig {
	cfg, _ := ctx.Value(sessionCtxKey{}).(*model.SessionConfig)
	return cfg
}

// identify resolves the admin and participant cookies without enforcing
// either. A participant whose session was deleted is signed out.
func (h *Handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if cookie, err := r.Cookie(adminCookieName); err == nil && cookie.Value != "" {
			authSess, err := h.store.GetAuthSession(ctx, cookie.Value)
			if err != nil {
				slog.Error("failed to get auth session", "error", err)
			}
			ctx = model.ContextWithAdmin(ctx, authSess != nil)
		}

		if cookie, err := r.Cookie(participantCookieName); err == nil && cookie.Value != "" {
			p, cfg, err := h.loadParticipant(ctx, cookie.Value)
			switch {
			case err != nil:
				slog.Error("failed to load participant", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			case p == nil:
				h.clearCookie(w, participantCookieName)
			default:
				ctx = model.ContextWithParticipant(ctx, p)
				ctx = contextWithSession(ctx, cfg)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) loadParticipant(ctx context.Context, token string) (*model.Participant, *model.SessionConfig, error) {
	p, err := h.store.GetParticipant(ctx, token)
	if err != nil || p == nil {
		return nil, nil, err
	}
	cfg, err := h.sessions.Get(ctx, p.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		slog.Info("participant session gone", "session", p.SessionID, "name", p.Profile.Name)
		if err := h.store.DeleteParticipant(ctx, token); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

// requireAdmin is middleware that checks for a valid admin login.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !model.IsAdmin(r.Context()) {
			h.redirectTo(w, r, h.path("/admin/login"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireParticipant is middleware that checks for a joined trainee.
func (h *Handler) requireParticipant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if model.ParticipantFromContext(r.Context()) == nil {
			h.redirectTo(w, r, h.path("/join"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
}

func (h *Handler) handleAdminLoginPage(w http.ResponseWriter, r *http.Request) {
	if model.IsAdmin(r.Context()) {
		http.Redirect(w, r, h.path("/admin/sessions"), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, views.AdminLoginPage(""))
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !h.verifier.Verify(r.FormValue("password")) {
		slog.Warn("admin login failed", "remote", r.RemoteAddr)
		h.render(w, r, http.StatusUnauthorized, views.AdminLoginPage(appI18n.T(r.Context(), "LoginError")))
		return
	}

	token, err := h.store.CreateAuthSession(r.Context())
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.setCookie(w, adminCookieName, token)
	slog.Info("admin logged in", "remote", r.RemoteAddr)
	http.Redirect(w, r, h.path("/admin/sessions"), http.StatusSeeOther)
}

func (h *Handler) dropAdmin(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(adminCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.store.DeleteAuthSession(r.Context(), cookie.Value); err != nil {
			slog.Warn("failed to delete auth session", "error", err)
		}
	}
	h.clearCookie(w, adminCookieName)
}

func (h *Handler) dropParticipant(w http.ResponseWriter, r *http.Request) {
	if p := model.ParticipantFromContext(r.Context()); p != nil {
		if err := h.store.DeleteParticipant(r.Context(), p.Token); err != nil {
			slog.Warn("failed to delete participant", "error", err)
		}
	}
	h.clearCookie(w, participantCookieName)
}
