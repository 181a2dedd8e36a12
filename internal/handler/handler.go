package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/yja/firesim/internal/auth"
	"github.com/yja/firesim/internal/handler/views"
	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/report"
	"github.com/yja/firesim/internal/session"
	"github.com/yja/firesim/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	sessions  *session.Broadcaster
	store     *store.Store
	assembler *report.Assembler
	verifier  auth.Verifier
	config    model.AppConfig
}

// New creates a new Handler. Session configs are read and written through
// sessions; participants and admin logins always live in s.
func New(sessions *session.Broadcaster, s *store.Store, a *report.Assembler, v auth.Verifier, cfg model.AppConfig) (*Handler, error) {
	if sessions == nil || s == nil || a == nil || v == nil {
		return nil, errors.New("handler: missing dependency")
	}
	return &Handler{sessions: sessions, store: s, assembler: a, verifier: v, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.csrfMiddleware)
	r.Use(h.identify)

	r.Get("/", h.handleIndex)
	r.Post("/mode-switch", h.handleModeSwitch)
	r.Post("/logout", h.handleLogout)

	r.Get("/admin/login", h.handleAdminLoginPage)
	r.Post("/admin/login", h.handleAdminLogin)
	r.Route("/admin/sessions", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/", h.handleSessionsPage)
		r.Post("/", h.handleCreateSession)
		r.Get("/{sessionID}", h.handleDashboard)
		r.Post("/{sessionID}/activate", h.handleActivateSession)
		r.Post("/{sessionID}/delete", h.handleDeleteSession)
		r.Post("/{sessionID}/report", h.handleToggleReport)
		r.Get("/{sessionID}/export", h.handleExportSession)
	})

	r.Get("/join", h.handleJoinPage)
	r.Post("/join", h.handleJoin)
	r.Route("/play", func(r chi.Router) {
		r.Use(h.requireParticipant)
		r.Get("/", h.handlePlay)
		r.Get("/cards", h.handleCards)
		r.Post("/notes", h.handleAddNote)
		r.Post("/notes/{index}/delete", h.handleDeleteNote)
		r.Post("/reset", h.handleReset)
		r.Post("/report", h.handleSubmitReport)
		r.Get("/report/download", h.handleDownloadReport)
		r.Get("/report/events", h.handleReportEvents)
		r.Post("/{step}", h.handleSubmitStage)
	})
}

// BasePathMiddleware exposes the configured base path to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if model.ParticipantFromContext(r.Context()) != nil {
		http.Redirect(w, r, h.path("/play"), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, views.RolePage(model.IsAdmin(r.Context())))
}

// handleModeSwitch drops the trainee identity but keeps an admin login.
func (h *Handler) handleModeSwitch(w http.ResponseWriter, r *http.Request) {
	h.dropParticipant(w, r)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.dropParticipant(w, r)
	h.dropAdmin(w, r)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

// activeSession resolves the session trainees currently join.
func (h *Handler) activeSession(ctx context.Context) (*model.SessionConfig, error) {
	return h.store.ActiveSession(ctx, h.sessions)
}
