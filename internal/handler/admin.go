package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yja/firesim/internal/handler/views"
	appI18n "github.com/yja/firesim/internal/i18n"
	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/session"
	"github.com/yja/firesim/internal/stage"
)

func (h *Handler) renderSessions(w http.ResponseWriter, r *http.Request, status int, form views.SessionForm, errMsg string) {
	sessions, err := h.sessions.List(r.Context())
	if err != nil {
		slog.Error("failed to list sessions", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	activeID := ""
	if active, err := h.activeSession(r.Context()); err != nil {
		slog.Warn("failed to resolve active session", "error", err)
	} else if active != nil {
		activeID = active.ID
	}
	h.render(w, r, status, views.SessionsPage(sessions, activeID, form, errMsg))
}

func (h *Handler) handleSessionsPage(w http.ResponseWriter, r *http.Request) {
	h.renderSessions(w, r, http.StatusOK, views.SessionForm{}, "")
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	form := views.SessionForm{
		GroupName:  r.FormValue("group_name"),
		TotalTeams: r.FormValue("total_teams"),
	}
	teams, err := strconv.Atoi(strings.TrimSpace(form.TotalTeams))
	if err != nil {
		teams = 0
	}

	cfg, err := session.NewConfig(form.GroupName, teams, time.Now())
	if errors.Is(err, session.ErrInvalid) {
		msg := appI18n.Td(r.Context(), "validation.session", map[string]any{"Min": model.MinTeams, "Max": model.MaxTeams})
		h.renderSessions(w, r, http.StatusUnprocessableEntity, form, msg)
		return
	}
	if err != nil {
		slog.Error("failed to build session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Create(r.Context(), cfg); err != nil {
		slog.Error("failed to create session", "error", err)
		http.Error(w, "failed to create session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("session created", "id", cfg.ID, "group", cfg.GroupName, "teams", cfg.TotalTeams)
	http.Redirect(w, r, h.path("/admin/sessions"), http.StatusSeeOther)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if r.FormValue("confirm") != "yes" {
		http.Error(w, "deletion not confirmed", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to delete session", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.store.DeleteParticipants(r.Context(), id); err != nil {
		slog.Error("failed to delete participants", "session", id, "error", err)
	}
	slog.Info("session deleted", "id", id)
	http.Redirect(w, r, h.path("/admin/sessions"), http.StatusSeeOther)
}

// handleDashboard shows a session's teams.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	cfg, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to get session", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	participants, err := h.store.ListParticipants(r.Context(), cfg.ID)
	if err != nil {
		slog.Error("failed to list participants", "session", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	active, err := h.activeSession(r.Context())
	if err != nil {
		slog.Warn("failed to resolve active session", "error", err)
	}
	isActive := active != nil && active.ID == cfg.ID

	h.render(w, r, http.StatusOK, views.DashboardPage(*cfg, isActive, teamProgress(*cfg, participants)))
}

// handleActivateSession makes a session the one trainees join.
func (h *Handler) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to get session", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.store.SetActiveSession(r.Context(), id); err != nil {
		slog.Error("failed to set active session", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("session activated", "id", id)
	http.Redirect(w, r, h.path("/admin/sessions/"+id), http.StatusSeeOther)
}

// teamProgress reports, per team, the furthest stage any member reached.
func teamProgress(cfg model.SessionConfig, participants []model.Participant) []model.TeamProgress {
	teams := make([]model.TeamProgress, cfg.TotalTeams)
	for i := range teams {
		teams[i] = model.TeamProgress{TeamID: i + 1}
	}
	for _, p := range participants {
		if !session.ValidTeam(cfg, p.Profile.TeamID) {
			continue
		}
		t := &teams[p.Profile.TeamID-1]
		t.Members = append(t.Members, p.Profile.Name)
		if p.State.Step.Index() > t.Step.Index() {
			t.Step = p.State.Step
		}
		t.CorrectRoot = max(t.CorrectRoot, stage.Score(p.State.RootCauses))
		if p.State.FinalReport != nil {
			t.Submitted = true
		}
		if p.UpdatedAt.After(t.UpdatedAt) {
			t.UpdatedAt = p.UpdatedAt
		}
	}
	return teams
}

func (h *Handler) handleToggleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	enabled, err := strconv.ParseBool(r.FormValue("enabled"))
	if err != nil {
		http.Error(w, "invalid enabled value", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Update(r.Context(), id, session.Patch{ReportEnabled: &enabled}); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to update session", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("report submission toggled", "id", id, "enabled", enabled)
	http.Redirect(w, r, h.path("/admin/sessions/"+id), http.StatusSeeOther)
}

func (h *Handler) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	export, err := h.store.ExportSession(r.Context(), h.sessions, id)
	if errors.Is(err, session.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to export session", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONAttachment(w, fmt.Sprintf("firesim-session-%s.json", id), export)
}

func writeJSONAttachment(w http.ResponseWriter, filename string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Error("failed to marshal JSON", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(append(data, '\n'))
}
