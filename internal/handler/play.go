package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yja/firesim/internal/handler/views"
	appI18n "github.com/yja/firesim/internal/i18n"
	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/report"
	"github.com/yja/firesim/internal/session"
	"github.com/yja/firesim/internal/sim"
	"github.com/yja/firesim/internal/stage"
)

// eventKeepAlive is how often an idle event stream sends a comment line.
const eventKeepAlive = 25 * time.Second

func (h *Handler) handleJoinPage(w http.ResponseWriter, r *http.Request) {
	if model.ParticipantFromContext(r.Context()) != nil {
		http.Redirect(w, r, h.path("/play"), http.StatusSeeOther)
		return
	}
	cfg, err := h.activeSession(r.Context())
	if err != nil {
		slog.Error("failed to resolve active session", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, views.JoinPage(cfg, views.JoinForm{}, ""))
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := views.JoinForm{Name: strings.TrimSpace(r.FormValue("name"))}
	form.TeamID, _ = strconv.Atoi(r.FormValue("team"))

	var cfg *model.SessionConfig
	if id := r.FormValue("session_id"); id != "" {
		var err error
		cfg, err = h.sessions.Get(ctx, id)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Error("failed to get session", "id", id, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if cfg == nil {
		var err error
		if cfg, err = h.activeSession(ctx); err != nil {
			slog.Error("failed to resolve active session", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if cfg == nil {
		h.render(w, r, http.StatusNotFound, views.JoinPage(nil, form, ""))
		return
	}

	if form.Name == "" {
		h.render(w, r, http.StatusUnprocessableEntity, views.JoinPage(cfg, form, appI18n.T(ctx, "validation.name_required")))
		return
	}
	if !session.ValidTeam(*cfg, form.TeamID) {
		msg := appI18n.Td(ctx, "validation.team_range", map[string]any{"Max": cfg.TotalTeams})
		h.render(w, r, http.StatusUnprocessableEntity, views.JoinPage(cfg, form, msg))
		return
	}

	h.dropParticipant(w, r)
	eng := sim.New(model.UserProfile{Name: form.Name, TeamID: form.TeamID})
	p, err := h.store.CreateParticipant(ctx, cfg.ID, *eng.State())
	if err != nil {
		http.Error(w, "failed to join: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.setCookie(w, participantCookieName, p.Token)
	http.Redirect(w, r, h.path("/play"), http.StatusSeeOther)
}

// current returns the trainee and session resolved by requireParticipant.
func current(r *http.Request) (*model.Participant, model.SessionConfig) {
	p := model.ParticipantFromContext(r.Context())
	var cfg model.SessionConfig
	if s := sessionFromContext(r.Context()); s != nil {
		cfg = *s
	}
	return p, cfg
}

func (h *Handler) playView(st model.SimulationState, cfg model.SessionConfig) views.PlayView {
	progress := sim.Resume(&st).Progress()
	minFacts := h.config.MinFacts
	if minFacts < 1 {
		minFacts = stage.DefaultMinFacts
	}
	return views.PlayView{
		Session:  cfg,
		State:    st,
		Progress: progress,
		MinFacts: minFacts,
		Report:   stage.PrefillReport(st),
	}
}

func (h *Handler) renderPlay(w http.ResponseWriter, r *http.Request, status int, v views.PlayView) {
	h.render(w, r, status, views.PlayPage(v))
}

func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	p, cfg := current(r)
	h.renderPlay(w, r, http.StatusOK, h.playView(p.State, cfg))
}

// renderConflict re-renders the saved stage after a stale or out-of-order submit.
func (h *Handler) renderConflict(w http.ResponseWriter, r *http.Request, err error) {
	p, cfg := current(r)
	slog.Warn("rejected stage submit", "name", p.Profile.Name, "step", p.State.Step, "error", err)
	v := h.playView(p.State, cfg)
	v.Error = appI18n.T(r.Context(), "IllegalTransition")
	h.renderPlay(w, r, http.StatusConflict, v)
}

// stageForm reads the submitted form of step. The returned state carries the
// raw input so the page can be re-rendered if validation fails.
func (h *Handler) stageForm(r *http.Request, step model.Step, st model.SimulationState) (stage.Form, model.SimulationState) {
	switch step {
	case model.StepIntro:
		return stage.IntroForm{}, st
	case model.StepSituation:
		facts := r.PostForm["facts"]
		st.CollectedFacts = facts
		return stage.SituationForm{Selected: facts, MinFacts: h.config.MinFacts}, st
	case model.StepDefinition:
		f := stage.DefinitionForm{Current: r.FormValue("current"), Ideal: r.FormValue("ideal")}
		st.Gap = model.GapAnalysis{Current: f.Current, Ideal: f.Ideal}
		return f, st
	case model.StepAnalysis:
		f := stage.AnalysisForm{
			Devices:     stage.ToggleDevices(st.Power, r.PostForm["device"]),
			Evacuation:  r.FormValue(stage.EvacuationQuestion.Field),
			Suppression: r.FormValue(stage.SuppressionQuestion.Field),
		}
		st.Power = f.Devices
		st.RootCauses.Evacuation = f.Evacuation
		st.RootCauses.Suppression = f.Suppression
		return f, st
	case model.StepSolution:
		f := stage.SolutionForm{ShortTerm: r.FormValue("short_term"), Prevention: r.FormValue("prevention")}
		st.Solutions.ShortTerm = f.ShortTerm
		st.Solutions.Prevention = f.Prevention
		return f, st
	}
	return nil, st
}

func (h *Handler) handleSubmitStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, cfg := current(r)
	step := model.Step(strings.ToUpper(chi.URLParam(r, "step")))
	if !step.Valid() {
		http.NotFound(w, r)
		return
	}

	eng := sim.Resume(&p.State)
	if step != eng.Step() {
		h.renderConflict(w, r, &sim.IllegalTransitionError{From: eng.Step(), To: step, Cause: "stale form"})
		return
	}
	form, draft := h.stageForm(r, step, p.State)
	next, ok := sim.Successor(step)
	if form == nil || !ok {
		h.renderConflict(w, r, &sim.IllegalTransitionError{From: step, Cause: "stage has no form"})
		return
	}

	// The power calculator can be re-evaluated without leaving the stage.
	if step == model.StepAnalysis && r.FormValue("action") == "calc" {
		h.renderPlay(w, r, http.StatusOK, h.playView(draft, cfg))
		return
	}

	patch, err := form.Validate()
	var ve *stage.ValidationError
	if errors.As(err, &ve) {
		v := h.playView(draft, cfg)
		v.Error = appI18n.Td(ctx, ve.MessageID, ve.Data)
		v.ErrorField = ve.Field
		h.renderPlay(w, r, http.StatusUnprocessableEntity, v)
		return
	}
	if err != nil {
		slog.Error("stage validation failed", "step", step, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := eng.Advance(next, patch); err != nil {
		if errors.Is(err, sim.ErrIllegalTransition) {
			h.renderConflict(w, r, err)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.store.SaveState(ctx, p.Token, *eng.State()); err != nil {
		slog.Error("failed to save state", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("stage completed", "session", p.SessionID, "team", p.Profile.TeamID, "name", p.Profile.Name, "from", step, "to", next)
	http.Redirect(w, r, h.path("/play"), http.StatusSeeOther)
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	p, cfg := current(r)
	eng := sim.Resume(&p.State)
	if err := eng.AddNote(r.FormValue("note")); err != nil {
		v := h.playView(p.State, cfg)
		v.Error = appI18n.T(r.Context(), "validation.note_empty")
		h.renderPlay(w, r, http.StatusUnprocessableEntity, v)
		return
	}
	if err := h.store.SaveState(r.Context(), p.Token, *eng.State()); err != nil {
		slog.Error("failed to save state", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/play"), http.StatusSeeOther)
}

func (h *Handler) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	p, _ := current(r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid note index", http.StatusBadRequest)
		return
	}
	eng := sim.Resume(&p.State)
	if err := eng.DeleteNote(index); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := h.store.SaveState(r.Context(), p.Token, *eng.State()); err != nil {
		slog.Error("failed to save state", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/play"), http.StatusSeeOther)
}

func (h *Handler) handleCards(w http.ResponseWriter, r *http.Request) {
	p, cfg := current(r)
	cards := stage.InfoCardsForTeam(p.Profile.TeamID, cfg.TotalTeams)
	h.render(w, r, http.StatusOK, views.CardsPage(p.State.TeamName, cards))
}

// handleReset discards all progress and returns to role selection.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	p, _ := current(r)
	slog.Info("participant reset", "session", p.SessionID, "team", p.Profile.TeamID, "name", p.Profile.Name)
	h.dropParticipant(w, r)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func reportFormFrom(r *http.Request) stage.ReportForm {
	return stage.ReportForm{
		Title:      r.FormValue("title"),
		Members:    r.FormValue("members"),
		Contents:   r.FormValue("contents"),
		Situation:  r.FormValue("situation"),
		Definition: r.FormValue("definition"),
		Cause:      r.FormValue("cause"),
		Solution:   r.FormValue("solution"),
		Prevention: r.FormValue("prevention"),
		Schedule:   r.FormValue("schedule"),
	}
}

func (h *Handler) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, cfg := current(r)
	if p.State.Step != model.StepReport {
		h.renderConflict(w, r, sim.ErrNotAtReport)
		return
	}

	form := reportFormFrom(r)
	doc, err := h.assembler.Assemble(ctx, cfg, form)
	var ve *stage.ValidationError
	switch {
	case errors.Is(err, report.ErrDisabled):
		h.renderPlay(w, r, http.StatusForbidden, h.playView(p.State, cfg))
		return
	case errors.As(err, &ve):
		v := h.playView(p.State, cfg)
		v.Report = form
		v.Error = appI18n.Td(ctx, ve.MessageID, ve.Data)
		v.ErrorField = ve.Field
		h.renderPlay(w, r, http.StatusUnprocessableEntity, v)
		return
	case ctx.Err() != nil:
		slog.Warn("report request cancelled", "name", p.Profile.Name, "error", ctx.Err())
		return
	case err != nil:
		slog.Error("failed to assemble report", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	eng := sim.Resume(&p.State)
	if err := eng.SetFinalReport(doc); err != nil {
		h.renderConflict(w, r, err)
		return
	}
	if err := h.store.SaveState(ctx, p.Token, *eng.State()); err != nil {
		slog.Error("failed to save state", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("report submitted", "session", p.SessionID, "team", p.Profile.TeamID,
		"name", p.Profile.Name, "fallback", doc.Analysis != nil && doc.Analysis.Fallback)
	http.Redirect(w, r, h.path("/play"), http.StatusSeeOther)
}

func (h *Handler) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	p, _ := current(r)
	if p.State.FinalReport == nil {
		http.NotFound(w, r)
		return
	}
	writeJSONAttachment(w, fmt.Sprintf("firesim-report-team%d.json", p.Profile.TeamID), p.State.FinalReport)
}

// handleReportEvents streams the session's report flag as server-sent
// events: once on connect, then on every change.
func (h *Handler) handleReportEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, cfg := current(r)
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := h.sessions.Subscribe(ctx)
	enabled := cfg.ReportEnabled
	if err := writeEvent(w, rc, "report", strconv.FormatBool(enabled)); err != nil {
		return
	}

	ticker := time.NewTicker(eventKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case list, ok := <-updates:
			if !ok {
				return
			}
			idx := -1
			for i, s := range list {
				if s.ID == cfg.ID {
					idx = i
					break
				}
			}
			if idx < 0 {
				_ = writeEvent(w, rc, "closed", cfg.ID)
				return
			}
			if list[idx].ReportEnabled == enabled {
				continue
			}
			enabled = list[idx].ReportEnabled
			if err := writeEvent(w, rc, "report", strconv.FormatBool(enabled)); err != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, rc *http.ResponseController, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return rc.Flush()
}
