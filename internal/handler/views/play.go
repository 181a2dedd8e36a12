package views

import (
	"slices"
	"strings"

	"github.com/a-h/templ"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/sim"
	"github.com/yja/firesim/internal/stage"
)

// PlayView is everything the stage page needs. State may hold unsaved input
// when the page is re-rendered after a validation error.
type PlayView struct {
	Session    model.SessionConfig
	State      model.SimulationState
	Progress   int
	MinFacts   int
	Report     stage.ReportForm
	Error      string
	ErrorField string
}

// PlayPage renders the current stage of a trainee.
func PlayPage(v PlayView) templ.Component {
	body := component(func(p *page) {
		progressBar(p, v)
		p.alert(v.Error)
		if g, ok := stage.GuideFor(v.State.Step); ok {
			guide(p, g)
		}
		switch v.State.Step {
		case model.StepIntro:
			introStage(p)
		case model.StepSituation:
			situationStage(p, v)
		case model.StepDefinition:
			definitionStage(p, v)
		case model.StepAnalysis:
			analysisStage(p, v)
		case model.StepSolution:
			solutionStage(p, v)
		case model.StepReport:
			reportStage(p, v)
		}
		notesPanel(p, v.State)
		p.raw(`<p class="noprint">`)
		p.form("/play/reset", ` class="inline" onsubmit="return window.confirm(this.dataset.msg)" data-msg="`+p.attr(p.tr("ConfirmReset"))+`"`)
		p.raw(`<button type="submit" class="secondary">`)
		p.t("Reset")
		p.raw(`</button></form></p>`)
	})
	return component(func(p *page) {
		p.render(Layout(stage.StepLabels[v.State.Step], body))
	})
}

func progressBar(p *page, v PlayView) {
	p.raw(`<section class="noprint"><p><strong>`)
	p.text(v.State.TeamName)
	p.raw(`</strong> `)
	if v.State.User != nil {
		p.text(v.State.User.Name)
	}
	p.raw(` <span class="muted">`)
	p.td("ProgressPercent", map[string]any{"Percent": v.Progress})
	p.raw(`</span></p><ol class="steps">`)
	cur := v.State.Step.Index()
	for i, s := range model.Steps {
		class := ""
		switch {
		case i == cur:
			class = "current"
		case i < cur:
			class = "done"
		}
		p.rawf(`<li class="%s">`, class)
		p.text(stage.StepLabels[s])
		p.raw(`</li>`)
	}
	p.raw(`</ol></section>`)
}

func guide(p *page, g stage.Guide) {
	p.raw(`<section class="guide"><h2>`)
	p.text(g.Title)
	p.raw(`</h2><p><strong>`)
	p.t("GuideGoal")
	p.raw(`</strong> `)
	p.text(g.Goal)
	p.raw(`</p><p><strong>`)
	p.t("GuideConcept")
	p.raw(`</strong> `)
	p.text(g.Concept)
	p.raw(`</p><p class="muted">`)
	p.text(g.Description)
	p.raw(`</p></section>`)
}

func stageForm(p *page, step model.Step) {
	p.form("/play/"+strings.ToLower(string(step)), "")
}

func nextButton(p *page) {
	p.raw(`<p><button type="submit" name="action" value="next">`)
	p.t("NextStep")
	p.raw(`</button></p></form>`)
}

func fieldError(p *page, v PlayView, field string) {
	if v.Error != "" && v.ErrorField == field {
		p.raw(` <span class="alert">!</span>`)
	}
}

func introStage(p *page) {
	sc := stage.Scenario
	p.raw(`<section><h2>`)
	p.t("ScenarioTitle")
	p.raw(`</h2><table>`)
	rows := []struct{ label, value string }{
		{"ScenarioDate", sc.Date},
		{"ScenarioLocation", sc.Location},
		{"ScenarioIncident", sc.Incident},
		{"ScenarioVictim", sc.Victim},
		{"ScenarioImpact", sc.ProductionImpact},
		{"ScenarioClient", sc.Client},
		{"ScenarioDeadline", sc.Deadline},
	}
	for _, r := range rows {
		p.raw(`<tr><th>`)
		p.t(r.label)
		p.raw(`</th><td>`)
		p.text(r.value)
		p.raw(`</td></tr>`)
	}
	p.raw(`</table>`)
	stageForm(p, model.StepIntro)
	p.raw(`<p><button type="submit">`)
	p.t("StartTraining")
	p.raw(`</button></p></form></section>`)
}

func situationStage(p *page, v PlayView) {
	p.raw(`<section><p>`)
	p.td("SelectFacts", map[string]any{"Count": stage.GuideFactCount})
	p.raw(` <span class="muted">`)
	p.td("SelectedFacts", map[string]any{"Count": len(v.State.CollectedFacts)})
	p.raw(`, `)
	p.td("MinFactsHint", map[string]any{"Count": v.MinFacts})
	p.raw(`</span></p>`)
	stageForm(p, model.StepSituation)
	for i, f := range stage.FactPool {
		checked := ""
		if slices.Contains(v.State.CollectedFacts, f) {
			checked = " checked"
		}
		p.rawf(`<p><input type="checkbox" id="fact%d" name="facts" value="%s"%s> <label class="inline" for="fact%d">`,
			i, p.attr(f), checked, i)
		p.text(f)
		p.raw(`</label></p>`)
	}
	nextButton(p)
	p.raw(`</section>`)
}

func definitionStage(p *page, v PlayView) {
	p.raw(`<section>`)
	stageForm(p, model.StepDefinition)
	p.raw(`<label for="current">`)
	p.t("CurrentState")
	fieldError(p, v, "current")
	p.raw(`</label><textarea id="current" name="current">`)
	p.text(v.State.Gap.Current)
	p.raw(`</textarea><label for="ideal">`)
	p.t("IdealState")
	fieldError(p, v, "ideal")
	p.raw(`</label><textarea id="ideal" name="ideal">`)
	p.text(v.State.Gap.Ideal)
	p.raw(`</textarea>`)
	nextButton(p)
	p.raw(`</section>`)
}

func analysisStage(p *page, v PlayView) {
	total := sim.TotalWatts(v.State.Power)
	p.raw(`<section>`)
	stageForm(p, model.StepAnalysis)
	p.raw(`<h2>`)
	p.t("PowerTitle")
	p.raw(`</h2><table><thead><tr><th></th><th>`)
	p.t("Device")
	p.raw(`</th><th>`)
	p.t("Count")
	p.raw(`</th><th>W</th></tr></thead><tbody>`)
	for i, d := range v.State.Power {
		checked := ""
		if d.Active {
			checked = " checked"
		}
		p.rawf(`<tr><td><input type="checkbox" id="dev%d" name="device" value="%s"%s></td><td><label class="inline" for="dev%d">`,
			i, p.attr(d.Device), checked, i)
		p.text(d.Device)
		p.rawf(`</label></td><td>%d</td><td>%d</td></tr>`, d.Count, d.Count*d.Watts)
	}
	p.raw(`</tbody></table><p>`)
	p.td("PowerTotal", map[string]any{"Watts": total, "Limit": sim.MaxPowerLimit})
	if total > sim.MaxPowerLimit {
		p.raw(` <strong class="alert">`)
		p.t("Overload")
		p.raw(`</strong>`)
	}
	p.raw(` <button type="submit" name="action" value="calc" class="secondary">`)
	p.t("Recalculate")
	p.raw(`</button></p>`)

	for _, q := range stage.RootCauseQuestions {
		p.raw(`<h3>`)
		p.text(q.Title)
		fieldError(p, v, q.Field)
		p.raw(`</h3><p class="muted">`)
		p.text(q.Hint)
		p.raw(`</p>`)
		picked := pickFor(v.State.RootCauses, q.Field)
		for i, o := range q.Options {
			checked := ""
			if o.Text == picked {
				checked = " checked"
			}
			p.rawf(`<p><input type="radio" id="%s%d" name="%s" value="%s"%s> <label class="inline" for="%s%d">`,
				q.Field, i, q.Field, p.attr(o.Text), checked, q.Field, i)
			p.text(o.Text)
			p.raw(`</label></p>`)
		}
	}
	nextButton(p)
	p.raw(`</section>`)
}

func pickFor(rc model.RootCauses, field string) string {
	switch field {
	case stage.EvacuationQuestion.Field:
		return rc.Evacuation
	case stage.SuppressionQuestion.Field:
		return rc.Suppression
	}
	return ""
}

func solutionStage(p *page, v PlayView) {
	p.raw(`<section>`)
	stageForm(p, model.StepSolution)
	p.raw(`<label for="short_term">`)
	p.t("ShortTerm")
	p.raw(`</label><p class="muted">`)
	p.text(stage.SolutionReference)
	p.raw(`</p><textarea id="short_term" name="short_term">`)
	p.text(v.State.Solutions.ShortTerm)
	p.raw(`</textarea><label for="prevention">`)
	p.t("Prevention")
	p.raw(`</label><textarea id="prevention" name="prevention">`)
	p.text(v.State.Solutions.Prevention)
	p.raw(`</textarea>`)
	nextButton(p)
	p.raw(`</section>`)
}

func notesPanel(p *page, st model.SimulationState) {
	p.raw(`<section class="noprint"><h2>`)
	p.t("Notes")
	p.raw(` <span class="muted">`)
	p.tp("NotesCount", len(st.PersonalNotes))
	p.rawf(`</span></h2><p><a href="%s">`, p.url("/play/cards"))
	p.t("InfoCards")
	p.raw(`</a></p>`)
	if len(st.PersonalNotes) == 0 {
		p.raw(`<p class="muted">`)
		p.t("NoNotes")
		p.raw(`</p>`)
	}
	p.raw(`<ul>`)
	for i, n := range st.PersonalNotes {
		p.raw(`<li>`)
		p.text(n)
		p.raw(` `)
		p.button("/play/notes/"+itoa(i)+"/delete", "Delete", "link", nil)
		p.raw(`</li>`)
	}
	p.raw(`</ul>`)
	p.form("/play/notes", "")
	p.raw(`<input type="text" name="note" required> <button type="submit" class="secondary">`)
	p.t("AddNote")
	p.raw(`</button></form></section>`)
}

// CardsPage lists the evidence cards dealt to a team.
func CardsPage(teamName string, cards []string) templ.Component {
	body := component(func(p *page) {
		p.rawf(`<p><a href="%s">&larr; `, p.url("/play"))
		p.t("BackToStage")
		p.raw(`</a></p><section><h1>`)
		p.t("InfoCards")
		p.raw(` <span class="muted">`)
		p.text(teamName)
		p.raw(`</span></h1><div class="grid">`)
		for _, c := range cards {
			p.rawf(`<a href="%s" target="_blank" rel="noopener"><img src="%s" alt="%s" loading="lazy"><br>`,
				p.attr(c), p.attr(c), p.attr(stage.CardLabel(c)))
			p.text(stage.CardLabel(c))
			p.raw(`</a>`)
		}
		p.raw(`</div></section>`)
	})
	return component(func(p *page) {
		p.render(Layout(p.tr("InfoCards"), body))
	})
}
