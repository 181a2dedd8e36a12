package views

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/stage"
)

const timeLayout = "2006-01-02 15:04"

// SessionForm holds what the admin typed into the create-session form.
type SessionForm struct {
	GroupName  string
	TotalTeams string
}

// SessionsPage is the admin session manager.
func SessionsPage(sessions []model.SessionConfig, activeID string, form SessionForm, errMsg string) templ.Component {
	body := component(func(p *page) {
		p.raw(`<section><h1>`)
		p.t("SessionsTitle")
		p.raw(`</h1>`)
		p.alert(errMsg)
		p.form("/admin/sessions", "")
		p.raw(`<label for="group_name">`)
		p.t("GroupName")
		p.rawf(`</label><input type="text" id="group_name" name="group_name" value="%s" required>`, p.attr(form.GroupName))
		p.raw(`<label for="total_teams">`)
		p.t("TotalTeams")
		teams := form.TotalTeams
		if teams == "" {
			teams = "6"
		}
		p.rawf(`</label><input type="number" id="total_teams" name="total_teams" min="%d" max="%d" value="%s" required>`,
			model.MinTeams, model.MaxTeams, p.attr(teams))
		p.raw(`<p><button type="submit">`)
		p.t("CreateSession")
		p.raw(`</button></p></form></section><section>`)

		if len(sessions) == 0 {
			p.raw(`<p>`)
			p.t("NoSessions")
			p.raw(`</p></section>`)
			return
		}
		p.raw(`<table><thead><tr><th>`)
		p.t("GroupName")
		p.raw(`</th><th>`)
		p.t("TotalTeams")
		p.raw(`</th><th>`)
		p.t("CreatedAt")
		p.raw(`</th><th>`)
		p.t("ReportStatus")
		p.raw(`</th><th></th></tr></thead><tbody>`)
		for _, s := range sessions {
			p.rawf(`<tr><td><a href="%s">`, p.url("/admin/sessions/"+s.ID))
			p.text(s.GroupName)
			p.raw(`</a>`)
			if s.ID == activeID {
				p.raw(` <span class="ok">`)
				p.t("ActiveBadge")
				p.raw(`</span>`)
			}
			p.raw(`</td><td>`)
			p.text(itoa(s.TotalTeams))
			p.raw(`</td><td>`)
			p.text(s.CreatedAt.Local().Format(timeLayout))
			p.raw(`</td><td>`)
			if s.ReportEnabled {
				p.t("ReportOpen")
			} else {
				p.t("ReportClosed")
			}
			p.raw(`</td><td>`)
			if s.ID != activeID {
				p.button("/admin/sessions/"+s.ID+"/activate", "ActivateSession", "link", nil)
				p.raw(` `)
			}
			p.form("/admin/sessions/"+s.ID+"/delete", ` class="inline" onsubmit="this.confirm.value = window.confirm(this.dataset.msg) ? 'yes' : ''"`+
				` data-msg="`+p.attr(p.tr("ConfirmDelete"))+`"`)
			p.raw(`<input type="hidden" name="confirm" value=""><button type="submit" class="link">`)
			p.t("Delete")
			p.raw(`</button></form></td></tr>`)
		}
		p.raw(`</tbody></table></section>`)
	})
	return component(func(p *page) {
		p.render(Layout(p.tr("SessionsTitle"), body))
	})
}

// DashboardPage shows per-team progress of one session. Viewing it does not
// change which session trainees join; that takes the activate button.
func DashboardPage(cfg model.SessionConfig, active bool, teams []model.TeamProgress) templ.Component {
	body := component(func(p *page) {
		p.rawf(`<p class="noprint"><a href="%s">&larr; `, p.url("/admin/sessions"))
		p.t("SessionsTitle")
		p.raw(`</a></p><section><h1>`)
		p.text(cfg.GroupName)
		if active {
			p.raw(` <span class="ok">`)
			p.t("ActiveBadge")
			p.raw(`</span>`)
		}
		p.raw(`</h1><p class="muted">`)
		p.td("DashboardSubtitle", map[string]any{"Teams": cfg.TotalTeams, "Created": cfg.CreatedAt.Local().Format(timeLayout)})
		p.raw(`</p><p>`)
		if cfg.ReportEnabled {
			p.raw(`<span class="ok">`)
			p.t("ReportOpen")
			p.raw(`</span> `)
			p.button("/admin/sessions/"+cfg.ID+"/report", "DisableReport", "secondary", map[string]string{"enabled": "false"})
		} else {
			p.t("ReportClosed")
			p.raw(` `)
			p.button("/admin/sessions/"+cfg.ID+"/report", "EnableReport", "", map[string]string{"enabled": "true"})
		}
		if !active {
			p.raw(` `)
			p.button("/admin/sessions/"+cfg.ID+"/activate", "ActivateSession", "secondary", nil)
		}
		p.rawf(` <a class="btn secondary" href="%s">`, p.url("/admin/sessions/"+cfg.ID+"/export"))
		p.t("ExportJSON")
		p.raw(`</a></p></section><section><table><thead><tr><th>`)
		p.t("Team")
		p.raw(`</th><th>`)
		p.t("Members")
		p.raw(`</th><th>`)
		p.t("Stage")
		p.raw(`</th><th>`)
		p.t("RootCauseScore")
		p.raw(`</th><th>`)
		p.t("ReportStatus")
		p.raw(`</th><th>`)
		p.t("UpdatedAt")
		p.raw(`</th></tr></thead><tbody>`)
		for _, t := range teams {
			p.raw(`<tr><td>`)
			p.td("TeamN", map[string]any{"Team": t.TeamID})
			p.raw(`</td><td>`)
			if len(t.Members) == 0 {
				p.raw(`<span class="muted">`)
				p.t("NotJoined")
				p.raw(`</span></td><td></td><td></td><td></td><td></td></tr>`)
				continue
			}
			p.text(strings.Join(t.Members, ", "))
			p.raw(`</td><td>`)
			p.text(stage.StepLabels[t.Step])
			p.raw(`</td><td>`)
			p.td("ScoreValue", map[string]any{"Score": t.CorrectRoot, "Max": len(stage.RootCauseQuestions)})
			p.raw(`</td><td>`)
			if t.Submitted {
				p.t("Submitted")
			} else {
				p.raw(`-`)
			}
			p.raw(`</td><td>`)
			p.text(t.UpdatedAt.Local().Format(timeLayout))
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table></section>`)
	})
	return component(func(p *page) {
		p.render(Layout(cfg.GroupName, body))
	})
}
