package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/yja/firesim/internal/model"
)

// RolePage lets a visitor choose between facilitator and trainee.
func RolePage(adminActive bool) templ.Component {
	body := component(func(p *page) {
		p.raw(`<section><h1>`)
		p.t("RoleTitle")
		p.raw(`</h1>`)
		if adminActive {
			p.raw(`<p class="ok">`)
			p.t("AdminActive")
			p.raw(`</p>`)
		}
		p.rawf(`<p><a class="btn" href="%s">`, p.url("/admin/sessions"))
		p.t("RoleAdmin")
		p.rawf(`</a> <a class="btn secondary" href="%s">`, p.url("/join"))
		p.t("RoleStudent")
		p.raw(`</a></p></section>`)
	})
	return component(func(p *page) {
		p.render(Layout(p.tr("RoleTitle"), body))
	})
}

// AdminLoginPage asks for the facilitator password.
func AdminLoginPage(errMsg string) templ.Component {
	body := component(func(p *page) {
		p.raw(`<section><h1>`)
		p.t("AdminLoginTitle")
		p.raw(`</h1>`)
		p.alert(errMsg)
		p.form("/admin/login", "")
		p.raw(`<label for="password">`)
		p.t("Password")
		p.raw(`</label><input type="password" id="password" name="password" autofocus required>`)
		p.raw(`<p><button type="submit">`)
		p.t("Login")
		p.raw(`</button></p></form></section>`)
	})
	return component(func(p *page) {
		p.render(Layout(p.tr("AdminLoginTitle"), body))
	})
}

// JoinForm holds what a trainee typed on the join page.
type JoinForm struct {
	Name   string
	TeamID int
}

// JoinPage lets a trainee pick a team of the active session.
func JoinPage(cfg *model.SessionConfig, form JoinForm, errMsg string) templ.Component {
	body := component(func(p *page) {
		p.raw(`<section><h1>`)
		p.t("JoinTitle")
		p.raw(`</h1>`)
		p.alert(errMsg)
		if cfg == nil {
			p.raw(`<p>`)
			p.t("NoActiveSession")
			p.raw(`</p></section>`)
			return
		}
		p.raw(`<p class="muted">`)
		p.text(cfg.GroupName)
		p.raw(`</p>`)
		p.form("/join", "")
		p.rawf(`<input type="hidden" name="session_id" value="%s">`, p.attr(cfg.ID))
		p.raw(`<label for="name">`)
		p.t("Name")
		p.rawf(`</label><input type="text" id="name" name="name" value="%s" required>`, p.attr(form.Name))
		p.raw(`<label>`)
		p.t("ChooseTeam")
		p.raw(`</label><p>`)
		for team := 1; team <= cfg.TotalTeams; team++ {
			class := "secondary"
			if team == form.TeamID {
				class = ""
			}
			p.rawf(`<button type="submit" name="team" value="%d" class="%s">`, team, class)
			p.td("TeamN", map[string]any{"Team": team})
			p.raw(`</button> `)
		}
		p.raw(`</p></form></section>`)
	})
	return component(func(p *page) {
		p.render(Layout(p.tr("JoinTitle"), body))
	})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
