// Package views renders the HTML pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/yja/firesim/internal/i18n"
	"github.com/yja/firesim/internal/model"
)

// page accumulates the first write error so components can render linearly.
type page struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) rawf(format string, args ...any) {
	p.raw(fmt.Sprintf(format, args...))
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) t(msgID string) {
	p.text(appI18n.T(p.ctx, msgID))
}

func (p *page) tr(msgID string) string {
	return appI18n.T(p.ctx, msgID)
}

func (p *page) td(msgID string, data map[string]any) {
	p.text(appI18n.Td(p.ctx, msgID, data))
}

func (p *page) tp(msgID string, count int) {
	p.text(appI18n.Tp(p.ctx, msgID, count))
}

func (p *page) attr(s string) string {
	return templ.EscapeString(s)
}

// url prefixes an application path with the deployment base path.
func (p *page) url(path string) string {
	return templ.EscapeString(model.BasePathFromContext(p.ctx) + path)
}

func (p *page) csrf() {
	p.rawf(`<input type="hidden" name="csrf_token" value="%s">`, p.attr(model.CSRFTokenFromContext(p.ctx)))
}

// form opens a POST form to path and writes the CSRF field.
func (p *page) form(path string, extra string) {
	p.rawf(`<form method="post" action="%s"%s>`, p.url(path), extra)
	p.csrf()
}

// button renders a single-button POST form.
func (p *page) button(path, msgID, class string, fields map[string]string) {
	p.form(path, ` class="inline"`)
	for k, v := range fields {
		p.rawf(`<input type="hidden" name="%s" value="%s">`, p.attr(k), p.attr(v))
	}
	p.rawf(`<button type="submit" class="%s">`, p.attr(class))
	p.t(msgID)
	p.raw(`</button></form>`)
}

func (p *page) alert(msg string) {
	if msg == "" {
		return
	}
	p.raw(`<div class="alert" role="alert">`)
	p.text(msg)
	p.raw(`</div>`)
}

func (p *page) render(c templ.Component) {
	if p.err == nil {
		p.err = c.Render(p.ctx, p.w)
	}
}

func component(fn func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		fn(p)
		return p.err
	})
}

const styles = `
body{font-family:system-ui,"Apple SD Gothic Neo","Malgun Gothic",sans-serif;margin:0;background:#f5f5f4;color:#1c1917}
header{background:#b91c1c;color:#fff;padding:.75rem 1.5rem;display:flex;justify-content:space-between;align-items:center}
header a{color:#fff;text-decoration:none;font-weight:700}
main{max-width:960px;margin:1.5rem auto;padding:0 1rem}
section,.card{background:#fff;border-radius:8px;padding:1rem 1.25rem;margin-bottom:1rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.alert{background:#fee2e2;color:#991b1b;padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
.ok{background:#dcfce7;color:#166534;padding:.5rem .75rem;border-radius:6px}
.inline{display:inline}
button,.btn{background:#b91c1c;color:#fff;border:0;border-radius:6px;padding:.5rem 1rem;cursor:pointer;text-decoration:none;display:inline-block}
button.secondary,.btn.secondary{background:#57534e}
button.link{background:none;color:#b91c1c;padding:0}
textarea,input[type=text],input[type=password],input[type=number]{width:100%;box-sizing:border-box;padding:.5rem;border:1px solid #d6d3d1;border-radius:6px}
textarea{min-height:5rem}
label{display:block;margin:.5rem 0 .25rem;font-weight:600}
table{width:100%;border-collapse:collapse}
td,th{border-bottom:1px solid #e7e5e4;padding:.4rem;text-align:left}
ol.steps{display:flex;list-style:none;padding:0;gap:.25rem}
ol.steps li{flex:1;padding:.4rem;background:#e7e5e4;border-radius:4px;font-size:.85rem;text-align:center}
ol.steps li.done{background:#fecaca}
ol.steps li.current{background:#b91c1c;color:#fff}
.bar{background:#fecaca;height:1.1rem;border-radius:3px}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(140px,1fr));gap:.5rem}
.grid img{width:100%;border-radius:4px}
.guide{border-left:4px solid #b91c1c}
.muted{color:#78716c;font-size:.9rem}
@media print{header,form,.noprint{display:none}}
`

// Layout wraps body in the common page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(p *page) {
		p.raw(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(` | `)
		p.t("AppTitle")
		p.raw(`</title><style>` + styles + `</style></head><body>`)
		p.rawf(`<header><a href="%s">`, p.url("/"))
		p.t("AppTitle")
		p.raw(`</a><nav>`)
		if model.IsAdmin(p.ctx) || model.ParticipantFromContext(p.ctx) != nil {
			if model.IsAdmin(p.ctx) && model.ParticipantFromContext(p.ctx) != nil {
				p.button("/mode-switch", "ModeSwitch", "secondary", nil)
				p.raw(" ")
			}
			p.button("/logout", "Logout", "secondary", nil)
		}
		p.raw(`</nav></header><main>`)
		p.render(body)
		p.raw(`</main></body></html>`)
	})
}
