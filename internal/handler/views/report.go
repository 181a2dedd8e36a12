package views

import (
	"github.com/yja/firesim/internal/model"
)

type reportField struct {
	name  string
	msgID string
	value func(r *model.FinalReportData) string
	long  bool
}

var reportFields = []reportField{
	{"title", "ReportTitle", func(r *model.FinalReportData) string { return r.Title }, false},
	{"members", "ReportMembers", func(r *model.FinalReportData) string { return r.Members }, false},
	{"contents", "ReportContents", func(r *model.FinalReportData) string { return r.Contents }, true},
	{"situation", "ReportSituation", func(r *model.FinalReportData) string { return r.Situation }, true},
	{"definition", "ReportDefinition", func(r *model.FinalReportData) string { return r.Definition }, true},
	{"cause", "ReportCause", func(r *model.FinalReportData) string { return r.Cause }, true},
	{"solution", "ReportSolution", func(r *model.FinalReportData) string { return r.Solution }, true},
	{"prevention", "ReportPrevention", func(r *model.FinalReportData) string { return r.Prevention }, true},
	{"schedule", "ReportSchedule", func(r *model.FinalReportData) string { return r.Schedule }, true},
}

func reportStage(p *page, v PlayView) {
	// A closed session shows only the waiting notice: no inputs, no document.
	if !v.Session.ReportEnabled {
		p.raw(`<section><p class="alert" id="report-locked">`)
		p.t("ReportLocked")
		p.raw(`</p></section>`)
		reportEvents(p, false)
		return
	}

	if v.State.FinalReport != nil {
		reportDocument(p, v.State.FinalReport)
	}

	p.raw(`<section class="noprint">`)
	p.form("/play/report", "")
	draft := model.FinalReportData{
		Title: v.Report.Title, Members: v.Report.Members, Contents: v.Report.Contents,
		Situation: v.Report.Situation, Definition: v.Report.Definition, Cause: v.Report.Cause,
		Solution: v.Report.Solution, Prevention: v.Report.Prevention, Schedule: v.Report.Schedule,
	}
	for _, f := range reportFields {
		p.rawf(`<label for="%s">`, f.name)
		p.t(f.msgID)
		fieldError(p, v, f.name)
		p.raw(`</label>`)
		if f.long {
			p.rawf(`<textarea id="%s" name="%s">`, f.name, f.name)
			p.text(f.value(&draft))
			p.raw(`</textarea>`)
		} else {
			p.rawf(`<input type="text" id="%s" name="%s" value="%s">`, f.name, f.name, p.attr(f.value(&draft)))
		}
	}
	p.raw(`<p><button type="submit">`)
	if v.State.FinalReport != nil {
		p.t("ResubmitReport")
	} else {
		p.t("SubmitReport")
	}
	p.raw(`</button></p></form></section>`)
	reportEvents(p, true)
}

// reportEvents reloads the page when the facilitator opens or closes submission.
func reportEvents(p *page, open bool) {
	p.rawf(`<script>(function(){var open=%t;var es=new EventSource(%q);`+
		`es.addEventListener("report",function(e){if((e.data==="true")!==open){es.close();location.reload();}});})();</script>`,
		open, model.BasePathFromContext(p.ctx)+"/play/report/events")
}

func reportDocument(p *page, r *model.FinalReportData) {
	p.raw(`<section><h1>`)
	p.text(r.Title)
	p.raw(`</h1><p class="muted">`)
	p.text(r.Members)
	p.raw(`</p><p class="noprint"><button type="button" class="secondary" onclick="window.print()">`)
	p.t("Print")
	p.rawf(`</button> <a class="btn secondary" href="%s">`, p.url("/play/report/download"))
	p.t("DownloadJSON")
	p.raw(`</a></p>`)
	for _, f := range reportFields[2:] {
		p.raw(`<h3>`)
		p.t(f.msgID)
		p.raw(`</h3><p style="white-space:pre-wrap">`)
		p.text(f.value(r))
		p.raw(`</p>`)
	}
	p.raw(`</section>`)
	if r.Analysis != nil {
		analysis(p, r.Analysis)
	}
}

func analysis(p *page, a *model.AnalyzedReport) {
	p.raw(`<section><h2>`)
	p.t("AnalysisTitle")
	p.raw(`</h2>`)
	if a.Fallback {
		p.raw(`<p class="muted">`)
		p.t("AnalysisFallback")
		p.raw(`</p>`)
	}
	p.raw(`<p>`)
	p.text(a.Summary)
	p.raw(`</p><h3>`)
	p.t("SituationChart")
	p.raw(`</h3><table>`)
	for i, label := range a.SituationChart.Labels {
		val := 0
		if i < len(a.SituationChart.Values) {
			val = a.SituationChart.Values[i]
		}
		p.raw(`<tr><td>`)
		p.text(label)
		p.rawf(`</td><td style="width:60%%"><div class="bar" style="width:%d%%"></div></td><td>%d%%</td></tr>`, val, val)
	}
	p.raw(`</table><h3>`)
	p.t("Problems")
	p.raw(`</h3><ul>`)
	for _, pr := range a.Problems {
		p.raw(`<li>`)
		p.text(pr)
		p.raw(`</li>`)
	}
	p.raw(`</ul><h3>`)
	p.t("FiveWhys")
	p.raw(`</h3><ol>`)
	for _, why := range a.RootCauses.Chain() {
		p.raw(`<li>`)
		p.text(why)
		p.raw(`</li>`)
	}
	p.raw(`</ol><h3>`)
	p.t("SolutionPriority")
	p.raw(`</h3><table><thead><tr><th></th><th>`)
	p.t("Urgency")
	p.raw(`</th><th>`)
	p.t("Impact")
	p.raw(`</th></tr></thead><tbody>`)
	sp := a.SolutionPriority
	for i, item := range sp.Items {
		p.raw(`<tr><td>`)
		p.text(item)
		p.rawf(`</td><td>%d</td><td>%d</td></tr>`, at(sp.Urgency, i), at(sp.Impact, i))
	}
	p.raw(`</tbody></table><h3>`)
	p.t("Timeline")
	p.raw(`</h3><table><tbody>`)
	for _, t := range a.Timeline {
		p.raw(`<tr><td>`)
		p.text(t.Task)
		p.raw(`</td><td>`)
		p.text(t.Start)
		p.raw(` ~ `)
		p.text(t.End)
		p.raw(`</td></tr>`)
	}
	p.raw(`</tbody></table><h3>`)
	p.t("ExpectedResults")
	p.raw(`</h3><ul>`)
	for _, e := range a.ExpectedResults {
		p.raw(`<li>`)
		p.text(e)
		p.raw(`</li>`)
	}
	p.raw(`</ul></section>`)
}

func at(xs []int, i int) int {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
