package model

// FinalReportData is the document a team submits at the REPORT stage.
type FinalReportData struct {
	Title      string          `json:"title"`
	Members    string          `json:"members"`
	Contents   string          `json:"contents"`
	Situation  string          `json:"situation"`
	Definition string          `json:"definition"`
	Cause      string          `json:"cause"`
	Solution   string          `json:"solution"`
	Prevention string          `json:"prevention"`
	Schedule   string          `json:"schedule"`
	Analysis   *AnalyzedReport `json:"analysis,omitempty"`
}

// Input returns the eight free-text fields sent to the summariser.
func (r FinalReportData) Input() ReportInput {
	return ReportInput{
		Title:      r.Title,
		Members:    r.Members,
		Situation:  r.Situation,
		Definition: r.Definition,
		Cause:      r.Cause,
		Solution:   r.Solution,
		Prevention: r.Prevention,
		Schedule:   r.Schedule,
	}
}

// ReportInput is the request payload for report summarisation.
type ReportInput struct {
	Title      string `json:"title"`
	Members    string `json:"members"`
	Situation  string `json:"situation"`
	Definition string `json:"definition"`
	Cause      string `json:"cause"`
	Solution   string `json:"solution"`
	Prevention string `json:"prevention"`
	Schedule   string `json:"schedule"`
}

// AnalyzedReport is chart-ready analysis derived from a report.
type AnalyzedReport struct {
	Summary          string           `json:"summary"`
	SituationChart   Chart            `json:"situationChart"`
	Problems         []string         `json:"problems"`
	RootCauses       FiveWhys         `json:"rootCauses"`
	SolutionPriority SolutionPriority `json:"solutionPriority"`
	Timeline         []TimelineItem   `json:"timeline"`
	ExpectedResults  []string         `json:"expectedResults"`
	// Fallback is set when the analysis was produced without the summariser.
	Fallback bool `json:"-"`
}

// Chart is a category-weighted breakdown; Values sum to 100.
type Chart struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// FiveWhys is a causally-chained root-cause analysis.
type FiveWhys struct {
	Why1 string `json:"why1"`
	Why2 string `json:"why2"`
	Why3 string `json:"why3"`
	Why4 string `json:"why4"`
	Why5 string `json:"why5"`
}

// Chain returns the five statements in order.
func (w FiveWhys) Chain() []string {
	return []string{w.Why1, w.Why2, w.Why3, w.Why4, w.Why5}
}

// SolutionPriority scores each solution for urgency and impact (0-100).
type SolutionPriority struct {
	Items   []string `json:"items"`
	Urgency []int    `json:"urgency"`
	Impact  []int    `json:"impact"`
}

// TimelineItem is one scheduled task.
type TimelineItem struct {
	Task  string `json:"task"`
	Start string `json:"start"`
	End   string `json:"end"`
}
