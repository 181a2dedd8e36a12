package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/stage"
)

type summarizerFunc func(ctx context.Context, in model.ReportInput) (*model.AnalyzedReport, error)

func (f summarizerFunc) Summarize(ctx context.Context, in model.ReportInput) (*model.AnalyzedReport, error) {
	return f(ctx, in)
}

var enabled = model.SessionConfig{ID: "s", GroupName: "g", TotalTeams: 6, ReportEnabled: true}

func testForm() stage.ReportForm {
	return stage.ReportForm{
		Title:      "3조 화재사고 분석 보고서",
		Members:    "김철수, 이영희",
		Situation:  "생산 중단",
		Definition: "납기 준수 불가\n추가 설명",
		Cause:      "전력 과부하\n소화기 노후",
		Solution:   "타 공장 대체 생산",
		Prevention: "정기 점검",
		Schedule:   "즉시",
	}
}

func TestAssembleFallsBackOnSummarizerError(t *testing.T) {
	s := summarizerFunc(func(context.Context, model.ReportInput) (*model.AnalyzedReport, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	a := NewAssembler(s, time.Second)

	got, err := a.Assemble(context.Background(), enabled, testForm())
	require.NoError(t, err)

	form := testForm()
	want, _ := form.Validate()
	assert.Equal(t, Fallback(want.Input()), got.Analysis)
	assert.True(t, got.Analysis.Fallback)
	assert.Equal(t, form.Title, got.Title)
}

func TestAssembleFallsBackOnNilAnalysis(t *testing.T) {
	s := summarizerFunc(func(context.Context, model.ReportInput) (*model.AnalyzedReport, error) {
		return nil, nil
	})
	got, err := NewAssembler(s, 0).Assemble(context.Background(), enabled, testForm())
	require.NoError(t, err)
	assert.True(t, got.Analysis.Fallback)
}

func TestAssembleFallsBackOnTimeout(t *testing.T) {
	s := summarizerFunc(func(ctx context.Context, _ model.ReportInput) (*model.AnalyzedReport, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	got, err := NewAssembler(s, 10*time.Millisecond).Assemble(context.Background(), enabled, testForm())
	require.NoError(t, err)
	assert.True(t, got.Analysis.Fallback)
}

func TestAssembleReturnsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := summarizerFunc(func(ctx context.Context, _ model.ReportInput) (*model.AnalyzedReport, error) {
		cancel()
		return nil, ctx.Err()
	})
	_, err := NewAssembler(s, time.Second).Assemble(ctx, enabled, testForm())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssembleUsesSummarizer(t *testing.T) {
	var seen model.ReportInput
	analysis := &model.AnalyzedReport{Summary: "요약"}
	s := summarizerFunc(func(_ context.Context, in model.ReportInput) (*model.AnalyzedReport, error) {
		seen = in
		return analysis, nil
	})
	got, err := NewAssembler(s, time.Second).Assemble(context.Background(), enabled, testForm())
	require.NoError(t, err)
	assert.Same(t, analysis, got.Analysis)
	assert.Equal(t, "전력 과부하\n소화기 노후", seen.Cause)
	assert.Equal(t, "김철수, 이영희", seen.Members)
}

func TestAssembleGates(t *testing.T) {
	a := NewAssembler(nil, 0)

	disabled := enabled
	disabled.ReportEnabled = false
	_, err := a.Assemble(context.Background(), disabled, testForm())
	assert.ErrorIs(t, err, ErrDisabled)

	form := testForm()
	form.Members = ""
	_, err = a.Assemble(context.Background(), enabled, form)
	var ve *stage.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "members", ve.Field)

	got, err := a.Assemble(context.Background(), enabled, testForm())
	require.NoError(t, err)
	assert.True(t, got.Analysis.Fallback)
}

func TestFallback(t *testing.T) {
	in := model.ReportInput{
		Situation:  "생산 중단",
		Definition: "납기 준수 불가\n추가 설명",
		Cause:      "전력 과부하\n소화기 노후",
	}
	got := Fallback(in)
	assert.Equal(t, "생산 중단", got.Summary)
	assert.Equal(t, "납기 준수 불가", got.Problems[0])
	assert.Equal(t, "전력 과부하", got.RootCauses.Why1)
	assert.Equal(t, []int{35, 25, 25, 15}, got.SituationChart.Values)
	assert.Len(t, got.RootCauses.Chain(), 5)
	assert.Equal(t, Fallback(in), got, "fallback must be deterministic")

	empty := Fallback(model.ReportInput{})
	assert.Contains(t, empty.Summary, "제3공장")
	assert.Equal(t, "전력 과부하로 인한 화재 발생", empty.Problems[0])
	assert.Equal(t, "왜 화재가 발생했는가? → 전력 과부하", empty.RootCauses.Why1)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, false},
		{"prose around", `Here you go: {"a":"x"} Hope it helps {"b":2}`, `{"a":"x"}`, false},
		{"brace in string", `{"a":"}{","b":1}`, `{"a":"}{","b":1}`, false},
		{"escaped quote", `{"a":"say \"}\" now"}`, `{"a":"say \"}\" now"}`, false},
		{"none", "no json here", "", true},
		{"unbalanced", `{"a":{"b":1}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

const validResponse = "```json\n" + `{
  "summary": "요약입니다",
  "situationChart": {"labels": ["a", "b", "c"], "values": [1, 1, 2]},
  "problems": ["p1", "p2"],
  "rootCauses": {"why1": "1", "why2": "2", "why3": "3", "why4": "4", "why5": "5"},
  "solutionPriority": {"items": ["s1", "s2"], "urgency": [90.4, 70], "impact": [80, 60, 10]},
  "timeline": [{"task": "t", "start": "즉시", "end": "3일"}],
  "expectedResults": ["r1"]
}` + "\n```"

func TestParseAnalysis(t *testing.T) {
	got, err := ParseAnalysis(validResponse)
	require.NoError(t, err)
	assert.Equal(t, "요약입니다", got.Summary)
	assert.Equal(t, []string{"a", "b", "c"}, got.SituationChart.Labels)
	assert.Equal(t, []int{25, 25, 50}, got.SituationChart.Values)
	assert.Equal(t, "5", got.RootCauses.Why5)
	assert.Equal(t, []string{"s1", "s2"}, got.SolutionPriority.Items)
	assert.Equal(t, []int{90, 70}, got.SolutionPriority.Urgency)
	assert.Equal(t, []int{80, 60}, got.SolutionPriority.Impact)
	assert.False(t, got.Fallback)
}

func TestParseAnalysisRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no json", "sorry, I cannot help"},
		{"missing keys", `{"summary": "x"}`},
		{"wrong type", `{"summary": 1, "situationChart": {"labels": ["a"], "values": [1]}, "problems": [], "rootCauses": {"why1":"","why2":"","why3":"","why4":"","why5":""}, "solutionPriority": {"items": [], "urgency": [], "impact": []}, "timeline": [], "expectedResults": []}`},
		{"score out of range", `{"summary": "x", "situationChart": {"labels": ["a"], "values": [1]}, "problems": [], "rootCauses": {"why1":"","why2":"","why3":"","why4":"","why5":""}, "solutionPriority": {"items": ["a"], "urgency": [150], "impact": [1]}, "timeline": [], "expectedResults": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		in   []float64
		want []int
	}{
		{[]float64{35, 25, 25, 15}, []int{35, 25, 25, 15}},
		{[]float64{1, 1, 1}, []int{34, 33, 33}},
		{[]float64{0, 0}, []int{50, 50}},
		{[]float64{3, 1}, []int{75, 25}},
		{[]float64{}, []int{}},
	}
	for _, tt := range tests {
		got := NormalizeWeights(tt.in)
		assert.Equal(t, tt.want, got, "in=%v", tt.in)
		if len(got) > 0 {
			sum := 0
			for _, v := range got {
				sum += v
			}
			assert.Equal(t, 100, sum)
		}
	}
}
