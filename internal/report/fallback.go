package report

import (
	"strings"

	"github.com/yja/firesim/internal/model"
)

// Fallback returns the canned analysis used whenever the summariser is
// unavailable. It depends only on in.
func Fallback(in model.ReportInput) *model.AnalyzedReport {
	return &model.AnalyzedReport{
		Summary: orDefault(in.Situation,
			"제3공장에서 화재가 발생하여 인명 피해와 설비 손상이 발생했습니다. 근본 원인 분석을 통해 재발 방지 대책을 수립했습니다."),
		SituationChart: model.Chart{
			Labels: []string{"설비 노후화", "안전교육 부족", "점검 미흡", "기타"},
			Values: []int{35, 25, 25, 15},
		},
		Problems: []string{
			orDefault(firstLine(in.Definition), "전력 과부하로 인한 화재 발생"),
			"소화기 미작동",
			"안전 매뉴얼 부재",
		},
		RootCauses: model.FiveWhys{
			Why1: orDefault(firstLine(in.Cause), "왜 화재가 발생했는가? → 전력 과부하"),
			Why2: "왜 과부하가 발생했는가? → 설비 노후화",
			Why3: "왜 설비가 노후화되었는가? → 정기 점검 미실시",
			Why4: "왜 점검을 하지 않았는가? → 점검 일정 관리 부재",
			Why5: "왜 관리가 안 되었는가? → 안전관리 시스템 미구축",
		},
		SolutionPriority: model.SolutionPriority{
			Items:   []string{"소화설비 교체", "안전교육 실시", "설비 증설"},
			Urgency: []int{95, 80, 60},
			Impact:  []int{90, 85, 70},
		},
		Timeline: []model.TimelineItem{
			{Task: "소화기 교체", Start: "즉시", End: "3일"},
			{Task: "안전 교육", Start: "1주차", End: "2주차"},
			{Task: "설비 증설", Start: "1개월", End: "3개월"},
		},
		ExpectedResults: []string{
			"화재 재발 방지율 95%",
			"안전사고 감소 80%",
			"설비 가동률 향상 20%",
		},
		Fallback: true,
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
