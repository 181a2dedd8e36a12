package report

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/yja/firesim/internal/model"
)

// ErrNoJSON is returned when a response contains no balanced JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

//go:embed analysis.schema.json
var schemaJSON []byte

const schemaURL = "schema://analysis.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func analysisSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal(schemaJSON, &def); err != nil {
			schemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ExtractJSON returns the first balanced {...} block in text. Braces inside
// JSON strings are ignored, so prose or code fences around the object are
// tolerated.
func ExtractJSON(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

type analysisWire struct {
	Summary        string `json:"summary"`
	SituationChart struct {
		Labels []string  `json:"labels"`
		Values []float64 `json:"values"`
	} `json:"situationChart"`
	Problems         []string       `json:"problems"`
	RootCauses       model.FiveWhys `json:"rootCauses"`
	SolutionPriority struct {
		Items   []string  `json:"items"`
		Urgency []float64 `json:"urgency"`
		Impact  []float64 `json:"impact"`
	} `json:"solutionPriority"`
	Timeline        []model.TimelineItem `json:"timeline"`
	ExpectedResults []string             `json:"expectedResults"`
}

// ParseAnalysis extracts, validates and decodes a summariser response.
// Chart weights are rescaled to sum to 100 and score lists are aligned
// with their items.
func ParseAnalysis(text string) (*model.AnalyzedReport, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := analysisSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var w analysisWire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	labels, values := w.SituationChart.Labels, w.SituationChart.Values
	n := min(len(labels), len(values))
	items := w.SolutionPriority.Items
	m := min(len(items), len(w.SolutionPriority.Urgency), len(w.SolutionPriority.Impact))

	return &model.AnalyzedReport{
		Summary: w.Summary,
		SituationChart: model.Chart{
			Labels: labels[:n],
			Values: NormalizeWeights(values[:n]),
		},
		Problems:   w.Problems,
		RootCauses: w.RootCauses,
		SolutionPriority: model.SolutionPriority{
			Items:   items[:m],
			Urgency: roundAll(w.SolutionPriority.Urgency[:m]),
			Impact:  roundAll(w.SolutionPriority.Impact[:m]),
		},
		Timeline:        w.Timeline,
		ExpectedResults: w.ExpectedResults,
	}, nil
}

// NormalizeWeights scales non-negative weights to integers summing to 100
// using the largest remainder method. All-zero input is split evenly.
func NormalizeWeights(ws []float64) []int {
	out := make([]int, len(ws))
	if len(ws) == 0 {
		return out
	}
	total := 0.0
	for _, w := range ws {
		total += w
	}
	if total <= 0 {
		ws = make([]float64, len(ws))
		for i := range ws {
			ws[i] = 1
		}
		total = float64(len(ws))
	}

	type rem struct {
		i int
		r float64
	}
	rems := make([]rem, len(ws))
	sum := 0
	for i, w := range ws {
		exact := w * 100 / total
		out[i] = int(math.Floor(exact))
		sum += out[i]
		rems[i] = rem{i, exact - math.Floor(exact)}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].r > rems[b].r })
	for k := 0; sum < 100; k++ {
		out[rems[k%len(rems)].i]++
		sum++
	}
	return out
}

func roundAll(fs []float64) []int {
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(math.Round(f))
	}
	return out
}
