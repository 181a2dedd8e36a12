package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yja/firesim/internal/llm/prompts"
	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/report"
)

// Client summarises reports with a Provider. It implements report.Summarizer.
type Client struct {
	provider Provider
	prompts  *prompts.Set
	lang     string
}

var _ report.Summarizer = (*Client)(nil)

// New creates a Client that writes prompts in lang.
func New(p Provider, set *prompts.Set, lang string) *Client {
	return &Client{provider: p, prompts: set, lang: lang}
}

// Summarize sends the report to the model and parses its JSON answer.
func (c *Client) Summarize(ctx context.Context, in model.ReportInput) (*model.AnalyzedReport, error) {
	prompt, err := c.prompts.BuildReportPrompt(c.lang, in)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}
	raw, err := c.provider.Complete(ctx, prompts.System, prompt)
	if err != nil {
		return nil, err
	}
	analysis, err := report.ParseAnalysis(raw)
	if err != nil {
		slog.Debug("unparseable LLM response", "provider", c.provider.Name(), "raw", raw)
		return nil, fmt.Errorf("parse %s response: %w", c.provider.Name(), err)
	}
	return analysis, nil
}
