// Package report assembles a team's final report and enriches it with
// chart-ready analysis.
package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/stage"
)

// ErrDisabled is returned while the admin has not opened report submission.
var ErrDisabled = errors.New("report submission is disabled for this session")

// Summarizer derives an analysis from the eight report fields.
type Summarizer interface {
	Summarize(ctx context.Context, in model.ReportInput) (*model.AnalyzedReport, error)
}

// Assembler builds FinalReportData from a student's state and report form.
type Assembler struct {
	summarizer Summarizer
	timeout    time.Duration
}

// NewAssembler returns an Assembler. A nil summarizer always uses Fallback.
// A zero timeout means the caller's context alone bounds the call.
func NewAssembler(s Summarizer, timeout time.Duration) *Assembler {
	return &Assembler{summarizer: s, timeout: timeout}
}

// Assemble validates the form and attaches an analysis. Summariser failures
// are logged and replaced by Fallback; only ErrDisabled, validation errors
// and cancellation of ctx itself are returned.
func (a *Assembler) Assemble(ctx context.Context, cfg model.SessionConfig, form stage.ReportForm) (model.FinalReportData, error) {
	if !cfg.ReportEnabled {
		return model.FinalReportData{}, ErrDisabled
	}
	report, err := form.Validate()
	if err != nil {
		return model.FinalReportData{}, err
	}
	analysis, err := a.analyze(ctx, report.Input())
	if err != nil {
		return model.FinalReportData{}, err
	}
	report.Analysis = analysis
	return report, nil
}

func (a *Assembler) analyze(ctx context.Context, in model.ReportInput) (*model.AnalyzedReport, error) {
	if a.summarizer == nil {
		return Fallback(in), nil
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	analysis, err := a.summarizer.Summarize(callCtx, in)
	if err == nil && analysis == nil {
		err = errors.New("summarizer returned no analysis")
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("report summarization failed, using fallback", "error", err, "elapsed", time.Since(start))
		return Fallback(in), nil
	}
	slog.Debug("report summarized", "elapsed", time.Since(start))
	return analysis, nil
}
