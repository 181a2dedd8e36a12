package store

import (
	"context"
	"fmt"
	"time"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/session"
)

// ExportSession builds the export document for one session.
func (s *Store) ExportSession(ctx context.Context, r session.Registry, sessionID string) (*model.SessionExport, error) {
	cfg, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	participants, err := s.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := &model.SessionExport{
		Session:      *cfg,
		CreatedAt:    cfg.CreatedAt,
		ExportedAt:   time.Now().UTC(),
		Participants: make([]model.ParticipantExport, 0, len(participants)),
	}
	for _, p := range participants {
		out.Participants = append(out.Participants, model.ParticipantExport{
			Name:        p.Profile.Name,
			TeamID:      p.Profile.TeamID,
			Step:        p.State.Step,
			JoinedAt:    p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
			Facts:       p.State.CollectedFacts,
			Gap:         p.State.Gap,
			RootCauses:  p.State.RootCauses,
			Solutions:   p.State.Solutions,
			FinalReport: p.State.FinalReport,
		})
	}
	return out, nil
}
