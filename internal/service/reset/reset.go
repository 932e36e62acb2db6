// Package reset clears the day's shifts. The periodic trigger lives outside
// the service; this is the operation it calls.
package reset

import (
	"context"

	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
)

type store interface {
	View() *storage.View
}

type counter interface {
	Add(float64)
}

// Service runs the daily reset.
type Service struct {
	store   store
	logger  logx.Logger
	removed counter
}

// NewService creates a Service. removed may be nil.
func NewService(s store, logger logx.Logger, removed counter) *Service {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{store: s, logger: logger, removed: removed}
}

// Run removes every shift on every date from the backend that owns shifts
// under the active policy. It cannot be undone.
func (s *Service) Run(ctx context.Context) (int, error) {
	v := s.store.View()
	n, err := v.ResetShifts(ctx)
	if err != nil {
		s.logger.Error("shift reset failed", logx.String("policy", string(v.Policy())), logx.Err(err))
		return n, err
	}
	if s.removed != nil {
		s.removed.Add(float64(n))
	}
	s.logger.Info("shifts reset",
		logx.Event("shifts_reset"),
		logx.String("policy", string(v.Policy())),
		logx.Int("removed", n),
	)
	return n, nil
}
