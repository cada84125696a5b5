package audit

import (
	"context"
	"time"

	"focus-guard/agent/internal/models"
)

// Summary aggregates the usage history of a window.
type Summary struct {
	Window     time.Duration           `json:"window"`
	Total      int                     `json:"total"`
	ByAction   map[models.Action]int   `json:"byAction"`
	ByPlatform map[models.Platform]int `json:"byPlatform"`
	Reasons    int                     `json:"reasons"`
}

// Summarize counts history entries by action and platform. Reasons counts
// accountability entries over the same window.
func (l *Log) Summarize(ctx context.Context, window time.Duration) (Summary, error) {
	s := Summary{
		Window:     window,
		ByAction:   map[models.Action]int{},
		ByPlatform: map[models.Platform]int{},
	}
	history, err := l.History(ctx, window)
	if err != nil {
		return s, err
	}
	for _, e := range history {
		s.Total++
		s.ByAction[e.Action]++
		if e.Platform != "" {
			s.ByPlatform[e.Platform]++
		}
	}
	reasons, err := l.BypassReasons(ctx, window)
	if err != nil {
		return s, err
	}
	s.Reasons = len(reasons)
	return s, nil
}
