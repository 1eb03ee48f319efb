package memstore

import (
	"context"
	"time"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) ScheduleTask(ctx context.Context, t *types.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextID++
		t.ID = s.nextID
	}
	cp := *t
	s.tasks = append(s.tasks, &cp)
	return nil
}

// ClaimNextTask selects the earliest-scheduled task with ScheduledTime <= now
// and removes it, mimicking the skip-locked-then-delete pattern the
// production claim query uses to hand a task to exactly one worker.
func (s *Store) ClaimNextTask(ctx context.Context, now time.Time) (*types.ScheduledTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := -1
	for i, t := range s.tasks {
		if t.ScheduledTime.After(now) {
			continue
		}
		if best == -1 || t.ScheduledTime.Before(s.tasks[best].ScheduledTime) {
			best = i
		}
	}
	if best == -1 {
		return nil, store.ErrNotFound
	}
	claimed := s.tasks[best]
	s.tasks = append(s.tasks[:best], s.tasks[best+1:]...)
	cp := *claimed
	return &cp, nil
}
