package usecase

import (
	"context"
	"time"

	"peer-match/internal/tasks"

	"github.com/google/uuid"
)

// Cache is the slice of the Redis wrapper the usecases consume. All
// methods are best-effort; implementations degrade to no-ops when the
// backing store is unavailable.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidateActiveUsers(ctx context.Context) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

// TaskQueue decouples fire-and-forget work from the request path.
type TaskQueue interface {
	Submit(t tasks.Task)
}

// MatchScheduler is how the profile orchestrator kicks off match
// recomputation after a persisted profile change.
type MatchScheduler interface {
	ScheduleUpdate(userID uuid.UUID)
}
