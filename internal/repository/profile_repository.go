package repository

import (
	"context"
	"time"

	"peer-match/internal/domain/profile"

	"github.com/google/uuid"
)

// ProfileRepository is the persistence surface the orchestrator and the
// match engine consume. Get returns profile.ErrNotFound for unknown users;
// Upsert writes the whole profile document in one statement so concurrent
// matchers never observe partial-slot writes.
type ProfileRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
	Upsert(ctx context.Context, p *profile.Profile) error

	UpdateStatus(ctx context.Context, userID uuid.UUID, isOnline, isAvailableForChat bool, lastSeen time.Time) error
	UpdateCachedMatches(ctx context.Context, userID uuid.UUID, matches []profile.CachedMatch) error

	// FindCandidates lists other profiles that are available for chat and
	// have both required slots filled in.
	FindCandidates(ctx context.Context, excludeUserID uuid.UUID) ([]*profile.Profile, error)

	// FindActive lists other online, available profiles ordered by
	// last_seen descending.
	FindActive(ctx context.Context, excludeUserID uuid.UUID, limit int) ([]*profile.Profile, error)

	// FindRecentlyActive lists ids of other available profiles seen since
	// the given time, for the match recalculation sweep.
	FindRecentlyActive(ctx context.Context, excludeUserID uuid.UUID, since time.Time) ([]uuid.UUID, error)
}
