package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"peer-match/internal/domain/matching"
	"peer-match/internal/domain/profile"
	"peer-match/internal/repository"

	"github.com/google/uuid"
)

const (
	// recalcWindow bounds the cache-invalidation sweep to recently-active
	// peers; matches for anyone else go stale until they next interact.
	recalcWindow = 24 * time.Hour

	activeUsersLimit    = 20
	activeUsersCacheTTL = 30 * time.Second
	recalcLockTTL       = time.Minute
)

type ActiveUser struct {
	UserID             uuid.UUID
	IsOnline           bool
	IsAvailableForChat bool
	LastSeen           time.Time
	Visibility         profile.Visibility
}

type MatchingUsecase interface {
	FindMatches(ctx context.Context, userID uuid.UUID) ([]profile.CachedMatch, error)
	GetActiveUsers(ctx context.Context, excludeUserID uuid.UUID) ([]ActiveUser, error)
	UpdateUserMatches(ctx context.Context, userID uuid.UUID) error
	ScheduleUpdate(userID uuid.UUID)
}

// Matching computes pairwise match scores between a subject profile and
// the candidate pool, maintains each profile's cached match list, and runs
// the best-effort recalculation sweep over recently-active peers.
type Matching struct {
	repo   repository.ProfileRepository
	queue  TaskQueue
	cache  Cache
	logger *log.Logger

	now func() time.Time
}

func NewMatchingUsecase(repo repository.ProfileRepository, queue TaskQueue, cache Cache, logger *log.Logger) *Matching {
	if logger == nil {
		logger = log.Default()
	}
	return &Matching{
		repo:   repo,
		queue:  queue,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// FindMatches serves the cached match list when one exists and recomputes
// on demand otherwise. Missing or incomplete profiles have no matches and
// no error; completeness is checked before the cache so a profile that
// lost a required slot never serves its stale list.
func (u *Matching) FindMatches(ctx context.Context, userID uuid.UUID) ([]profile.CachedMatch, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	p, err := u.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return []profile.CachedMatch{}, nil
		}
		return nil, err
	}

	if !p.IsComplete() {
		return []profile.CachedMatch{}, nil
	}

	if len(p.CachedMatches) > 0 {
		return p.CachedMatches, nil
	}

	results, err := u.computeMatches(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := u.repo.UpdateCachedMatches(ctx, userID, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// UpdateUserMatches recomputes and overwrites the user's cached matches
// wholesale, then schedules the peer recalculation sweep in the
// background.
func (u *Matching) UpdateUserMatches(ctx context.Context, userID uuid.UUID) error {
	if err := u.refreshMatches(ctx, userID); err != nil {
		return err
	}

	u.queue.Submit(func(ctx context.Context) {
		u.recalculatePeers(ctx, userID)
	})
	return nil
}

// ScheduleUpdate enqueues UpdateUserMatches fire-and-forget; the request
// path never waits on match recomputation.
func (u *Matching) ScheduleUpdate(userID uuid.UUID) {
	u.queue.Submit(func(ctx context.Context) {
		if err := u.UpdateUserMatches(ctx, userID); err != nil {
			u.logger.Printf("[Matches] background update failed user=%s err=%v", userID, err)
		}
	})
}

// GetActiveUsers lists online, available peers ordered by last_seen
// descending, capped and briefly cached.
func (u *Matching) GetActiveUsers(ctx context.Context, excludeUserID uuid.UUID) ([]ActiveUser, error) {
	if excludeUserID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	key := "active-users:" + excludeUserID.String()
	if u.cache != nil {
		var cached []ActiveUser
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	profiles, err := u.repo.FindActive(ctx, excludeUserID, activeUsersLimit)
	if err != nil {
		return nil, err
	}

	out := make([]ActiveUser, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ActiveUser{
			UserID:             p.UserID,
			IsOnline:           p.IsOnline,
			IsAvailableForChat: p.IsAvailableForChat,
			LastSeen:           p.LastSeen,
			Visibility:         p.Visibility,
		})
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, out, activeUsersCacheTTL); err != nil {
			u.logger.Printf("[Matches] active-users cache write failed: %v", err)
		}
	}
	return out, nil
}

// refreshMatches is the sweep-safe recompute: it never re-triggers the
// fan-out, so one profile update causes exactly one sweep.
func (u *Matching) refreshMatches(ctx context.Context, userID uuid.UUID) error {
	p, err := u.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil
		}
		return err
	}

	results, err := u.computeMatches(ctx, p)
	if err != nil {
		return err
	}
	return u.repo.UpdateCachedMatches(ctx, userID, results)
}

// recalculatePeers re-runs match computation for every other available
// profile seen within recalcWindow. Sequential on purpose: it bounds load
// on the embedding-backed store, and one peer's failure never aborts the
// batch.
func (u *Matching) recalculatePeers(ctx context.Context, updatedUserID uuid.UUID) {
	if u.cache != nil {
		key := "matches:recalc:" + updatedUserID.String()
		ok, err := u.cache.SetIfNotExists(ctx, key, "1", recalcLockTTL)
		if err == nil && !ok {
			return
		}
	}

	since := u.now().UTC().Add(-recalcWindow)
	ids, err := u.repo.FindRecentlyActive(ctx, updatedUserID, since)
	if err != nil {
		u.logger.Printf("[Matches] recalculation sweep aborted user=%s err=%v", updatedUserID, err)
		return
	}

	for _, id := range ids {
		if err := u.refreshMatches(ctx, id); err != nil {
			u.logger.Printf("[Matches] peer recompute failed user=%s err=%v", id, err)
		}
	}
}

// computeMatches scores the subject against the candidate pool and returns
// the ranked, thresholded match list. Incomplete subjects match nobody.
func (u *Matching) computeMatches(ctx context.Context, subject *profile.Profile) ([]profile.CachedMatch, error) {
	if !subject.IsComplete() {
		return []profile.CachedMatch{}, nil
	}

	candidates, err := u.repo.FindCandidates(ctx, subject.UserID)
	if err != nil {
		return nil, err
	}

	entries := make([]matching.Entry, 0, len(candidates))
	for _, c := range candidates {
		scores := matching.PairScores{
			Seeking:  matching.Cosine(subject.WhoYouAreLookingFor.Embedding, c.WhoYouAre.Embedding),
			Offering: matching.Cosine(subject.WhoYouAre.Embedding, c.WhoYouAreLookingFor.Embedding),
			Subjects: matching.Cosine(subject.MentoringSubjects.Embedding, c.MentoringSubjects.Embedding),
			Services: matching.Cosine(subject.ProfessionalServices.Embedding, c.ProfessionalServices.Embedding),
		}
		entries = append(entries, matching.Entry{
			PeerID:         c.UserID,
			Classification: matching.Classify(scores),
		})
	}

	ranked := matching.Rank(entries)
	computedAt := u.now().UTC()

	out := make([]profile.CachedMatch, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, profile.CachedMatch{
			PeerUserID: e.PeerID,
			Similarity: e.Score,
			MatchType:  string(e.Type),
			Reasons:    e.Reasons,
			ComputedAt: computedAt,
		})
	}
	return out, nil
}
