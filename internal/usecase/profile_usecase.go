package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"peer-match/internal/ai"
	"peer-match/internal/domain/profile"
	"peer-match/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Per-profile-update concurrency for expansion+embedding calls; slots are
// independent I/O-bound calls to the same provider.
const slotConcurrency = 4

type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
	ApplyEdits(ctx context.Context, userID uuid.UUID, edits map[profile.Slot]string) (*profile.Profile, error)
	Reprocess(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, isOnline, isAvailableForChat bool) error
}

// Profiles coordinates the profile update pipeline: normalize -> expand ->
// embed -> persist -> schedule match recomputation. Provider failures
// degrade matching quality per slot but never fail the save.
type Profiles struct {
	repo     repository.ProfileRepository
	expander ai.TextExpander
	embedder ai.EmbeddingProvider
	matches  MatchScheduler
	cache    Cache
	logger   *log.Logger

	now func() time.Time
}

func NewProfileUsecase(
	repo repository.ProfileRepository,
	expander ai.TextExpander,
	embedder ai.EmbeddingProvider,
	matches MatchScheduler,
	cache Cache,
	logger *log.Logger,
) *Profiles {
	if logger == nil {
		logger = log.Default()
	}
	return &Profiles{
		repo:     repo,
		expander: expander,
		embedder: embedder,
		matches:  matches,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// GetProfile returns the user's profile, creating an empty one on first
// access.
func (u *Profiles) GetProfile(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return u.getOrCreate(ctx, userID)
}

// ApplyEdits normalizes and stores the edited slots, runs the expand+embed
// pipeline for each non-empty one, persists the profile document once, and
// schedules match recomputation in the background.
func (u *Profiles) ApplyEdits(ctx context.Context, userID uuid.UUID, edits map[profile.Slot]string) (*profile.Profile, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if len(edits) == 0 {
		return nil, ErrInvalidInput
	}
	for s := range edits {
		if !profile.ValidSlot(s) {
			return nil, ErrInvalidInput
		}
	}

	p, err := u.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	queued := make([]profile.Slot, 0, len(edits))
	for s, raw := range edits {
		clean := profile.Normalize(raw)
		f := p.Field(s)
		f.RawText = clean
		f.LastUpdated = now
		// raw text changed: the old expansion and embedding are stale
		f.ExpandedText = ""
		f.Embedding = nil
		if clean != "" {
			queued = append(queued, s)
		}
	}

	u.enrichSlots(ctx, userID, p, queued)

	if err := u.repo.Upsert(ctx, p); err != nil {
		u.logger.Printf("[Profile] upsert failed user=%s err=%v", userID, err)
		return nil, ErrInternal
	}

	u.matches.ScheduleUpdate(userID)
	return p, nil
}

// Reprocess re-runs the expand+embed pipeline over every slot that has raw
// text, picking up expander improvements without the user re-typing.
func (u *Profiles) Reprocess(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	p, err := u.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	queued := make([]profile.Slot, 0, len(profile.AllSlots))
	for _, s := range profile.AllSlots {
		if strings.TrimSpace(p.Field(s).RawText) != "" {
			queued = append(queued, s)
		}
	}

	u.enrichSlots(ctx, userID, p, queued)

	if err := u.repo.Upsert(ctx, p); err != nil {
		u.logger.Printf("[Profile] upsert failed user=%s err=%v", userID, err)
		return nil, ErrInternal
	}

	u.matches.ScheduleUpdate(userID)
	return p, nil
}

// UpdateStatus stores the status flags and refreshes last_seen; any cached
// active-user listing is invalidated.
func (u *Profiles) UpdateStatus(ctx context.Context, userID uuid.UUID, isOnline, isAvailableForChat bool) error {
	if userID == uuid.Nil {
		return ErrUnauthorized
	}

	if err := u.repo.UpdateStatus(ctx, userID, isOnline, isAvailableForChat, u.now().UTC()); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			p := profile.New(userID)
			p.IsOnline = isOnline
			p.IsAvailableForChat = isAvailableForChat
			p.LastSeen = u.now().UTC()
			if err := u.repo.Upsert(ctx, p); err != nil {
				u.logger.Printf("[Profile] upsert failed user=%s err=%v", userID, err)
				return ErrInternal
			}
		} else {
			u.logger.Printf("[Profile] status update failed user=%s err=%v", userID, err)
			return ErrInternal
		}
	}

	if u.cache != nil {
		if err := u.cache.InvalidateActiveUsers(ctx); err != nil {
			u.logger.Printf("[Profile] active-users cache invalidation failed: %v", err)
		}
	}
	return nil
}

// enrichSlots runs expansion and embedding for the queued slots
// concurrently. Each slot fails independently: a failed expansion falls
// back to the normalized raw text, a failed embedding leaves the slot
// without one. All slots settle before the caller persists, so a
// concurrent matcher never reads a half-written document.
func (u *Profiles) enrichSlots(ctx context.Context, userID uuid.UUID, p *profile.Profile, queued []profile.Slot) {
	if len(queued) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(slotConcurrency)

	for _, s := range queued {
		s := s
		g.Go(func() error {
			f := p.Field(s)
			clean := f.RawText

			expanded, err := u.expander.Expand(gctx, clean, s)
			if err != nil || strings.TrimSpace(expanded) == "" {
				if err != nil {
					u.logger.Printf("[Profile] expansion fallback user=%s slot=%s err=%v", userID, s, err)
				}
				expanded = clean
			}

			emb, err := u.embedder.Embed(gctx, expanded)
			if err != nil {
				u.logger.Printf("[Profile] embedding unavailable user=%s slot=%s err=%v", userID, s, err)
				emb = nil
			}

			f.ExpandedText = expanded
			f.Embedding = emb
			return nil
		})
	}

	// tasks never return errors; Wait only orders the writes
	_ = g.Wait()
}

func (u *Profiles) getOrCreate(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	p, err := u.repo.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, profile.ErrNotFound) {
		u.logger.Printf("[Profile] load failed user=%s err=%v", userID, err)
		return nil, ErrInternal
	}

	p = profile.New(userID)
	if err := u.repo.Upsert(ctx, p); err != nil {
		u.logger.Printf("[Profile] lazy create failed user=%s err=%v", userID, err)
		return nil, ErrInternal
	}
	return p, nil
}
