package usecase

import (
	"context"
	"time"

	"peer-match/internal/domain/profile"
	"peer-match/internal/tasks"

	"github.com/google/uuid"
)

type mockRepo struct {
	profiles map[uuid.UUID]*profile.Profile

	getErr        error
	upsertErr     error
	candidatesErr error

	upsertCalls        int
	cachedMatchesCalls int
}

func newMockRepo(profiles ...*profile.Profile) *mockRepo {
	m := &mockRepo{profiles: map[uuid.UUID]*profile.Profile{}}
	for _, p := range profiles {
		m.profiles[p.UserID] = p
	}
	return m
}

func (m *mockRepo) Get(_ context.Context, userID uuid.UUID) (*profile.Profile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Upsert(_ context.Context, p *profile.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertCalls++
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, userID uuid.UUID, isOnline, isAvailableForChat bool, lastSeen time.Time) error {
	p, ok := m.profiles[userID]
	if !ok {
		return profile.ErrNotFound
	}
	p.IsOnline = isOnline
	p.IsAvailableForChat = isAvailableForChat
	p.LastSeen = lastSeen
	return nil
}

func (m *mockRepo) UpdateCachedMatches(_ context.Context, userID uuid.UUID, matches []profile.CachedMatch) error {
	p, ok := m.profiles[userID]
	if !ok {
		return profile.ErrNotFound
	}
	m.cachedMatchesCalls++
	p.CachedMatches = matches
	return nil
}

func (m *mockRepo) FindCandidates(_ context.Context, excludeUserID uuid.UUID) ([]*profile.Profile, error) {
	if m.candidatesErr != nil {
		return nil, m.candidatesErr
	}
	out := make([]*profile.Profile, 0)
	for _, p := range m.profiles {
		if p.UserID == excludeUserID || !p.IsAvailableForChat || !p.IsComplete() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepo) FindActive(_ context.Context, excludeUserID uuid.UUID, limit int) ([]*profile.Profile, error) {
	out := make([]*profile.Profile, 0)
	for _, p := range m.profiles {
		if p.UserID == excludeUserID || !p.IsOnline || !p.IsAvailableForChat {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockRepo) FindRecentlyActive(_ context.Context, excludeUserID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	for _, p := range m.profiles {
		if p.UserID == excludeUserID || !p.IsAvailableForChat {
			continue
		}
		if p.LastSeen.Before(since) {
			continue
		}
		out = append(out, p.UserID)
	}
	return out, nil
}

type mockExpander struct {
	err    error
	prefix string
	calls  int
}

func (m *mockExpander) Expand(_ context.Context, text string, _ profile.Slot) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.prefix + text, nil
}

type mockEmbedder struct {
	err     error
	vectors map[string][]float64
	calls   []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

type mockScheduler struct {
	scheduled []uuid.UUID
}

func (m *mockScheduler) ScheduleUpdate(userID uuid.UUID) {
	m.scheduled = append(m.scheduled, userID)
}

// inlineQueue runs submitted tasks synchronously so tests stay
// deterministic.
type inlineQueue struct {
	submitted int
}

func (q *inlineQueue) Submit(t tasks.Task) {
	q.submitted++
	t(context.Background())
}

// recordingQueue captures tasks without running them.
type recordingQueue struct {
	tasks []tasks.Task
}

func (q *recordingQueue) Submit(t tasks.Task) {
	q.tasks = append(q.tasks, t)
}

type mockCache struct {
	lockHeld bool
}

func (m *mockCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (m *mockCache) SetJSON(context.Context, string, any, time.Duration) error {
	return nil
}
func (m *mockCache) InvalidateActiveUsers(context.Context) error { return nil }
func (m *mockCache) SetIfNotExists(context.Context, string, string, time.Duration) (bool, error) {
	if m.lockHeld {
		return false, nil
	}
	return true, nil
}
