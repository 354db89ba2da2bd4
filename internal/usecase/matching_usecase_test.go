package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"peer-match/internal/domain/matching"
	"peer-match/internal/domain/profile"

	"github.com/google/uuid"
)

// completeProfile builds an available profile whose two required slots
// carry the given embeddings.
func completeProfile(id uuid.UUID, whoYouAre, lookingFor []float64) *profile.Profile {
	p := profile.New(id)
	p.WhoYouAre.RawText = "someone"
	p.WhoYouAre.Embedding = whoYouAre
	p.WhoYouAreLookingFor.RawText = "someone else"
	p.WhoYouAreLookingFor.Embedding = lookingFor
	return p
}

func newMatching(repo *mockRepo, queue TaskQueue, cache Cache) *Matching {
	u := NewMatchingUsecase(repo, queue, cache, discardLogger())
	u.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return u
}

func TestFindMatches_MissingProfileHasNoMatches(t *testing.T) {
	u := newMatching(newMockRepo(), &recordingQueue{}, &mockCache{})

	got, err := u.FindMatches(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestFindMatches_IncompleteProfileHasNoMatches(t *testing.T) {
	userID := uuid.New()
	p := profile.New(userID)
	p.WhoYouAre.RawText = "only half filled in"
	repo := newMockRepo(p, completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1}))
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	got, err := u.FindMatches(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("incomplete profile must not match, got %d", len(got))
	}
}

func TestFindMatches_IncompleteProfileIgnoresStaleCache(t *testing.T) {
	userID := uuid.New()
	// Once complete and matched, then whoYouAre was cleared; the cached
	// list survives in storage until the background recompute lands.
	p := profile.New(userID)
	p.WhoYouAreLookingFor.RawText = "a mentor"
	p.WhoYouAreLookingFor.Embedding = []float64{1, 0}
	p.CachedMatches = []profile.CachedMatch{{
		PeerUserID: uuid.New(),
		Similarity: 0.88,
		MatchType:  string(matching.MatchMutual),
	}}
	repo := newMockRepo(p)
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	got, err := u.FindMatches(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("incomplete profile must not serve cached matches, got %d", len(got))
	}
}

func TestFindMatches_ServesCachedList(t *testing.T) {
	userID := uuid.New()
	p := completeProfile(userID, []float64{0, 1}, []float64{1, 0})
	p.CachedMatches = []profile.CachedMatch{{
		PeerUserID: uuid.New(),
		Similarity: 0.91,
		MatchType:  string(matching.MatchMutual),
	}}
	repo := newMockRepo(p, completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1}))
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	got, err := u.FindMatches(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].Similarity != 0.91 {
		t.Fatalf("expected cached list served verbatim, got %+v", got)
	}
	if repo.cachedMatchesCalls != 0 {
		t.Fatalf("cache hit must not recompute")
	}
}

func TestFindMatches_ComputesAndPersistsOnMiss(t *testing.T) {
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})

	mutualPeer := completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1})
	weakPeer := completeProfile(uuid.New(), []float64{0, 1}, []float64{1, 0})

	repo := newMockRepo(subject, mutualPeer, weakPeer)
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	got, err := u.FindMatches(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly the mutual peer, got %d entries", len(got))
	}
	m := got[0]
	if m.PeerUserID != mutualPeer.UserID {
		t.Fatalf("wrong peer matched: %s", m.PeerUserID)
	}
	if m.MatchType != string(matching.MatchMutual) {
		t.Fatalf("expected mutual, got %s", m.MatchType)
	}
	if math.Abs(m.Similarity-1.0) > 1e-9 {
		t.Fatalf("expected similarity 1.0, got %f", m.Similarity)
	}
	if !m.ComputedAt.Equal(u.now()) {
		t.Fatalf("computedAt not stamped: %v", m.ComputedAt)
	}

	if repo.cachedMatchesCalls != 1 {
		t.Fatalf("expected computed list persisted once, got %d", repo.cachedMatchesCalls)
	}
	if len(repo.profiles[userID].CachedMatches) != 1 {
		t.Fatalf("cached list not stored on profile")
	}
}

func TestFindMatches_RanksAndCapsResults(t *testing.T) {
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})

	// Peer i's whoYouAre drifts away from the subject's lookingFor as i
	// grows, so scores are distinct and strictly decreasing in i.
	repo := newMockRepo(subject)
	for i := 0; i < 12; i++ {
		peer := completeProfile(uuid.New(), []float64{1, 0.05 * float64(i)}, []float64{1, 1})
		repo.profiles[peer.UserID] = peer
	}

	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	got, err := u.FindMatches(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != matching.MaxMatches {
		t.Fatalf("expected cap at %d, got %d", matching.MaxMatches, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Fatalf("results not sorted descending at %d: %f > %f", i, got[i].Similarity, got[i-1].Similarity)
		}
	}
	for _, m := range got {
		if m.Similarity <= matching.SimilarityThreshold {
			t.Fatalf("entry below threshold leaked through: %f", m.Similarity)
		}
	}
}

func TestFindMatches_RequiresUser(t *testing.T) {
	u := newMatching(newMockRepo(), &recordingQueue{}, &mockCache{})
	if _, err := u.FindMatches(context.Background(), uuid.Nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdateUserMatches_OverwritesWholesaleAndSweeps(t *testing.T) {
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})
	subject.CachedMatches = []profile.CachedMatch{{PeerUserID: uuid.New(), Similarity: 0.99}}

	peer := completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1})
	peer.LastSeen = time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	repo := newMockRepo(subject, peer)
	queue := &recordingQueue{}
	u := newMatching(repo, queue, &mockCache{})

	if err := u.UpdateUserMatches(context.Background(), userID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	fresh := repo.profiles[userID].CachedMatches
	if len(fresh) != 1 || fresh[0].PeerUserID != peer.UserID {
		t.Fatalf("stale cached matches not replaced: %+v", fresh)
	}

	if len(queue.tasks) != 1 {
		t.Fatalf("expected exactly one sweep scheduled, got %d", len(queue.tasks))
	}

	// Running the sweep refreshes the recently-active peer without
	// scheduling further work.
	queue.tasks[0](context.Background())
	if len(queue.tasks) != 1 {
		t.Fatalf("sweep must not cascade into more tasks, got %d", len(queue.tasks))
	}
	peerMatches := repo.profiles[peer.UserID].CachedMatches
	if len(peerMatches) != 1 || peerMatches[0].PeerUserID != userID {
		t.Fatalf("peer cache not refreshed by sweep: %+v", peerMatches)
	}
}

func TestRecalculatePeers_SkipsWhenLockHeld(t *testing.T) {
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})
	peer := completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1})
	peer.LastSeen = time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC)

	repo := newMockRepo(subject, peer)
	u := newMatching(repo, &recordingQueue{}, &mockCache{lockHeld: true})

	u.recalculatePeers(context.Background(), userID)

	if repo.cachedMatchesCalls != 0 {
		t.Fatalf("locked sweep must not recompute, got %d writes", repo.cachedMatchesCalls)
	}
}

func TestRecalculatePeers_PeerFailureIsIsolated(t *testing.T) {
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})
	peerA := completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1})
	peerA.LastSeen = time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	peerB := completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1})
	peerB.LastSeen = time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC)

	repo := newMockRepo(subject, peerA, peerB)
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	// While the candidate pool is failing, every per-peer refresh errors;
	// the sweep must still run to completion rather than abort.
	repo.candidatesErr = errors.New("transient")
	u.recalculatePeers(context.Background(), userID)
	if repo.cachedMatchesCalls != 0 {
		t.Fatalf("expected no writes while candidates fail, got %d", repo.cachedMatchesCalls)
	}

	repo.candidatesErr = nil
	u.recalculatePeers(context.Background(), userID)
	if repo.cachedMatchesCalls != 2 {
		t.Fatalf("expected both peers refreshed once healthy, got %d writes", repo.cachedMatchesCalls)
	}
}

func TestRecalculatePeers_IgnoresStalePeers(t *testing.T) {
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})
	stale := completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1})
	stale.LastSeen = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	repo := newMockRepo(subject, stale)
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	u.recalculatePeers(context.Background(), userID)

	if repo.cachedMatchesCalls != 0 {
		t.Fatalf("peer outside the activity window must be skipped, got %d writes", repo.cachedMatchesCalls)
	}
}

func TestGetActiveUsers_FiltersAndMaps(t *testing.T) {
	me := uuid.New()
	self := profile.New(me)
	self.IsOnline = true

	online := profile.New(uuid.New())
	online.IsOnline = true
	online.LastSeen = time.Date(2025, 6, 1, 11, 55, 0, 0, time.UTC)

	offline := profile.New(uuid.New())
	offline.IsOnline = false

	unavailable := profile.New(uuid.New())
	unavailable.IsOnline = true
	unavailable.IsAvailableForChat = false

	repo := newMockRepo(self, online, offline, unavailable)
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	got, err := u.GetActiveUsers(context.Background(), me)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one active peer, got %d", len(got))
	}
	a := got[0]
	if a.UserID != online.UserID || !a.IsOnline || !a.IsAvailableForChat {
		t.Fatalf("unexpected active user: %+v", a)
	}
	if !a.LastSeen.Equal(online.LastSeen) {
		t.Fatalf("lastSeen not carried over")
	}
	if a.Visibility != profile.VisibilityPublic {
		t.Fatalf("visibility not carried over: %s", a.Visibility)
	}
}

func TestGetActiveUsers_RequiresUser(t *testing.T) {
	u := newMatching(newMockRepo(), &recordingQueue{}, &mockCache{})
	if _, err := u.GetActiveUsers(context.Background(), uuid.Nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestScheduleUpdate_RunsRecomputeInBackground(t *testing.T) {
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})
	peer := completeProfile(uuid.New(), []float64{1, 0}, []float64{0, 1})

	repo := newMockRepo(subject, peer)
	queue := &inlineQueue{}
	u := newMatching(repo, queue, &mockCache{})

	u.ScheduleUpdate(userID)

	if queue.submitted < 1 {
		t.Fatalf("expected work submitted to the queue")
	}
	if len(repo.profiles[userID].CachedMatches) != 1 {
		t.Fatalf("expected matches recomputed via the queue")
	}
}

func TestClassificationScoresSurviveRounding(t *testing.T) {
	// Guard against accidental clamping: a near-parallel pair should keep
	// its precise cosine as the stored similarity.
	userID := uuid.New()
	subject := completeProfile(userID, []float64{0, 1}, []float64{1, 0})
	peer := completeProfile(uuid.New(), []float64{2, 1}, []float64{0, 0})

	repo := newMockRepo(subject, peer)
	u := newMatching(repo, &recordingQueue{}, &mockCache{})

	got, err := u.FindMatches(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := 2 / math.Sqrt(5)
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}
	if math.Abs(got[0].Similarity-want) > 1e-9 {
		t.Fatalf("expected similarity %f, got %f", want, got[0].Similarity)
	}
	if got[0].MatchType != string(matching.MatchSeeking) {
		t.Fatalf("expected seeking, got %s", got[0].MatchType)
	}
}
