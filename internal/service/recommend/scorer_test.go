package recommend

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hive/internal/domain/recommend"
	"hive/internal/domain/social"
	"hive/internal/domain/space"
)

type fakeSource struct {
	activeUsers  []string
	profiles     map[string]*social.Profile
	events       []recommend.Event
	spaces       []space.Space
	people       []social.Profile
	seenEvents   map[string]map[string]struct{}
	memberships  map[string]map[string]struct{}
	followingSet map[string]map[string]struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		profiles:     make(map[string]*social.Profile),
		seenEvents:   make(map[string]map[string]struct{}),
		memberships:  make(map[string]map[string]struct{}),
		followingSet: make(map[string]map[string]struct{}),
	}
}

func (f *fakeSource) FindActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]string, error) {
	return f.activeUsers, nil
}

func (f *fakeSource) GetProfile(ctx context.Context, userID string) (*social.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, social.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeSource) FindUpcomingEvents(ctx context.Context, limit int) ([]recommend.Event, error) {
	return f.events, nil
}

func (f *fakeSource) FindJoinableSpaces(ctx context.Context, limit int) ([]space.Space, error) {
	return f.spaces, nil
}

func (f *fakeSource) FindCandidatePeople(ctx context.Context, userID string, limit int) ([]social.Profile, error) {
	return f.people, nil
}

func (f *fakeSource) EventInteractions(ctx context.Context, userID string) (map[string]struct{}, error) {
	return f.seenEvents[userID], nil
}

func (f *fakeSource) SpaceMemberships(ctx context.Context, userID string) (map[string]struct{}, error) {
	return f.memberships[userID], nil
}

func (f *fakeSource) FollowingSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	return f.followingSet[userID], nil
}

type fakeSink struct {
	mu    sync.Mutex
	lists map[string][]recommend.Recommendation
}

func newFakeSink() *fakeSink {
	return &fakeSink{lists: make(map[string][]recommend.Recommendation)}
}

func (f *fakeSink) ReplaceRecommendations(ctx context.Context, userID string, recs []recommend.Recommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[userID] = recs
	return nil
}

func testScorerConfig() ScorerConfig {
	return ScorerConfig{
		ActiveUserWindow:  30 * 24 * time.Hour,
		BatchLimit:        500,
		Concurrency:       10,
		MaxPerUser:        50,
		MinItemScore:      15,
		MinPersonScore:    20,
		InterestTagWeight: 12,
		SharedSpaceBonus:  25,
		MutualWeight:      5,
		MutualCap:         30,
		RecencyBonus:      5,
	}
}

func set(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestGenerateForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("scores matching events with reasons", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1", Interests: []string{"robotics", "music"}}
		source.events = []recommend.Event{
			{ID: "e1", Title: "Robot night", Tags: []string{"robotics"}, StartsAt: time.Now().Add(24 * time.Hour)},
			{ID: "e2", Title: "Chess", Tags: []string{"chess"}, StartsAt: time.Now().Add(24 * time.Hour)},
		}
		sink := newFakeSink()

		require.NoError(t, NewScorer(source, sink, testScorerConfig()).GenerateForUser(ctx, "u1"))

		recs := sink.lists["u1"]
		require.Len(t, recs, 1)
		assert.Equal(t, "e1", recs[0].ItemID)
		assert.Equal(t, recommend.ItemEvent, recs[0].ItemType)
		// One interest match plus the happening-soon bonus.
		assert.InDelta(t, 17.0, recs[0].Score, 1e-9)
		assert.Contains(t, recs[0].Reasons, "Matches 1 of your interests")
		assert.Contains(t, recs[0].Reasons, "Happening soon")
	})

	t.Run("excludes already seen events", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1", Interests: []string{"robotics"}}
		source.events = []recommend.Event{
			{ID: "e1", Tags: []string{"robotics", "tech"}, StartsAt: time.Now().Add(24 * time.Hour)},
		}
		source.seenEvents["u1"] = set("e1")
		sink := newFakeSink()

		require.NoError(t, NewScorer(source, sink, testScorerConfig()).GenerateForUser(ctx, "u1"))
		assert.Empty(t, sink.lists["u1"])
	})

	t.Run("excludes joined spaces and scores friend membership", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1"}
		source.followingSet["u1"] = set("f1", "f2", "f3")
		source.memberships["u1"] = set("s-joined")
		source.spaces = []space.Space{
			{ID: "s-joined", Members: []string{"f1", "f2", "f3"}},
			{ID: "s-new", Members: []string{"f1", "f2", "f3"}, IsSurging: true},
		}
		sink := newFakeSink()

		require.NoError(t, NewScorer(source, sink, testScorerConfig()).GenerateForUser(ctx, "u1"))

		recs := sink.lists["u1"]
		require.Len(t, recs, 1)
		assert.Equal(t, "s-new", recs[0].ItemID)
		// 3 friends * 5 + surge bonus 5.
		assert.InDelta(t, 20.0, recs[0].Score, 1e-9)
		assert.Contains(t, recs[0].Reasons, "3 people you follow are members")
		assert.Contains(t, recs[0].Reasons, "Surging right now")
	})

	t.Run("below threshold items are dropped", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1"}
		source.spaces = []space.Space{{ID: "s1", IsSurging: true}} // score 5 < 15
		sink := newFakeSink()

		require.NoError(t, NewScorer(source, sink, testScorerConfig()).GenerateForUser(ctx, "u1"))
		assert.Empty(t, sink.lists["u1"])
	})

	t.Run("people use the higher threshold", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1", Interests: []string{"robotics"}, Major: "CS"}
		source.people = []social.Profile{
			// 1 shared interest (12) + same major (5) = 17 < 20: dropped.
			{UserID: "p1", Interests: []string{"robotics"}, Major: "CS"},
			// 2 shared interests (24): kept.
			{UserID: "p2", Interests: []string{"robotics", "hiking"}, Major: "Bio"},
		}
		source.profiles["u1"].Interests = []string{"robotics", "hiking"}
		sink := newFakeSink()

		require.NoError(t, NewScorer(source, sink, testScorerConfig()).GenerateForUser(ctx, "u1"))

		recs := sink.lists["u1"]
		require.Len(t, recs, 1)
		assert.Equal(t, "p2", recs[0].ItemID)
		assert.Equal(t, recommend.ItemPerson, recs[0].ItemType)
	})

	t.Run("excludes already followed people", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1", Interests: []string{"a", "b", "c"}}
		source.followingSet["u1"] = set("p1")
		source.people = []social.Profile{{UserID: "p1", Interests: []string{"a", "b", "c"}}}
		sink := newFakeSink()

		require.NoError(t, NewScorer(source, sink, testScorerConfig()).GenerateForUser(ctx, "u1"))
		assert.Empty(t, sink.lists["u1"])
	})

	t.Run("mutual connection weight is capped", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1"}

		var shared []string
		for i := 0; i < 10; i++ {
			shared = append(shared, fmt.Sprintf("m%d", i))
		}
		source.followingSet["u1"] = set(shared...)
		source.followingSet["p1"] = set(shared...)
		source.people = []social.Profile{{UserID: "p1"}}
		sink := newFakeSink()

		require.NoError(t, NewScorer(source, sink, testScorerConfig()).GenerateForUser(ctx, "u1"))

		recs := sink.lists["u1"]
		require.Len(t, recs, 1)
		// 10 mutuals * 5 would be 50; the cap holds it at 30.
		assert.InDelta(t, 30.0, recs[0].Score, 1e-9)
	})

	t.Run("results are ranked by score and capped", func(t *testing.T) {
		source := newFakeSource()
		source.profiles["u1"] = &social.Profile{UserID: "u1", Interests: []string{"a"}}
		for i := 0; i < 60; i++ {
			source.events = append(source.events, recommend.Event{
				ID:       fmt.Sprintf("e%d", i),
				Tags:     []string{"a"},
				StartsAt: time.Now().Add(time.Duration(100+i) * time.Hour),
			})
		}
		// One event scores higher via popularity.
		source.events[30].Popularity = 100
		sink := newFakeSink()

		cfg := testScorerConfig()
		cfg.MinItemScore = 10
		require.NoError(t, NewScorer(source, sink, cfg).GenerateForUser(ctx, "u1"))

		recs := sink.lists["u1"]
		require.Len(t, recs, 50)
		assert.Equal(t, "e30", recs[0].ItemID)
		for i, r := range recs {
			assert.Equal(t, i+1, r.Rank)
			if i > 0 {
				assert.LessOrEqual(t, r.Score, recs[i-1].Score)
			}
		}
	})
}

func TestRunDaily(t *testing.T) {
	ctx := context.Background()

	t.Run("generates for every active user", func(t *testing.T) {
		source := newFakeSource()
		source.activeUsers = []string{"u1", "u2", "u3"}
		for _, id := range source.activeUsers {
			source.profiles[id] = &social.Profile{UserID: id, Interests: []string{"a", "b"}}
		}
		source.events = []recommend.Event{{ID: "e1", Tags: []string{"a", "b"}, StartsAt: time.Now().Add(200 * time.Hour)}}
		sink := newFakeSink()

		n, err := NewScorer(source, sink, testScorerConfig()).RunDaily(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, n)
		assert.Len(t, sink.lists, 3)
	})

	t.Run("a failing user does not abort the batch", func(t *testing.T) {
		source := newFakeSource()
		source.activeUsers = []string{"u1", "missing", "u3"}
		source.profiles["u1"] = &social.Profile{UserID: "u1", Interests: []string{"a", "b"}}
		source.profiles["u3"] = &social.Profile{UserID: "u3", Interests: []string{"a", "b"}}
		source.events = []recommend.Event{{ID: "e1", Tags: []string{"a", "b"}, StartsAt: time.Now().Add(200 * time.Hour)}}
		sink := newFakeSink()

		n, err := NewScorer(source, sink, testScorerConfig()).RunDaily(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, n)
		assert.Contains(t, sink.lists, "u1")
		assert.Contains(t, sink.lists, "u3")
		assert.NotContains(t, sink.lists, "missing")
	})
}
