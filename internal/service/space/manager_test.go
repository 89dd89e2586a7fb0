package space

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hive/internal/domain/space"
)

type fakeStore struct {
	spaces map[string]*space.Space
}

func newFakeStore(spaces ...*space.Space) *fakeStore {
	f := &fakeStore{spaces: make(map[string]*space.Space)}
	for _, s := range spaces {
		f.spaces[s.ID] = s
	}
	return f
}

func (f *fakeStore) SaveSpace(ctx context.Context, s space.Space) error {
	cp := s
	f.spaces[s.ID] = &cp
	return nil
}

func (f *fakeStore) GetSpace(ctx context.Context, id string) (*space.Space, error) {
	s, ok := f.spaces[id]
	if !ok {
		return nil, space.ErrSpaceNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) FindSpaces(ctx context.Context, filter space.Filter) ([]space.Space, error) {
	var out []space.Space
	for _, s := range f.spaces {
		if len(filter.LifecycleStates) > 0 {
			match := false
			for _, st := range filter.LifecycleStates {
				if s.LifecycleState == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if !filter.ActiveBefore.IsZero() {
			if s.LastActivityAt != nil && !s.LastActivityAt.Before(filter.ActiveBefore) {
				continue
			}
		}
		out = append(out, *s)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) SetLifecycleState(ctx context.Context, spaceID string, state space.LifecycleState) error {
	f.spaces[spaceID].LifecycleState = state
	return nil
}

func (f *fakeStore) TouchActivity(ctx context.Context, spaceID string, at time.Time) error {
	f.spaces[spaceID].LastActivityAt = &at
	return nil
}

type publishedEvent struct {
	subject string
	payload interface{}
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PublishEvent(subject string, payload interface{}) {
	f.events = append(f.events, publishedEvent{subject: subject, payload: payload})
}

func newTestManager(t *testing.T, window time.Duration, spaces ...*space.Space) (*Manager, *fakeStore, *fakePublisher) {
	t.Helper()
	store := newFakeStore(spaces...)
	publisher := &fakePublisher{}
	m := NewManager(store, publisher, ManagerConfig{
		EventsTopic:    "hive.space",
		DormancyWindow: window,
		SweepLimit:     100,
	})
	return m, store, publisher
}

func stateSpace(id string, state space.LifecycleState, lastActivity *time.Time) *space.Space {
	return &space.Space{
		ID:             id,
		Name:           "Quad",
		SpaceType:      space.TypeCommunity,
		LifecycleState: state,
		LastActivityAt: lastActivity,
		CreatedAt:      time.Now().Add(-30 * 24 * time.Hour),
	}
}

func TestActivateOnFirstTool(t *testing.T) {
	ctx := context.Background()

	t.Run("created space becomes active", func(t *testing.T) {
		m, store, publisher := newTestManager(t, 14*24*time.Hour, stateSpace("s1", space.StateCreated, nil))

		require.NoError(t, m.ActivateOnFirstTool(ctx, "s1", time.Now()))

		assert.Equal(t, space.StateActive, store.spaces["s1"].LifecycleState)
		assert.NotNil(t, store.spaces["s1"].LastActivityAt)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, "hive.space.s1.lifecycle", publisher.events[0].subject)
	})

	t.Run("already active space only gets an activity bump", func(t *testing.T) {
		m, store, publisher := newTestManager(t, 14*24*time.Hour, stateSpace("s1", space.StateActive, nil))

		require.NoError(t, m.ActivateOnFirstTool(ctx, "s1", time.Now()))

		assert.Equal(t, space.StateActive, store.spaces["s1"].LifecycleState)
		assert.Empty(t, publisher.events)
	})
}

func TestMarkActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("dormant space is re-promoted", func(t *testing.T) {
		old := time.Now().Add(-20 * 24 * time.Hour)
		m, store, publisher := newTestManager(t, 14*24*time.Hour, stateSpace("s1", space.StateDormant, &old))

		require.NoError(t, m.MarkActivity(ctx, "s1", time.Now()))

		assert.Equal(t, space.StateActive, store.spaces["s1"].LifecycleState)
		require.Len(t, publisher.events, 1)
	})

	t.Run("created space stays created", func(t *testing.T) {
		m, store, _ := newTestManager(t, 14*24*time.Hour, stateSpace("s1", space.StateCreated, nil))

		require.NoError(t, m.MarkActivity(ctx, "s1", time.Now()))

		assert.Equal(t, space.StateCreated, store.spaces["s1"].LifecycleState)
	})
}

func TestArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("active space can be archived", func(t *testing.T) {
		m, store, _ := newTestManager(t, 14*24*time.Hour, stateSpace("s1", space.StateActive, nil))

		require.NoError(t, m.Archive(ctx, "s1", "admin"))
		assert.Equal(t, space.StateArchived, store.spaces["s1"].LifecycleState)
	})

	t.Run("archiving twice is a no-op", func(t *testing.T) {
		m, _, publisher := newTestManager(t, 14*24*time.Hour, stateSpace("s1", space.StateArchived, nil))

		require.NoError(t, m.Archive(ctx, "s1", "admin"))
		assert.Empty(t, publisher.events)
	})
}

func TestRunDormancySweep(t *testing.T) {
	ctx := context.Background()
	window := 14 * 24 * time.Hour

	t.Run("idle active space is demoted", func(t *testing.T) {
		old := time.Now().Add(-15 * 24 * time.Hour)
		m, store, publisher := newTestManager(t, window, stateSpace("s1", space.StateActive, &old))

		demoted, err := m.RunDormancySweep(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, demoted)
		assert.Equal(t, space.StateDormant, store.spaces["s1"].LifecycleState)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, "hive.space.s1.lifecycle", publisher.events[0].subject)
	})

	t.Run("recent activity keeps a space active", func(t *testing.T) {
		recent := time.Now().Add(-10 * 24 * time.Hour)
		m, store, _ := newTestManager(t, window, stateSpace("s1", space.StateActive, &recent))

		demoted, err := m.RunDormancySweep(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, demoted)
		assert.Equal(t, space.StateActive, store.spaces["s1"].LifecycleState)
	})

	t.Run("active space with no recorded activity is demoted", func(t *testing.T) {
		m, store, _ := newTestManager(t, window, stateSpace("s1", space.StateActive, nil))

		demoted, err := m.RunDormancySweep(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, demoted)
		assert.Equal(t, space.StateDormant, store.spaces["s1"].LifecycleState)
	})

	t.Run("created and dormant spaces are never matched", func(t *testing.T) {
		old := time.Now().Add(-60 * 24 * time.Hour)
		m, store, _ := newTestManager(t, window,
			stateSpace("s1", space.StateCreated, nil),
			stateSpace("s2", space.StateDormant, &old),
		)

		demoted, err := m.RunDormancySweep(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, demoted)
		assert.Equal(t, space.StateCreated, store.spaces["s1"].LifecycleState)
		assert.Equal(t, space.StateDormant, store.spaces["s2"].LifecycleState)
	})

	t.Run("running the sweep twice demotes once", func(t *testing.T) {
		old := time.Now().Add(-15 * 24 * time.Hour)
		m, _, publisher := newTestManager(t, window, stateSpace("s1", space.StateActive, &old))

		first, err := m.RunDormancySweep(ctx)
		require.NoError(t, err)
		second, err := m.RunDormancySweep(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
		assert.Len(t, publisher.events, 1)
	})
}

func TestLifecycleHandlers(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, 14*24*time.Hour, stateSpace("s1", space.StateCreated, nil))

	var seen []space.LifecycleState
	m.RegisterLifecycleHandler(func(s space.Space, state space.LifecycleState) error {
		seen = append(seen, state)
		return nil
	})

	require.NoError(t, m.ActivateOnFirstTool(ctx, "s1", time.Now()))
	assert.Equal(t, []space.LifecycleState{space.StateActive}, seen)
}

func TestProvision(t *testing.T) {
	ctx := context.Background()
	m, store, publisher := newTestManager(t, 14*24*time.Hour)

	sp, err := m.Provision(ctx, "Hall Council", "Residence hall programming", space.TypeResidential)
	require.NoError(t, err)

	assert.Equal(t, space.StateCreated, sp.LifecycleState)
	assert.NotEmpty(t, sp.ID)
	assert.NotEmpty(t, sp.DefaultTools)
	assert.Contains(t, store.spaces, sp.ID)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "hive.space."+sp.ID+".created", publisher.events[0].subject)
}
