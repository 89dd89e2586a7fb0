package builderflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hive/internal/domain/builder"
	"hive/internal/domain/space"
)

type fakeRequestStore struct {
	requests map[string]builder.Request
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[string]builder.Request)}
}

func (f *fakeRequestStore) SaveRequest(ctx context.Context, r builder.Request) error {
	f.requests[r.ID] = r
	return nil
}

func (f *fakeRequestStore) GetRequest(ctx context.Context, id string) (*builder.Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeRequestStore) FindActiveRequest(ctx context.Context, userID, spaceID string) (*builder.Request, error) {
	for _, r := range f.requests {
		if r.UserID == userID && r.SpaceID == spaceID && r.Active() {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) FindRequestsForSpace(ctx context.Context, spaceID string) ([]builder.Request, error) {
	var out []builder.Request
	for _, r := range f.requests {
		if r.SpaceID == spaceID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSpaceStore struct {
	spaces map[string]*space.Space
}

func newFakeSpaceStore(spaces ...*space.Space) *fakeSpaceStore {
	f := &fakeSpaceStore{spaces: make(map[string]*space.Space)}
	for _, s := range spaces {
		f.spaces[s.ID] = s
	}
	return f
}

func (f *fakeSpaceStore) GetSpace(ctx context.Context, id string) (*space.Space, error) {
	s, ok := f.spaces[id]
	if !ok {
		return nil, space.ErrSpaceNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSpaceStore) AddBuilder(ctx context.Context, spaceID string, b space.Builder) error {
	f.spaces[spaceID].Builders = append(f.spaces[spaceID].Builders, b)
	return nil
}

type notification struct {
	userID string
	kind   string
}

type fakeNotifier struct {
	userNotes  []notification
	adminNotes []string
}

func (f *fakeNotifier) NotifyUser(userID, kind, title, body string, data map[string]interface{}) {
	f.userNotes = append(f.userNotes, notification{userID: userID, kind: kind})
}

func (f *fakeNotifier) NotifyAdmins(kind, title, body string, data map[string]interface{}) {
	f.adminNotes = append(f.adminNotes, kind)
}

func newTestWorkflow(t *testing.T, spaces ...*space.Space) (*Workflow, *fakeRequestStore, *fakeSpaceStore, *fakeNotifier) {
	t.Helper()
	requests := newFakeRequestStore()
	store := newFakeSpaceStore(spaces...)
	notifier := &fakeNotifier{}
	return NewWorkflow(requests, store, notifier), requests, store, notifier
}

func testSpace(id string, builders ...space.Builder) *space.Space {
	return &space.Space{
		ID:             id,
		Name:           "CS Lounge",
		SpaceType:      space.TypeAcademic,
		LifecycleState: space.StateCreated,
		Builders:       builders,
		CreatedAt:      time.Now(),
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending request", func(t *testing.T) {
		w, requests, _, notifier := newTestWorkflow(t, testSpace("s1"))

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard, Message: "hi"})
		require.NoError(t, err)

		assert.Equal(t, builder.StatusPending, req.Status)
		assert.False(t, req.RequiresExtraAttention)
		assert.Len(t, requests.requests, 1)
		assert.Empty(t, notifier.adminNotes)
	})

	t.Run("rejects a second active request for the same pair", func(t *testing.T) {
		w, _, _, _ := newTestWorkflow(t, testSpace("s1"))

		_, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)

		_, err = w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		assert.ErrorIs(t, err, builder.ErrDuplicateRequest)
	})

	t.Run("allows a new request after a denial", func(t *testing.T) {
		w, _, _, _ := newTestWorkflow(t, testSpace("s1"))

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)
		require.NoError(t, w.Review(ctx, req.ID, "admin", builder.DecisionDeny, ""))

		_, err = w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		assert.NoError(t, err)
	})

	t.Run("same user can request different spaces", func(t *testing.T) {
		w, _, _, _ := newTestWorkflow(t, testSpace("s1"), testSpace("s2"))

		_, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)
		_, err = w.Submit(ctx, "u1", "s2", Submission{RequestType: builder.RequestStandard})
		assert.NoError(t, err)
	})

	t.Run("rejects when builder slots are full", func(t *testing.T) {
		full := testSpace("s1",
			space.Builder{UserID: "b1", Role: space.RolePrimary},
			space.Builder{UserID: "b2", Role: space.RoleSecondary},
			space.Builder{UserID: "b3", Role: space.RoleSecondary},
			space.Builder{UserID: "b4", Role: space.RoleSecondary},
		)
		w, _, _, _ := newTestWorkflow(t, full)

		_, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		assert.ErrorIs(t, err, builder.ErrBuilderLimit)
	})

	t.Run("ra requests are flagged and escalated", func(t *testing.T) {
		w, _, _, notifier := newTestWorkflow(t, testSpace("s1"))

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestRA})
		require.NoError(t, err)

		assert.True(t, req.RequiresExtraAttention)
		require.Len(t, notifier.adminNotes, 1)
		assert.Equal(t, "builder_request_attention", notifier.adminNotes[0])
	})

	t.Run("orientation leader requests are flagged", func(t *testing.T) {
		w, _, _, notifier := newTestWorkflow(t, testSpace("s1"))

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestOrientationLeader})
		require.NoError(t, err)

		assert.True(t, req.RequiresExtraAttention)
		assert.Len(t, notifier.adminNotes, 1)
	})

	t.Run("missing space surfaces the storage error", func(t *testing.T) {
		w, _, _, _ := newTestWorkflow(t)

		_, err := w.Submit(ctx, "u1", "nope", Submission{RequestType: builder.RequestStandard})
		assert.ErrorIs(t, err, space.ErrSpaceNotFound)
	})
}

func TestReview(t *testing.T) {
	ctx := context.Background()

	t.Run("first approval grants the primary role", func(t *testing.T) {
		w, requests, store, notifier := newTestWorkflow(t, testSpace("s1"))

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)
		require.NoError(t, w.Review(ctx, req.ID, "admin", builder.DecisionApprove, "lgtm"))

		saved := requests.requests[req.ID]
		assert.Equal(t, builder.StatusApproved, saved.Status)
		assert.Equal(t, "admin", saved.ReviewedBy)
		assert.NotNil(t, saved.ReviewedAt)

		sp := store.spaces["s1"]
		require.Len(t, sp.Builders, 1)
		assert.Equal(t, space.RolePrimary, sp.Builders[0].Role)

		require.Len(t, notifier.userNotes, 1)
		assert.Equal(t, notification{userID: "u1", kind: "builder_request_approved"}, notifier.userNotes[0])
	})

	t.Run("later approvals grant the secondary role", func(t *testing.T) {
		w, _, store, _ := newTestWorkflow(t, testSpace("s1", space.Builder{UserID: "b1", Role: space.RolePrimary}))

		req, err := w.Submit(ctx, "u2", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)
		require.NoError(t, w.Review(ctx, req.ID, "admin", builder.DecisionApprove, ""))

		sp := store.spaces["s1"]
		require.Len(t, sp.Builders, 2)
		assert.Equal(t, space.RoleSecondary, sp.Builders[1].Role)
	})

	t.Run("denial records the decision and notifies", func(t *testing.T) {
		w, requests, store, notifier := newTestWorkflow(t, testSpace("s1"))

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)
		require.NoError(t, w.Review(ctx, req.ID, "admin", builder.DecisionDeny, "not yet"))

		saved := requests.requests[req.ID]
		assert.Equal(t, builder.StatusDenied, saved.Status)
		assert.Equal(t, "not yet", saved.ReviewNotes)
		assert.Empty(t, store.spaces["s1"].Builders)

		require.Len(t, notifier.userNotes, 1)
		assert.Equal(t, "builder_request_denied", notifier.userNotes[0].kind)
	})

	t.Run("unknown request", func(t *testing.T) {
		w, _, _, _ := newTestWorkflow(t, testSpace("s1"))

		err := w.Review(ctx, "missing", "admin", builder.DecisionApprove, "")
		assert.ErrorIs(t, err, builder.ErrRequestNotFound)
	})

	t.Run("reviewing twice fails", func(t *testing.T) {
		w, _, _, _ := newTestWorkflow(t, testSpace("s1"))

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)
		require.NoError(t, w.Review(ctx, req.ID, "admin", builder.DecisionApprove, ""))

		err = w.Review(ctx, req.ID, "admin", builder.DecisionDeny, "")
		assert.ErrorIs(t, err, builder.ErrAlreadyReviewed)
	})

	t.Run("approval fails when slots filled after submission", func(t *testing.T) {
		sp := testSpace("s1",
			space.Builder{UserID: "b1", Role: space.RolePrimary},
			space.Builder{UserID: "b2", Role: space.RoleSecondary},
			space.Builder{UserID: "b3", Role: space.RoleSecondary},
		)
		w, _, store, _ := newTestWorkflow(t, sp)

		req, err := w.Submit(ctx, "u1", "s1", Submission{RequestType: builder.RequestStandard})
		require.NoError(t, err)

		// Fourth slot taken while the request sat in review.
		store.spaces["s1"].Builders = append(store.spaces["s1"].Builders,
			space.Builder{UserID: "b4", Role: space.RoleSecondary})

		err = w.Review(ctx, req.ID, "admin", builder.DecisionApprove, "")
		assert.ErrorIs(t, err, builder.ErrBuilderLimit)
	})
}
