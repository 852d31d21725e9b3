package hybrid

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dorm-occupancy-backend/internal/lifecycle"
	"dorm-occupancy-backend/internal/localcache"
	"dorm-occupancy-backend/internal/model"
	"dorm-occupancy-backend/internal/retry"
	"dorm-occupancy-backend/internal/store"
)

// downStore fails every operation with a transient error while
// counting the calls it receives.
type downStore struct {
	calls atomic.Int64
}

func (s *downStore) fail(op string) error {
	s.calls.Add(1)
	return &store.Error{Kind: store.KindTransient, Reason: store.ReasonOffline,
		Op: op, Err: errors.New("connection refused")}
}

func (s *downStore) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	return nil, s.fail("store.ListWorkers")
}

func (s *downStore) GetWorker(ctx context.Context, id string) (model.Worker, error) {
	return model.Worker{}, s.fail("store.GetWorker")
}

func (s *downStore) CreateWorker(ctx context.Context, req model.CreateWorkerRequest) (string, error) {
	return "", s.fail("store.CreateWorker")
}

func (s *downStore) UpdateWorker(ctx context.Context, id string, upd model.UpdateWorkerRequest) error {
	return s.fail("store.UpdateWorker")
}

func (s *downStore) DeleteWorker(ctx context.Context, id string) error {
	return s.fail("store.DeleteWorker")
}

func (s *downStore) FixWorkerRoomData(ctx context.Context) (lifecycle.RepairReport, error) {
	return lifecycle.RepairReport{}, s.fail("store.FixWorkerRoomData")
}

func (s *downStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	return nil, s.fail("store.ListRooms")
}

func (s *downStore) ListDorms(ctx context.Context) ([]model.Dorm, error) {
	return nil, s.fail("store.ListDorms")
}

func (s *downStore) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	return nil, s.fail("store.ListAdmins")
}

func (s *downStore) CreateAdmin(ctx context.Context, user model.AdminUser) (string, error) {
	return "", s.fail("store.CreateAdmin")
}

func (s *downStore) DeleteAdmin(ctx context.Context, id string) error {
	return s.fail("store.DeleteAdmin")
}

func (s *downStore) SubscribeWorkers(onData func([]model.Worker), onError func(error)) store.Unsubscribe {
	return func() {}
}

func (s *downStore) SubscribeRooms(onData func([]model.Room), onError func(error)) store.Unsubscribe {
	return func() {}
}

func (s *downStore) DB() *gorm.DB { return nil }

func newTestLocal(t *testing.T) *localcache.Cache {
	c, err := localcache.Open(":memory:")
	require.NoError(t, err)
	return c
}

func fastRetrier() *retry.Retrier {
	return &retry.Retrier{Attempts: 2, Schedule: []time.Duration{time.Millisecond}}
}

func TestDispatcher_FallsBackOnRemoteFailure(t *testing.T) {
	remote := &downStore{}
	d := NewDispatcher(remote, newTestLocal(t), fastRetrier(), time.Second)

	workers, err := d.ListWorkers(context.Background())
	require.NoError(t, err)
	assert.Len(t, workers, 6) // seeded sample set

	// Two attempts before the fallback.
	assert.Equal(t, int64(2), remote.calls.Load())
}

func TestDispatcher_NilRemoteServesLocal(t *testing.T) {
	d := NewDispatcher(nil, newTestLocal(t), fastRetrier(), time.Second)
	ctx := context.Background()

	workers, rooms, dorms, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, workers, 6)
	assert.Len(t, rooms, 20)
	assert.Len(t, dorms, 2)
}

func TestDispatcher_MutationsSurviveFallback(t *testing.T) {
	d := NewDispatcher(&downStore{}, newTestLocal(t), fastRetrier(), time.Second)
	ctx := context.Background()

	id, err := d.CreateWorker(ctx, model.CreateWorkerRequest{
		FullName: "Khalid Nasser",
		DormID:   "dorm_male",
		RoomID:   "room_male_4",
	})
	require.NoError(t, err)

	workers, err := d.ListWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 7)

	found := false
	for _, w := range workers {
		if w.ID == id {
			found = true
		}
	}
	assert.True(t, found)

	require.NoError(t, d.DeleteWorker(ctx, id))
	workers, err = d.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Len(t, workers, 6)
}

func TestDispatcher_ValidationDoesNotFallBack(t *testing.T) {
	d := NewDispatcher(nil, newTestLocal(t), fastRetrier(), time.Second)

	_, err := d.CreateWorker(context.Background(), model.CreateWorkerRequest{FullName: "No Room"})
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))
	assert.False(t, errors.Is(err, ErrFallbackExhausted))
}

func TestDispatcher_NotFoundSurfaces(t *testing.T) {
	d := NewDispatcher(nil, newTestLocal(t), fastRetrier(), time.Second)

	err := d.UpdateWorker(context.Background(), "worker_ghost", model.UpdateWorkerRequest{})
	assert.True(t, store.IsNotFound(err))

	err = d.DeleteWorker(context.Background(), "worker_ghost")
	assert.True(t, store.IsNotFound(err))
}

func TestDispatcher_AdminMutationsRequireRemote(t *testing.T) {
	d := NewDispatcher(nil, newTestLocal(t), fastRetrier(), time.Second)

	_, err := d.CreateAdmin(context.Background(), model.AdminUser{Email: "admin@example.com"})
	require.Error(t, err)
	assert.True(t, store.IsTransient(err))

	err = d.DeleteAdmin(context.Background(), "user_1")
	require.Error(t, err)
	assert.True(t, store.IsTransient(err))

	// Reads still work offline.
	users, err := d.ListAdmins(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestDispatcher_RepairFallsBack(t *testing.T) {
	d := NewDispatcher(&downStore{}, newTestLocal(t), fastRetrier(), time.Second)

	report, err := d.FixWorkerRoomData(context.Background())
	require.NoError(t, err)
	// The seeded sample set has no orphans.
	assert.Equal(t, 0, report.Fixed)
	assert.Empty(t, report.Errors)
}

func TestDispatcher_PollingSubscription(t *testing.T) {
	d := NewDispatcher(nil, newTestLocal(t), fastRetrier(), 10*time.Millisecond)

	got := make(chan int, 16)
	unsubscribe := d.SubscribeWorkers(func(workers []model.Worker) {
		select {
		case got <- len(workers):
		default:
		}
	}, func(err error) {
		t.Errorf("unexpected subscription error: %v", err)
	})

	select {
	case n := <-got:
		assert.Equal(t, 6, n)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the initial poll delivery")
	}

	// Unsubscribing twice must be safe.
	unsubscribe()
	unsubscribe()
}
