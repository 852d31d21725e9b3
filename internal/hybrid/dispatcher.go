// Package hybrid is the fallback-capable façade in front of the two
// data sources. Every domain operation attempts the retrier-wrapped
// remote store first and transparently re-issues against the local
// cache on failure, preserving the same return and error shapes.
// Connectivity failures never surface to callers; only a failing
// fallback does.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dorm-occupancy-backend/internal/lifecycle"
	"dorm-occupancy-backend/internal/localcache"
	"dorm-occupancy-backend/internal/metrics"
	"dorm-occupancy-backend/internal/model"
	"dorm-occupancy-backend/internal/retry"
	"dorm-occupancy-backend/internal/store"
)

// ErrFallbackExhausted marks operations where both the remote and the
// local path failed.
var ErrFallbackExhausted = errors.New("both remote store and local fallback failed")

// DefaultPollInterval is the local-cache polling cadence used when
// push subscriptions are unavailable.
const DefaultPollInterval = 3 * time.Second

// Dispatcher routes domain operations. The remote store is injected
// at construction and may be nil when the adapter failed to
// initialize; there is no late-bound discovery of it.
type Dispatcher struct {
	remote       store.Store
	local        *localcache.Cache
	retrier      *retry.Retrier
	pollInterval time.Duration
}

// NewDispatcher wires the dispatcher. remote may be nil; local must
// not be.
func NewDispatcher(remote store.Store, local *localcache.Cache, retrier *retry.Retrier, pollInterval time.Duration) *Dispatcher {
	if retrier == nil {
		retrier = retry.New()
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Dispatcher{remote: remote, local: local, retrier: retrier, pollInterval: pollInterval}
}

// tryRemote runs op through the retrier when a remote store exists.
// The bool reports whether the remote result should be used;
// validation and not-found failures surface as-is since re-issuing
// them locally would fail identically.
func (d *Dispatcher) tryRemote(ctx context.Context, name string, op func(context.Context) error) (bool, error) {
	if d.remote == nil {
		return false, nil
	}
	err := d.retrier.Do(ctx, op)
	if err == nil {
		return true, nil
	}
	if store.IsValidation(err) || store.IsNotFound(err) {
		return true, err
	}
	log.Printf("Warning: remote %s failed, falling back to local cache: %v", name, err)
	metrics.FallbackActivations.Inc()
	return false, err
}

func (d *Dispatcher) exhausted(op string, remoteErr, localErr error) error {
	return fmt.Errorf("%w: %s: remote: %v, local: %v", ErrFallbackExhausted, op, remoteErr, localErr)
}

// --- Workers ---

func (d *Dispatcher) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	var out []model.Worker
	used, err := d.tryRemote(ctx, "ListWorkers", func(ctx context.Context) error {
		var e error
		out, e = d.remote.ListWorkers(ctx)
		return e
	})
	if used {
		return out, err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return nil, d.exhausted("ListWorkers", err, ierr)
	}
	workers, lerr := d.local.ListWorkers()
	if lerr != nil {
		return nil, d.exhausted("ListWorkers", err, lerr)
	}
	return workers, nil
}

func (d *Dispatcher) CreateWorker(ctx context.Context, req model.CreateWorkerRequest) (string, error) {
	var id string
	used, err := d.tryRemote(ctx, "CreateWorker", func(ctx context.Context) error {
		var e error
		id, e = d.remote.CreateWorker(ctx, req)
		return e
	})
	if used {
		return id, err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return "", d.exhausted("CreateWorker", err, ierr)
	}
	id, lerr := d.local.CreateWorker(req)
	if lerr != nil {
		if store.IsValidation(lerr) {
			return "", lerr
		}
		return "", d.exhausted("CreateWorker", err, lerr)
	}
	return id, nil
}

func (d *Dispatcher) UpdateWorker(ctx context.Context, id string, upd model.UpdateWorkerRequest) error {
	used, err := d.tryRemote(ctx, "UpdateWorker", func(ctx context.Context) error {
		return d.remote.UpdateWorker(ctx, id, upd)
	})
	if used {
		return err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return d.exhausted("UpdateWorker", err, ierr)
	}
	lerr := d.local.UpdateWorker(id, upd)
	if lerr != nil && !store.IsValidation(lerr) && !store.IsNotFound(lerr) {
		return d.exhausted("UpdateWorker", err, lerr)
	}
	return lerr
}

func (d *Dispatcher) DeleteWorker(ctx context.Context, id string) error {
	used, err := d.tryRemote(ctx, "DeleteWorker", func(ctx context.Context) error {
		return d.remote.DeleteWorker(ctx, id)
	})
	if used {
		return err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return d.exhausted("DeleteWorker", err, ierr)
	}
	lerr := d.local.DeleteWorker(id)
	if lerr != nil && !store.IsNotFound(lerr) {
		return d.exhausted("DeleteWorker", err, lerr)
	}
	return lerr
}

func (d *Dispatcher) FixWorkerRoomData(ctx context.Context) (lifecycle.RepairReport, error) {
	var report lifecycle.RepairReport
	used, err := d.tryRemote(ctx, "FixWorkerRoomData", func(ctx context.Context) error {
		var e error
		report, e = d.remote.FixWorkerRoomData(ctx)
		return e
	})
	if used {
		return report, err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return lifecycle.RepairReport{}, d.exhausted("FixWorkerRoomData", err, ierr)
	}
	report, lerr := d.local.FixWorkerRoomData()
	if lerr != nil {
		return lifecycle.RepairReport{}, d.exhausted("FixWorkerRoomData", err, lerr)
	}
	return report, nil
}

// --- Rooms and dorms ---

func (d *Dispatcher) ListRooms(ctx context.Context) ([]model.Room, error) {
	var out []model.Room
	used, err := d.tryRemote(ctx, "ListRooms", func(ctx context.Context) error {
		var e error
		out, e = d.remote.ListRooms(ctx)
		return e
	})
	if used {
		return out, err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return nil, d.exhausted("ListRooms", err, ierr)
	}
	rooms, lerr := d.local.ListRooms()
	if lerr != nil {
		return nil, d.exhausted("ListRooms", err, lerr)
	}
	return rooms, nil
}

func (d *Dispatcher) ListDorms(ctx context.Context) ([]model.Dorm, error) {
	var out []model.Dorm
	used, err := d.tryRemote(ctx, "ListDorms", func(ctx context.Context) error {
		var e error
		out, e = d.remote.ListDorms(ctx)
		return e
	})
	if used {
		return out, err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return nil, d.exhausted("ListDorms", err, ierr)
	}
	dorms, lerr := d.local.ListDorms()
	if lerr != nil {
		return nil, d.exhausted("ListDorms", err, lerr)
	}
	return dorms, nil
}

// Snapshot loads the three collections the statistics aggregator
// consumes. Each list is a fresh read-only snapshot.
func (d *Dispatcher) Snapshot(ctx context.Context) ([]model.Worker, []model.Room, []model.Dorm, error) {
	workers, err := d.ListWorkers(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	rooms, err := d.ListRooms(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	dorms, err := d.ListDorms(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return workers, rooms, dorms, nil
}

// --- Admin users ---

func (d *Dispatcher) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var out []model.AdminUser
	used, err := d.tryRemote(ctx, "ListAdmins", func(ctx context.Context) error {
		var e error
		out, e = d.remote.ListAdmins(ctx)
		return e
	})
	if used {
		return out, err
	}

	if ierr := d.local.Initialize(); ierr != nil {
		return nil, d.exhausted("ListAdmins", err, ierr)
	}
	users, lerr := d.local.ListAdmins()
	if lerr != nil {
		return nil, d.exhausted("ListAdmins", err, lerr)
	}
	return users, nil
}

// CreateAdmin and DeleteAdmin have no offline analog; account changes
// require the remote store.
func (d *Dispatcher) CreateAdmin(ctx context.Context, user model.AdminUser) (string, error) {
	if d.remote == nil {
		return "", &store.Error{Kind: store.KindTransient, Reason: store.ReasonUnavailable,
			Op: "hybrid.CreateAdmin", Err: errors.New("remote store unavailable")}
	}
	var id string
	err := d.retrier.Do(ctx, func(ctx context.Context) error {
		var e error
		id, e = d.remote.CreateAdmin(ctx, user)
		return e
	})
	return id, err
}

func (d *Dispatcher) DeleteAdmin(ctx context.Context, id string) error {
	if d.remote == nil {
		return &store.Error{Kind: store.KindTransient, Reason: store.ReasonUnavailable,
			Op: "hybrid.DeleteAdmin", Err: errors.New("remote store unavailable")}
	}
	return d.retrier.Do(ctx, func(ctx context.Context) error {
		return d.remote.DeleteAdmin(ctx, id)
	})
}

// --- Subscriptions ---

// SubscribeWorkers prefers the remote push subscription and falls
// back to polling the local cache. The returned handle stops either
// path; no callbacks fire after it returns.
func (d *Dispatcher) SubscribeWorkers(onData func([]model.Worker), onError func(error)) store.Unsubscribe {
	if d.remote != nil {
		return d.remote.SubscribeWorkers(onData, onError)
	}
	return d.poll(func() {
		if err := d.local.Initialize(); err != nil {
			onError(err)
			return
		}
		workers, err := d.local.ListWorkers()
		if err != nil {
			onError(err)
			return
		}
		onData(workers)
	})
}

// SubscribeRooms mirrors SubscribeWorkers for the rooms collection.
func (d *Dispatcher) SubscribeRooms(onData func([]model.Room), onError func(error)) store.Unsubscribe {
	if d.remote != nil {
		return d.remote.SubscribeRooms(onData, onError)
	}
	return d.poll(func() {
		if err := d.local.Initialize(); err != nil {
			onError(err)
			return
		}
		rooms, err := d.local.ListRooms()
		if err != nil {
			onError(err)
			return
		}
		onData(rooms)
	})
}

func (d *Dispatcher) poll(deliver func()) store.Unsubscribe {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(d.pollInterval)
		defer ticker.Stop()
		deliver()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				deliver()
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}
