package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"dorm-occupancy-backend/internal/lifecycle"
	"dorm-occupancy-backend/internal/model"
)

// gormStore implements Store against the remote document database.
// Timestamps are stamped here, on the store side of the wire, so
// ordering stays well-defined even when dashboard clients carry
// skewed clocks.
type gormStore struct {
	db       *gorm.DB
	hub      *hub
	onChange func(collection string)
}

// NewGormStore creates a database-backed store. onChange, if non-nil,
// is invoked after every committed mutation with the name of each
// changed collection; the notification layer hooks in there.
func NewGormStore(db *gorm.DB, onChange func(collection string)) Store {
	return &gormStore{db: db, hub: newHub(), onChange: onChange}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) changed(collections ...string) {
	for _, c := range collections {
		s.hub.broadcast(c)
		if s.onChange != nil {
			s.onChange(c)
		}
	}
}

// --- Reads ---

func (s *gormStore) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	var workers []model.Worker
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&workers).Error; err != nil {
		return nil, Classify("store.ListWorkers", err)
	}
	return workers, nil
}

func (s *gormStore) GetWorker(ctx context.Context, id string) (model.Worker, error) {
	var worker model.Worker
	err := s.db.WithContext(ctx).First(&worker, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Worker{}, NewNotFoundError("store.GetWorker", id)
	}
	if err != nil {
		return model.Worker{}, Classify("store.GetWorker", err)
	}
	return worker, nil
}

func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, Classify("store.ListRooms", err)
	}
	return rooms, nil
}

func (s *gormStore) ListDorms(ctx context.Context) ([]model.Dorm, error) {
	var dorms []model.Dorm
	if err := s.db.WithContext(ctx).Find(&dorms).Error; err != nil {
		return nil, Classify("store.ListDorms", err)
	}
	return dorms, nil
}

// --- Worker lifecycle ---

func (s *gormStore) CreateWorker(ctx context.Context, req model.CreateWorkerRequest) (string, error) {
	const op = "store.CreateWorker"
	if err := lifecycle.ValidateCreate(req); err != nil {
		return "", NewValidationError(op, err.Error())
	}

	worker := lifecycle.NewWorker(req, time.Now().UTC())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&worker).Error; err != nil {
			return err
		}
		// Missing room documents are skipped on purpose: the worker
		// record still lands and the repair pass reconciles later.
		applyRoomDelta(tx, lifecycle.RoomDelta{RoomID: worker.RoomID, Delta: +1})
		return nil
	})
	if err != nil {
		return "", Classify(op, err)
	}

	s.changed(CollectionWorkers, CollectionRooms)
	return worker.ID, nil
}

func (s *gormStore) UpdateWorker(ctx context.Context, id string, upd model.UpdateWorkerRequest) error {
	const op = "store.UpdateWorker"
	current, err := s.GetWorker(ctx, id)
	if err != nil {
		return err
	}

	plan, err := lifecycle.PlanUpdate(current, upd)
	if err != nil {
		return NewValidationError(op, err.Error())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&plan.Worker).Error; err != nil {
			return err
		}
		for _, d := range plan.Deltas {
			applyRoomDelta(tx, d)
		}
		return nil
	})
	if err != nil {
		return Classify(op, err)
	}

	s.changed(CollectionWorkers, CollectionRooms)
	return nil
}

func (s *gormStore) DeleteWorker(ctx context.Context, id string) error {
	const op = "store.DeleteWorker"
	current, err := s.GetWorker(ctx, id)
	if err != nil {
		return err
	}

	deltas := lifecycle.PlanDelete(current)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range deltas {
			applyRoomDelta(tx, d)
		}
		return tx.Delete(&model.Worker{}, "id = ?", id).Error
	})
	if err != nil {
		return Classify(op, err)
	}

	s.changed(CollectionWorkers, CollectionRooms)
	return nil
}

// FixWorkerRoomData reassigns workers with dangling room references.
// Each worker is repaired in its own transaction so one failure does
// not abort the batch.
func (s *gormStore) FixWorkerRoomData(ctx context.Context) (lifecycle.RepairReport, error) {
	const op = "store.FixWorkerRoomData"
	workers, err := s.ListWorkers(ctx)
	if err != nil {
		return lifecycle.RepairReport{}, err
	}
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return lifecycle.RepairReport{}, err
	}

	actions, planErrs := lifecycle.PlanRepair(workers, rooms)
	report := lifecycle.RepairReport{Errors: planErrs}

	for _, action := range actions {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Worker{}).Where("id = ?", action.WorkerID).
				Updates(map[string]any{
					"room_id": action.RoomID,
					"dorm_id": action.DormID,
				}).Error; err != nil {
				return err
			}
			applyRoomDelta(tx, lifecycle.RoomDelta{RoomID: action.RoomID, Delta: +1})
			return nil
		})
		if err != nil {
			report.Errors = append(report.Errors, "repair of worker "+action.WorkerID+" failed: "+err.Error())
			continue
		}
		report.Fixed++
	}

	if report.Fixed > 0 {
		s.changed(CollectionWorkers, CollectionRooms)
	}
	return report, nil
}

// applyRoomDelta adjusts one room's occupancy counter, clamped to
// [0, capacity]. Failures here are downgraded to warnings so the
// primary worker write still commits; the counter drift is repaired
// by FixWorkerRoomData.
func applyRoomDelta(tx *gorm.DB, d lifecycle.RoomDelta) {
	if d.RoomID == "" {
		return
	}
	var room model.Room
	err := tx.First(&room, "id = ?", d.RoomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Warning: room %s not found, skipping occupancy update", d.RoomID)
		return
	}
	if err != nil {
		log.Printf("Warning: loading room %s for occupancy update: %v", d.RoomID, err)
		return
	}

	next := model.ClampOccupancy(room.CurrentOccupancy+d.Delta, room.Capacity)
	if err := tx.Model(&room).Update("current_occupancy", next).Error; err != nil {
		log.Printf("Warning: updating occupancy of room %s: %v", d.RoomID, err)
	}
}

// --- Admin users ---

func (s *gormStore) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var users []model.AdminUser
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, Classify("store.ListAdmins", err)
	}
	return users, nil
}

func (s *gormStore) CreateAdmin(ctx context.Context, user model.AdminUser) (string, error) {
	const op = "store.CreateAdmin"
	if user.Email == "" {
		return "", NewValidationError(op, "email is required")
	}
	if user.ID == "" {
		user.ID = model.NewID("user")
	}
	if user.Role == "" {
		user.Role = "admin"
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return "", Classify(op, err)
	}
	s.changed(CollectionUsers)
	return user.ID, nil
}

func (s *gormStore) DeleteAdmin(ctx context.Context, id string) error {
	const op = "store.DeleteAdmin"
	res := s.db.WithContext(ctx).Delete(&model.AdminUser{}, "id = ?", id)
	if res.Error != nil {
		return Classify(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError(op, id)
	}
	s.changed(CollectionUsers)
	return nil
}

// --- Subscriptions ---

// subscription guards its callbacks so nothing fires after Unsubscribe
// returns, even if a broadcast goroutine is already in flight.
type subscription struct {
	mu     sync.Mutex
	closed bool
	detach Unsubscribe
}

func (sub *subscription) run(fn func()) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		fn()
	}
}

func (sub *subscription) cancel() {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()
	sub.detach()
}

func (s *gormStore) SubscribeWorkers(onData func([]model.Worker), onError func(error)) Unsubscribe {
	sub := &subscription{}
	deliver := func() {
		workers, err := s.ListWorkers(context.Background())
		if err != nil {
			sub.run(func() { onError(err) })
			return
		}
		sub.run(func() { onData(workers) })
	}

	sub.detach = s.hub.add(func(collection string) {
		if collection == CollectionWorkers {
			go deliver()
		}
	})
	go deliver() // initial snapshot
	return sub.cancel
}

func (s *gormStore) SubscribeRooms(onData func([]model.Room), onError func(error)) Unsubscribe {
	sub := &subscription{}
	deliver := func() {
		rooms, err := s.ListRooms(context.Background())
		if err != nil {
			sub.run(func() { onError(err) })
			return
		}
		sub.run(func() { onData(rooms) })
	}

	sub.detach = s.hub.add(func(collection string) {
		if collection == CollectionRooms {
			go deliver()
		}
	})
	go deliver()
	return sub.cancel
}
