// Package localcache is the offline mirror of the entity store: a
// SQLite-backed string-keyed blob store holding one serialized list
// per collection. All access is synchronous and single-process; there
// is no cross-entry atomicity, so worker mutations apply the same
// occupancy bookkeeping as the remote store but as a sequential
// read-modify-write against the rooms entry.
package localcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dorm-occupancy-backend/internal/lifecycle"
	"dorm-occupancy-backend/internal/model"
	"dorm-occupancy-backend/internal/store"
)

type entry struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value []byte `gorm:"not null"`
}

func (entry) TableName() string { return "cache_entries" }

// Cache is the local fallback store.
type Cache struct {
	mu sync.Mutex
	db *gorm.DB
}

// Open opens (or creates) the cache file and prepares its schema.
// Use ":memory:" for tests.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache at %s: %w", path, err)
	}
	// Access is mutex-serialized anyway, and a single connection keeps
	// ":memory:" databases on one schema.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("local cache migration failed: %w", err)
	}
	return &Cache{db: db}, nil
}

// Initialize seeds each collection with the deterministic sample set,
// only where no entry exists yet. Safe to call on every fallback
// activation; existing data is never overwritten.
func (c *Cache) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, seed := range map[string]func() ([]byte, error){
		store.CollectionDorms:   func() ([]byte, error) { return json.Marshal(seedDorms()) },
		store.CollectionRooms:   func() ([]byte, error) { return json.Marshal(seedRooms()) },
		store.CollectionWorkers: func() ([]byte, error) { return json.Marshal(seedWorkers()) },
		store.CollectionUsers:   func() ([]byte, error) { return json.Marshal([]model.AdminUser{}) },
	} {
		var e entry
		err := c.db.First(&e, "key = ?", key).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("reading cache entry %q: %w", key, err)
		}
		blob, err := seed()
		if err != nil {
			return err
		}
		if err := c.db.Create(&entry{Key: key, Value: blob}).Error; err != nil {
			return fmt.Errorf("seeding cache entry %q: %w", key, err)
		}
	}
	return nil
}

func (c *Cache) load(key string, out any) error {
	var e entry
	err := c.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // absent collection reads as empty
	}
	if err != nil {
		return fmt.Errorf("reading cache entry %q: %w", key, err)
	}
	return json.Unmarshal(e.Value, out)
}

func (c *Cache) save(key string, value any) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.db.Save(&entry{Key: key, Value: blob}).Error
}

// --- Reads ---

func (c *Cache) ListWorkers() ([]model.Worker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var workers []model.Worker
	if err := c.load(store.CollectionWorkers, &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

func (c *Cache) GetWorker(id string) (model.Worker, error) {
	workers, err := c.ListWorkers()
	if err != nil {
		return model.Worker{}, err
	}
	for _, w := range workers {
		if w.ID == id {
			return w, nil
		}
	}
	return model.Worker{}, store.NewNotFoundError("localcache.GetWorker", id)
}

func (c *Cache) ListRooms() ([]model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var rooms []model.Room
	if err := c.load(store.CollectionRooms, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Cache) ListDorms() ([]model.Dorm, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dorms []model.Dorm
	if err := c.load(store.CollectionDorms, &dorms); err != nil {
		return nil, err
	}
	return dorms, nil
}

func (c *Cache) ListAdmins() ([]model.AdminUser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var users []model.AdminUser
	if err := c.load(store.CollectionUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// --- Worker lifecycle, sequential flavor ---

func (c *Cache) CreateWorker(req model.CreateWorkerRequest) (string, error) {
	const op = "localcache.CreateWorker"
	if err := lifecycle.ValidateCreate(req); err != nil {
		return "", store.NewValidationError(op, err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var workers []model.Worker
	if err := c.load(store.CollectionWorkers, &workers); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	worker := lifecycle.NewWorker(req, now)
	worker.CreatedAt = now
	worker.UpdatedAt = now
	workers = append(workers, worker)

	if err := c.save(store.CollectionWorkers, workers); err != nil {
		return "", err
	}
	c.applyDelta(lifecycle.RoomDelta{RoomID: worker.RoomID, Delta: +1})
	return worker.ID, nil
}

func (c *Cache) UpdateWorker(id string, upd model.UpdateWorkerRequest) error {
	const op = "localcache.UpdateWorker"
	c.mu.Lock()
	defer c.mu.Unlock()

	var workers []model.Worker
	if err := c.load(store.CollectionWorkers, &workers); err != nil {
		return err
	}

	idx := -1
	for i := range workers {
		if workers[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.NewNotFoundError(op, id)
	}

	plan, err := lifecycle.PlanUpdate(workers[idx], upd)
	if err != nil {
		return store.NewValidationError(op, err.Error())
	}
	plan.Worker.UpdatedAt = time.Now().UTC()
	workers[idx] = plan.Worker

	if err := c.save(store.CollectionWorkers, workers); err != nil {
		return err
	}
	for _, d := range plan.Deltas {
		c.applyDelta(d)
	}
	return nil
}

func (c *Cache) DeleteWorker(id string) error {
	const op = "localcache.DeleteWorker"
	c.mu.Lock()
	defer c.mu.Unlock()

	var workers []model.Worker
	if err := c.load(store.CollectionWorkers, &workers); err != nil {
		return err
	}

	idx := -1
	for i := range workers {
		if workers[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.NewNotFoundError(op, id)
	}

	deltas := lifecycle.PlanDelete(workers[idx])
	workers = append(workers[:idx], workers[idx+1:]...)
	if err := c.save(store.CollectionWorkers, workers); err != nil {
		return err
	}
	for _, d := range deltas {
		c.applyDelta(d)
	}
	return nil
}

// FixWorkerRoomData runs the repair pass against the cached
// collections.
func (c *Cache) FixWorkerRoomData() (lifecycle.RepairReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var workers []model.Worker
	if err := c.load(store.CollectionWorkers, &workers); err != nil {
		return lifecycle.RepairReport{}, err
	}
	var rooms []model.Room
	if err := c.load(store.CollectionRooms, &rooms); err != nil {
		return lifecycle.RepairReport{}, err
	}

	actions, errs := lifecycle.PlanRepair(workers, rooms)
	report := lifecycle.RepairReport{Errors: errs}

	now := time.Now().UTC()
	for _, action := range actions {
		for i := range workers {
			if workers[i].ID == action.WorkerID {
				workers[i].RoomID = action.RoomID
				workers[i].DormID = action.DormID
				workers[i].UpdatedAt = now
				break
			}
		}
	}
	if err := c.save(store.CollectionWorkers, workers); err != nil {
		return report, err
	}
	for _, action := range actions {
		c.applyDelta(lifecycle.RoomDelta{RoomID: action.RoomID, Delta: +1})
		report.Fixed++
	}
	return report, nil
}

// applyDelta is the sequential read-modify-write occupancy update.
// Caller holds the mutex. Failures are warnings, matching the remote
// store's partial-failure policy.
func (c *Cache) applyDelta(d lifecycle.RoomDelta) {
	if d.RoomID == "" {
		return
	}
	var rooms []model.Room
	if err := c.load(store.CollectionRooms, &rooms); err != nil {
		log.Printf("Warning: loading rooms for occupancy update: %v", err)
		return
	}

	found := false
	for i := range rooms {
		if rooms[i].ID == d.RoomID {
			rooms[i].CurrentOccupancy = model.ClampOccupancy(rooms[i].CurrentOccupancy+d.Delta, rooms[i].Capacity)
			rooms[i].UpdatedAt = time.Now().UTC()
			found = true
			break
		}
	}
	if !found {
		log.Printf("Warning: room %s not found in local cache, skipping occupancy update", d.RoomID)
		return
	}
	if err := c.save(store.CollectionRooms, rooms); err != nil {
		log.Printf("Warning: saving rooms after occupancy update: %v", err)
	}
}
