package store

import (
	"context"

	"gorm.io/gorm"

	"dorm-occupancy-backend/internal/lifecycle"
	"dorm-occupancy-backend/internal/model"
)

// Collection names, shared with the local cache and the push layer.
const (
	CollectionWorkers = "workers"
	CollectionRooms   = "rooms"
	CollectionDorms   = "dorms"
	CollectionUsers   = "users"
)

// Unsubscribe detaches a change subscription. After it returns, no
// further callbacks fire.
type Unsubscribe func()

// Store defines the entity store surface the dispatcher talks to.
// Every multi-document mutation (a worker write plus its room
// occupancy side effect) is atomic so concurrent readers never see a
// half-applied state.
type Store interface {
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	GetWorker(ctx context.Context, id string) (model.Worker, error)
	CreateWorker(ctx context.Context, req model.CreateWorkerRequest) (string, error)
	UpdateWorker(ctx context.Context, id string, upd model.UpdateWorkerRequest) error
	DeleteWorker(ctx context.Context, id string) error
	FixWorkerRoomData(ctx context.Context) (lifecycle.RepairReport, error)

	ListRooms(ctx context.Context) ([]model.Room, error)
	ListDorms(ctx context.Context) ([]model.Dorm, error)

	ListAdmins(ctx context.Context) ([]model.AdminUser, error)
	CreateAdmin(ctx context.Context, user model.AdminUser) (string, error)
	DeleteAdmin(ctx context.Context, id string) error

	SubscribeWorkers(onData func([]model.Worker), onError func(error)) Unsubscribe
	SubscribeRooms(onData func([]model.Room), onError func(error)) Unsubscribe

	// DB exposes the underlying handle for the push-subscription
	// handlers and the notification pool.
	DB() *gorm.DB
}
