package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dorm-occupancy-backend/internal/store"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func subscriptionRows(endpoints ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "collections", "created_at"})
	for _, e := range endpoints {
		rows.AddRow(e, "test_p256dh", "test_auth", "workers,rooms", time.Now())
	}
	return rows
}

func pushResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch(store.CollectionWorkers)

	select {
	case job := <-wp.jobs:
		assert.Equal(t, store.CollectionWorkers, job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDropsWhenFull(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// Channel capacity is size*4; overflow must not block.
	for i := 0; i < 10; i++ {
		wp.Dispatch(store.CollectionWorkers)
	}
	assert.Len(t, wp.jobs, 4)
}

func TestWorkerPool_NotifyCollectionChange(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	t.Run("sends to covering subscriptions", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
			WillReturnRows(subscriptionRows("https://example.com/push"))

		var mu sync.Mutex
		var sentTo []string
		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				var change struct {
					Collection string `json:"collection"`
				}
				require.NoError(t, json.Unmarshal(payload, &change))
				assert.Equal(t, store.CollectionWorkers, change.Collection)

				mu.Lock()
				sentTo = append(sentTo, sub.Endpoint)
				mu.Unlock()
				return pushResponse(http.StatusCreated), nil
			},
		})

		wp.notifyCollectionChange(context.Background(), store.CollectionWorkers)

		assert.Equal(t, []string{"https://example.com/push"}, sentTo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips non-covering subscriptions", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "collections", "created_at"}).
			AddRow("https://example.com/push", "k", "a", "rooms", time.Now())
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
			WillReturnRows(rows)

		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("send should not be called for a non-covering subscription")
				return pushResponse(http.StatusCreated), nil
			},
		})

		wp.notifyCollectionChange(context.Background(), store.CollectionWorkers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscriptions on 410", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
			WillReturnRows(subscriptionRows("https://example.com/gone"))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "push_subscriptions"`)).
			WithArgs("https://example.com/gone").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return pushResponse(http.StatusGone), nil
			},
		})

		wp.notifyCollectionChange(context.Background(), store.CollectionWorkers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWorkerPool_EndToEnd(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
		WillReturnRows(subscriptionRows("https://example.com/push"))

	var wg sync.WaitGroup
	wg.Add(1)
	wp.SetSender(&mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			wg.Done()
			return pushResponse(http.StatusCreated), nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(store.CollectionWorkers)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the notification send")
	}
}
