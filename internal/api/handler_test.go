package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dorm-occupancy-backend/config"
	"dorm-occupancy-backend/internal/hybrid"
	"dorm-occupancy-backend/internal/localcache"
	"dorm-occupancy-backend/internal/retry"
)

// setupRouter serves the full route table from the seeded local cache
// with no remote store, the offline-dashboard configuration.
func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	local, err := localcache.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, local.Initialize())

	retrier := &retry.Retrier{Attempts: 1, Schedule: []time.Duration{time.Millisecond}}
	dispatcher := hybrid.NewDispatcher(nil, local, retrier, time.Second)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateBurst = 1000
	cfg.Server.CacheTTLSeconds = 1

	return NewRouter(cfg, dispatcher, nil, nil)
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestGetWorkers(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, "GET", "/api/workers", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Workers []json.RawMessage `json:"workers"`
		Total   int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Total)
	assert.Len(t, resp.Workers, 6)
}

func TestCreateWorker(t *testing.T) {
	router := setupRouter(t)

	t.Run("valid check-in", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/workers",
			`{"full_name":"Khalid Nasser","dorm_id":"dorm_male","room_id":"room_male_4"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("missing name fails binding", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/workers", `{"dorm_id":"dorm_male","room_id":"room_male_4"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing room fails validation", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/workers", `{"full_name":"No Room"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "room id is required")
	})

	t.Run("legacy timestamp forms are accepted", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/workers",
			`{"full_name":"Epoch Check-in","dorm_id":"dorm_male","room_id":"room_male_4","check_in_date":{"seconds":1705314600,"nanos":0}}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestUpdateWorker(t *testing.T) {
	router := setupRouter(t)

	t.Run("checkout", func(t *testing.T) {
		w := doJSON(router, "PUT", "/api/workers/worker_1",
			`{"check_out_date":"2024-02-01","exit_reason":"End of contract"}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := doJSON(router, "PUT", "/api/workers/worker_ghost", `{"full_name":"X"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteWorker(t *testing.T) {
	router := setupRouter(t)

	assert.Equal(t, http.StatusNoContent, doJSON(router, "DELETE", "/api/workers/worker_1", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, "DELETE", "/api/workers/worker_1", "").Code)
}

func TestRepairWorkers(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, "POST", "/api/workers/repair", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Fixed  int      `json:"fixed"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 0, report.Fixed)
}

func TestGetRooms(t *testing.T) {
	router := setupRouter(t)

	t.Run("all rooms with occupants", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/rooms", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Rooms []struct {
				ID        string            `json:"id"`
				Occupants []json.RawMessage `json:"occupants"`
			} `json:"rooms"`
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 20, resp.Total)

		occupied := 0
		for _, r := range resp.Rooms {
			occupied += len(r.Occupants)
		}
		assert.Equal(t, 5, occupied) // seeded active workers
	})

	t.Run("narrowed by dorm", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/rooms?dorm_id=dorm_female", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 10, resp.Total)
	})
}

func TestGetDorms(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, "GET", "/api/dorms", "")
	require.Equal(t, http.StatusOK, w.Code)

	var dorms []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dorms))
	assert.Len(t, dorms, 2)
}

func TestGetStats(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, "GET", "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stats struct {
			TotalWorkers  int `json:"totalWorkers"`
			ActiveWorkers int `json:"activeWorkers"`
			MaleWorkers   int `json:"maleWorkers"`
			FemaleWorkers int `json:"femaleWorkers"`
		} `json:"stats"`
		RecentExits []struct {
			WorkerName string `json:"worker_name"`
		} `json:"recentExits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Stats.TotalWorkers)
	assert.Equal(t, 5, resp.Stats.ActiveWorkers)
	assert.Equal(t, 3, resp.Stats.MaleWorkers)
	assert.Equal(t, 2, resp.Stats.FemaleWorkers)
	require.Len(t, resp.RecentExits, 1)
	assert.Equal(t, "Fatima Khalid Saad", resp.RecentExits[0].WorkerName)
}

func TestGetEnhancedStats(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, "GET", "/api/stats/enhanced", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AgeDistribution []struct {
			Range string `json:"range"`
		} `json:"ageDistribution"`
		MonthlyStats []json.RawMessage `json:"monthlyStats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.AgeDistribution, 4)
	assert.Len(t, resp.MonthlyStats, 6)
}

func TestGetFilteredStats(t *testing.T) {
	router := setupRouter(t)

	t.Run("by status", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/stats/filtered?status=active", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Stats struct {
				TotalWorkers int `json:"totalWorkers"`
			} `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 5, resp.Stats.TotalWorkers)
	})

	t.Run("bad custom date", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/stats/filtered?date_range=custom&start_date=garbage", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExportData(t *testing.T) {
	router := setupRouter(t)

	t.Run("json", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/export", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Workers []json.RawMessage `json:"workers"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Workers, 6)
	})

	t.Run("csv", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/export?format=csv&gender=female", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.NotEmpty(t, lines)
		assert.True(t, strings.HasPrefix(lines[0], "id,full_name"))
		assert.Len(t, lines, 4) // header plus the three female workers
	})
}

func TestUsers(t *testing.T) {
	router := setupRouter(t)

	t.Run("list works offline", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/users", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Total)
	})

	t.Run("create needs the remote store", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/users", `{"email":"admin@example.com"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("invalid email fails binding", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/users", `{"email":"not-an-email"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("self-deletion is refused", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/api/users/user_1", nil)
		req.Header.Set("X-Admin-ID", "user_1")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSubscriptionsWithoutRemote(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, "PUT", "/api/subscriptions",
		`{"endpoint":"https://example.com/push","p256dh":"k","auth":"a","collections":["workers"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	assert.Equal(t, http.StatusServiceUnavailable,
		doJSON(router, "GET", "/api/subscriptions?endpoint=x", "").Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		router := setupRouter(t)
		assert.Equal(t, http.StatusServiceUnavailable,
			doJSON(router, "GET", "/api/vapid_public_key", "").Code)
	})

	t.Run("configured", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		handler := NewHandler(nil, nil, &webpush.Options{VAPIDPublicKey: "test_key"})
		r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)

		w := doJSON(r, "GET", "/api/vapid_public_key", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"public_key":"test_key"}`, w.Body.String())
	})
}
