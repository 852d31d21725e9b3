package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenderOf(t *testing.T) {
	dorms := []Dorm{
		{ID: "dorm_male", Name: GenderMale},
		{ID: "dorm_female", Name: GenderFemale},
	}

	gender, ok := GenderOf("dorm_female", dorms)
	assert.True(t, ok)
	assert.Equal(t, GenderFemale, gender)

	_, ok = GenderOf("dorm_gone", dorms)
	assert.False(t, ok)

	_, ok = GenderOf("", dorms)
	assert.False(t, ok)
}

func TestClampOccupancy(t *testing.T) {
	assert.Equal(t, 0, ClampOccupancy(-1, 4))
	assert.Equal(t, 2, ClampOccupancy(2, 4))
	assert.Equal(t, 4, ClampOccupancy(5, 4))
	// Legacy rooms without a capacity use the default.
	assert.Equal(t, RoomCapacity, ClampOccupancy(RoomCapacity+1, 0))
}

func TestNewID(t *testing.T) {
	id := NewID("worker")
	assert.True(t, strings.HasPrefix(id, "worker_"))
	assert.NotEqual(t, id, NewID("worker"))
}

func TestWorkerAge(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 34, Worker{BirthYear: 1990}.Age(now))
	assert.Equal(t, 0, Worker{}.Age(now))
}

func TestPushSubscriptionCovers(t *testing.T) {
	sub := PushSubscription{Collections: "workers, rooms"}
	assert.True(t, sub.Covers("workers"))
	assert.True(t, sub.Covers("rooms"))
	assert.False(t, sub.Covers("dorms"))
	assert.False(t, PushSubscription{}.Covers("workers"))
}
