package model

import (
	"strings"
	"time"
)

// PushSubscription holds the information for a browser push
// subscription. Collections is a comma-separated list of the entity
// collections the viewer wants change notifications for.
type PushSubscription struct {
	Endpoint    string    `gorm:"primaryKey"`
	P256DH      string    `gorm:"column:p256dh;not null"`
	Auth        string    `gorm:"not null"`
	Collections string    `gorm:"size:256;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// Covers reports whether the subscription asked for changes to the
// given collection.
func (s PushSubscription) Covers(collection string) bool {
	for _, c := range strings.Split(s.Collections, ",") {
		if strings.TrimSpace(c) == collection {
			return true
		}
	}
	return false
}
