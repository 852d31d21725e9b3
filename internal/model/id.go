package model

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a collection-prefixed document id, e.g.
// "worker_4f9c...". The prefix keeps ids legible in logs and exports.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
