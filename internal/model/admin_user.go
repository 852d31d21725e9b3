package model

import "time"

// AdminUser is a dashboard operator. There is a single role; the API
// layer refuses deleting the acting user, nothing more.
type AdminUser struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Email       string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Role        string    `gorm:"size:32;not null" json:"role"`
	DisplayName string    `gorm:"size:256" json:"display_name"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
