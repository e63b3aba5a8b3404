package models

import "time"

// User represents a storefront shopper account.
type User struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;size:80;not null;uniqueIndex:idx_users_username"`
	Email        string    `gorm:"column:email;size:120;not null;uniqueIndex:idx_users_email"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
