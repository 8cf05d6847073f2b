package models

import "time"

// RefreshToken stores the SHA-256 hash of an issued refresh token.
// A non-nil RevokedAt means the token was blacklisted on logout or rotation.
type RefreshToken struct {
	ID        string     `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    uint64     `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
}
