package domain

import "time"

// User represents a registered account.
type User struct {
	ID           string
	Name         string
	Username     string
	PasswordHash string
	CreatedBy    string
	CreatedAt    time.Time
}
