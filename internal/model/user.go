package model

import "time"

// User represents a registered player stored in the database.
type User struct {
	ID           string
	PasswordHash string
	Salt         string
	Nickname     string
	ReportCount  int
	Suspended    bool
	Wins         int
	Losses       int
	CreatedAt    time.Time
}
