package models

import "time"

// User — модель учётной записи опекуна.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Zipcode      string
	Address      string
	AddressLine2 string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
