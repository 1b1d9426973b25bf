package model

import "time"

// User identifies the owner of transactions, categories, and budget plans.
// Users are managed by an external identity subsystem; the core only reads
// the id and default currency.
type User struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	DefaultCurrencyCode string
	CreatedAt           time.Time
}
