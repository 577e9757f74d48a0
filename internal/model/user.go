// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash holds the bcrypt output (salt and cost included); the
// plaintext password never reaches this struct.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Email        string    `json:"email"     db:"email"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName"  db:"last_name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// FullName is what the profile page greets the user with.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
