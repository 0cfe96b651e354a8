package model

import "time"

// Account roles stored in users.role.
const (
	RoleVisitor = "VISITOR"
	RoleAdmin   = "ADMIN"
)

// User is a row of the users table. It carries no json tags; handlers map
// it onto their own response types so the password hash never leaves the
// process.
type User struct {
	ID           uint64
	Username     string // unique login name
	Email        string // unique, stored lower-cased
	FirstName    string
	PasswordHash string // bcrypt
	Role         string // RoleVisitor or RoleAdmin
	IsActive     bool   // inactive accounts cannot log in or refresh
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

