package employees

import (
	"time"
)

const (
	RoleEmployee = "employee"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

type Employee struct {
	ID           int64      `db:"id" json:"id"`
	Login        string     `db:"login" json:"login"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Department   string     `db:"department" json:"department"`
	Position     string     `db:"position" json:"position"`
	Role         string     `db:"role" json:"role"`
	JoinedAt     *time.Time `db:"joined_at" json:"joined_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CanViewOthers reports whether the employee may look up records that belong
// to other employees.
func (e *Employee) CanViewOthers() bool {
	return e.Role == RoleHR || e.Role == RoleAdmin
}
