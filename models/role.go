package models

// Role is the authorization tag stored on every user.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool   { return r == RoleAdmin }
func (r Role) IsMentor() bool  { return r == RoleMentor }
func (r Role) IsStudent() bool { return r == RoleStudent }

// CanBook reports whether the role may create bookings and reviews.
func (r Role) CanBook() bool { return r == RoleStudent || r == RoleAdmin }
