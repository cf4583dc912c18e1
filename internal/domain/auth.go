package domain

type Role string

const (
	RoleAttendant Role = "attendant"
	RoleManager   Role = "manager"
	RoleOwner     Role = "owner"
)

// IsValid reports whether the role is one the engine knows about.
func (r Role) IsValid() bool {
	switch r {
	case RoleAttendant, RoleManager, RoleOwner:
		return true
	}
	return false
}

// CanOverrideMeter reports whether the role may submit decreasing or backdated readings
// and void readings.
func (r Role) CanOverrideMeter() bool {
	return r == RoleManager || r == RoleOwner
}

// CanCloseDay reports whether the role may finalize a day, by close or by a finalizing run.
func (r Role) CanCloseDay() bool {
	return r == RoleManager || r == RoleOwner
}

// AuthContext is the authenticated caller, supplied per call by the transport layer.
type AuthContext struct {
	TenantID int64 `json:"tenant_id"`
	UserID   int64 `json:"user_id"`
	Role     Role  `json:"role"`
}
