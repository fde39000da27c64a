package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleFarmer   Role = "farmer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleFarmer, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller resolved by the auth middleware.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

func (a Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
