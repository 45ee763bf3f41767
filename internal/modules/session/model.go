// README: Session models: backend user and device credentials.
package session

import "kolekta/internal/types"

// User is the authenticated backend user (driver or zone leader).
type User struct {
	ID      types.ID `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    string   `json:"role"`
	TruckID types.ID `json:"truck_id,omitempty"`
}

// Credentials is the result of a backend login: the bearer token the backend
// expects on subsequent calls plus the resolved user.
type Credentials struct {
	Token string
	User  User
}
