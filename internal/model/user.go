package model

import "time"

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = "user"

// User is a persisted user record. Password holds the bcrypt hash once the
// record has been created and must never leave the service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Password  string    `json:"password,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicUser is the projection of User exposed over HTTP.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the password from u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUsers projects a slice of users.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for i := range users {
		out = append(out, *users[i].Public())
	}
	return out
}
