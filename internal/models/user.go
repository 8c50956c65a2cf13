package models

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	Record
	Username string `json:"username"`
	Password string `json:"password,omitempty"` // argon2id encoded hash
	Role     Role   `json:"role"`
}

func (*User) Kind() Kind { return KindUser }
