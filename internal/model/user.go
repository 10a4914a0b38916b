package model

// User represents an operator account as stored in the `user` table.
// Only the bcrypt hash of the password is persisted.
//
// Fields:
//
//	ID           – primary key identifier.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password.
//	IsAdmin      – whether the user may manage other users.
type User struct {
	ID           int64  `json:"id"`       // user.id
	Username     string `json:"username"` // user.username
	PasswordHash string `json:"-"`        // user.password_hash
	IsAdmin      bool   `json:"is_admin"` // user.is_admin
}

// Role returns the display role of the user.
func (u User) Role() string {
	if u.IsAdmin {
		return "Admin"
	}
	return "Operator"
}
