package models

// User represents a registered account in the system.
// JSON names match what the frontend already consumes.
type User struct {
	ID          string `json:"_id" db:"id"`
	Name        string `json:"name" db:"name"`
	Email       string `json:"email" db:"email"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`
	Role        string `json:"role" db:"role"` // free-form label, never enforced
	// Password holds the bcrypt hash written at signup. A directory update
	// may overwrite it with whatever value the caller sends.
	Password string `json:"password" db:"password"`
}

// UserPatch is a shallow partial update; nil fields are left untouched.
type UserPatch struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Role        *string `json:"role"`
	Password    *string `json:"password"`
}

// IsEmpty reports whether the patch sets no field at all.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.PhoneNumber == nil && p.Role == nil && p.Password == nil
}

// UserSnapshot is the copy of a user's public fields taken at login and kept
// inside the session. It is not refreshed when the user record changes or is
// deleted, so it may be stale.
type UserSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
}

// Snapshot copies the public fields of u. The password hash is never included.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
	}
}
