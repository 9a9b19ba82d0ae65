package models

import "time"

// User is a registered account together with the lists it owns.
// PasswordHash is an Argon2id PHC digest and is never serialized.
type User struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Lists        []*List   `json:"lists,omitempty"`
}

// UserPublic is the projection of a User that may leave the server, both in
// responses and inside access token claims.
type UserPublic struct {
	ID       int64  `json:"id"`
	UserName string `json:"username"`
}

// Public returns the public projection of u.
func (u *User) Public() UserPublic {
	return UserPublic{ID: u.ID, UserName: u.UserName}
}

// UserUpdate holds a partial update of the current user. Nil fields are left
// unchanged.
type UserUpdate struct {
	UserName *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}
