package models

import "time"

// List is a named to-do list owned by exactly one user.
type List struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	CreatedAt      time.Time   `json:"created_at"`
	LastModifiedAt time.Time   `json:"last_modified_at"`
	UserID         int64       `json:"user_id"`
	Items          []*ListItem `json:"list_items,omitempty"`
}

// ListItem is a single entry of a List.
type ListItem struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	IsCompleted    bool      `json:"is_completed"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
	ListID         int64     `json:"list_id"`
}

// ListUpdate holds a partial update of a List.
type ListUpdate struct {
	Name *string `json:"name,omitempty"`
}

// ItemUpdate holds a partial update of a ListItem. Nil fields are left
// unchanged.
type ItemUpdate struct {
	Content     *string `json:"content,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}
