package domain

import "time"

// Category is a node of the self-referential category tree
type Category struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ParentID *int64 `json:"parent_id" db:"parent_id"`
}

// CategoryNode is a category with its resolved children
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

type Condition struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Payment struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Status struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Role struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Comment is a message left on an item
type Comment struct {
	ID         int64     `json:"id" db:"id"`
	ItemID     int64     `json:"item_id" db:"item_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Message    string    `json:"message" db:"message"`
	AuthorName string    `json:"author_name,omitempty" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
