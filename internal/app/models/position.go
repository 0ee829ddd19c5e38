package models

import "time"

// Position is a job opening published by an employee or admin
type Position struct {
	ID          int64     `json:"id" db:"id"`
	CreatorID   int64     `json:"creatorId" db:"creator_id"`
	Title       string    `json:"title" db:"title"`
	Department  string    `json:"department" db:"department"`
	Location    string    `json:"location" db:"location"`
	Amount      int       `json:"amount" db:"amount"`
	Description *string   `json:"description,omitempty" db:"description"`
	ResourceURL *string   `json:"resourceUrl,omitempty" db:"resource_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// PositionListing is a position joined with its creator and application count
type PositionListing struct {
	Position
	CreatorUsername  string  `json:"creatorUsername"`
	CreatorFullName  *string `json:"creatorFullName,omitempty"`
	ApplicationCount int64   `json:"applicationCount"`
}
