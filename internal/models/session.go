package models

import "time"

// Session groups the messages of one conversation.
type Session struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}
