package chat

import "time"

// User is an anonymous visitor, optionally carrying a display name.
type User struct {
	ID          string    `json:"userId"`
	DisplayName *string   `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
