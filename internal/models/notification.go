package models

// AdminNotification is one entry in the admin feedback panel, as returned by
// the admin backend. Fields are accessed defensively; absent values decode to
// their zero value.
type AdminNotification struct {
	ID        string   `json:"id"`
	UserEmail string   `json:"user_email"`
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	Read      bool     `json:"read"`
	Resolved  bool     `json:"resolved"`
	CreatedAt string   `json:"created_at"`
	Replies   []string `json:"replies,omitempty"`
}
