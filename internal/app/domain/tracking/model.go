package tracking

import "time"

// EventType tags a tracking beacon.
type EventType string

const (
	PageView     EventType = "page_view"
	ProductView  EventType = "product_view"
	CategoryView EventType = "category_view"
	Search       EventType = "search"
	CartAdd      EventType = "cart_add"
	CartRemove   EventType = "cart_remove"
	Purchase     EventType = "purchase"
	UserRegister EventType = "user_register"
	UserLogin    EventType = "user_login"
)

// Known reports whether t is one of the event types the API accepts.
func (t EventType) Known() bool {
	switch t {
	case PageView, ProductView, CategoryView, Search, CartAdd, CartRemove,
		Purchase, UserRegister, UserLogin:
		return true
	}
	return false
}

// Event is a write-once interaction record. It is never read back.
type Event struct {
	SessionID  string         `json:"session_id"`
	UserID     string         `json:"user_id,omitempty"`
	EventType  EventType      `json:"event_type"`
	PageURL    string         `json:"page_url"`
	Timestamp  time.Time      `json:"timestamp"`
	Properties map[string]any `json:"properties"`
}
