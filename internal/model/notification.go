package model

import "time"

// Notification is a single in-app notification.
//
// ID, Title, Message, and Timestamp are immutable after creation. Read only
// ever moves from false to true; nothing in the stores resets it.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// EntityID returns the notification's unique identifier.
func (n Notification) EntityID() string { return n.ID }
