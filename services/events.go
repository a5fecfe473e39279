package services

import "handyconnect-server/models"

type EventType string

const (
	EventBookingCreated EventType = "booking_created"
	EventBookingUpdated EventType = "booking_updated"
)

// BookingEvent is pushed to connected clients after a booking changes.
type BookingEvent struct {
	Type    EventType          `json:"type"`
	Booking models.BookingView `json:"booking"`
}

// EventPublisher delivers booking events. Implementations must not block.
type EventPublisher interface {
	PublishBookingEvent(event BookingEvent)
}

type nopPublisher struct{}

func (nopPublisher) PublishBookingEvent(BookingEvent) {}
