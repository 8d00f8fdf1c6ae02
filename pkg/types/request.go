package types

import "time"

type RequestStatus string

const (
	RequestStatusActive    RequestStatus = "active"
	RequestStatusFulfilled RequestStatus = "fulfilled"
	RequestStatusCancelled RequestStatus = "cancelled"
)

type Request struct {
	ID              string             `db:"id"`
	RequesterID     string             `db:"requester_id"`
	Description     string             `db:"description"`
	PeopleCount     int                `db:"people_count"`
	Status          RequestStatus      `db:"status"`
	PickupSlots     []PickupSlot       `db:"pickup_slots"`     // jsonb
	PickupRecurring *RecurringSchedule `db:"pickup_recurring"` // jsonb
	Address         string             `db:"address"`
	CreatedAt       time.Time          `db:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at"`
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s != RequestStatusActive {
		return false
	}
	return next == RequestStatusFulfilled || next == RequestStatusCancelled
}
