package types

import (
	"fmt"
	"strings"
	"time"
)

type DonationStatus string

const (
	DonationStatusAvailable DonationStatus = "available"
	DonationStatusClaimed   DonationStatus = "claimed"
	DonationStatusPickedUp  DonationStatus = "picked_up"
	DonationStatusCancelled DonationStatus = "cancelled"
)

type Donation struct {
	ID                 string             `db:"id"`
	DonorID            string             `db:"donor_id"`
	FoodItemID         string             `db:"food_item_id"`
	Quantity           string             `db:"quantity"`
	Status             DonationStatus     `db:"status"`
	PickupSlots        []PickupSlot       `db:"pickup_slots"`     // jsonb
	PickupRecurring    *RecurringSchedule `db:"pickup_recurring"` // jsonb
	Address            string             `db:"address"`
	DriverInstructions *string            `db:"driver_instructions"`
	ReceiverID         *string            `db:"receiver_id"`
	ClaimedAt          *time.Time         `db:"claimed_at"`
	PickedUpAt         *time.Time         `db:"picked_up_at"`
	CreatedAt          time.Time          `db:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at"`
}

// PickupSlot is one offered pickup window. Date is a calendar date
// (YYYY-MM-DD), times are local time-of-day (HH:MM).
type PickupSlot struct {
	ID        string `db:"-" json:"id,omitempty" form:"id"`
	Date      string `json:"date" form:"date"`
	StartTime string `json:"start_time" form:"start_time"`
	EndTime   string `json:"end_time" form:"end_time"`
}

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04"
)

// Validate checks the slot's internal ordering and that the date is not in
// the past relative to today.
func (p PickupSlot) Validate(today time.Time) error {
	date, err := time.Parse(slotDateLayout, p.Date)
	if err != nil {
		return fmt.Errorf("invalid pickup date %q", p.Date)
	}

	start, err := time.Parse(slotTimeLayout, p.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time %q", p.StartTime)
	}

	end, err := time.Parse(slotTimeLayout, p.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end time %q", p.EndTime)
	}

	if !start.Before(end) {
		return fmt.Errorf("start time %s must be before end time %s", p.StartTime, p.EndTime)
	}

	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(todayDate) {
		return fmt.Errorf("pickup date %s is in the past", p.Date)
	}

	return nil
}

// RecurringSchedule is the alternative to explicit slots: a weekly repeating
// pickup window.
type RecurringSchedule struct {
	Weekdays  []string `json:"weekdays" form:"weekdays"`
	StartTime string   `json:"start_time" form:"start_time"`
	EndTime   string   `json:"end_time" form:"end_time"`
}

func (r RecurringSchedule) Validate() error {
	if len(r.Weekdays) == 0 {
		return fmt.Errorf("recurring schedule needs at least one weekday")
	}

	start, err := time.Parse(slotTimeLayout, r.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time %q", r.StartTime)
	}

	end, err := time.Parse(slotTimeLayout, r.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end time %q", r.EndTime)
	}

	if !start.Before(end) {
		return fmt.Errorf("start time %s must be before end time %s", r.StartTime, r.EndTime)
	}

	return nil
}

// CanTransitionTo reports whether the donation lifecycle permits moving from
// the current status to next.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	switch s {
	case DonationStatusAvailable:
		return next == DonationStatusClaimed || next == DonationStatusCancelled
	case DonationStatusClaimed:
		return next == DonationStatusPickedUp || next == DonationStatusCancelled
	default:
		return false
	}
}

func ParseDonationStatus(raw string) (DonationStatus, error) {
	switch DonationStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case DonationStatusAvailable:
		return DonationStatusAvailable, nil
	case DonationStatusClaimed:
		return DonationStatusClaimed, nil
	case DonationStatusPickedUp:
		return DonationStatusPickedUp, nil
	case DonationStatusCancelled:
		return DonationStatusCancelled, nil
	}
	return "", fmt.Errorf("unknown donation status %q", raw)
}
