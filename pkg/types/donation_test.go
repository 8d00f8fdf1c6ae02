package types

import (
	"testing"
	"time"
)

func TestDonationStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from DonationStatus
		to   DonationStatus
		ok   bool
	}{
		{DonationStatusAvailable, DonationStatusClaimed, true},
		{DonationStatusAvailable, DonationStatusCancelled, true},
		{DonationStatusAvailable, DonationStatusPickedUp, false},
		{DonationStatusClaimed, DonationStatusPickedUp, true},
		{DonationStatusClaimed, DonationStatusCancelled, true},
		{DonationStatusClaimed, DonationStatusAvailable, false},
		{DonationStatusPickedUp, DonationStatusAvailable, false},
		{DonationStatusPickedUp, DonationStatusCancelled, false},
		{DonationStatusCancelled, DonationStatusAvailable, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestRequestStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from RequestStatus
		to   RequestStatus
		ok   bool
	}{
		{RequestStatusActive, RequestStatusFulfilled, true},
		{RequestStatusActive, RequestStatusCancelled, true},
		{RequestStatusFulfilled, RequestStatusActive, false},
		{RequestStatusFulfilled, RequestStatusCancelled, false},
		{RequestStatusCancelled, RequestStatusActive, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestPickupSlotValidate(t *testing.T) {
	today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		slot    PickupSlot
		wantErr bool
	}{
		{
			name: "valid future slot",
			slot: PickupSlot{Date: "2026-09-01", StartTime: "09:00", EndTime: "14:00"},
		},
		{
			name: "today is allowed",
			slot: PickupSlot{Date: "2026-08-31", StartTime: "09:00", EndTime: "14:00"},
		},
		{
			name:    "past date",
			slot:    PickupSlot{Date: "2026-08-30", StartTime: "09:00", EndTime: "14:00"},
			wantErr: true,
		},
		{
			name:    "end before start",
			slot:    PickupSlot{Date: "2026-09-01", StartTime: "14:00", EndTime: "09:00"},
			wantErr: true,
		},
		{
			name:    "zero length window",
			slot:    PickupSlot{Date: "2026-09-01", StartTime: "09:00", EndTime: "09:00"},
			wantErr: true,
		},
		{
			name:    "garbage date",
			slot:    PickupSlot{Date: "tomorrow", StartTime: "09:00", EndTime: "14:00"},
			wantErr: true,
		},
		{
			name:    "garbage time",
			slot:    PickupSlot{Date: "2026-09-01", StartTime: "9am", EndTime: "14:00"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.slot.Validate(today)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for %+v", tc.slot)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRecurringScheduleValidate(t *testing.T) {
	valid := RecurringSchedule{Weekdays: []string{"monday", "thursday"}, StartTime: "16:00", EndTime: "18:00"}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	noDays := RecurringSchedule{StartTime: "16:00", EndTime: "18:00"}
	if err := noDays.Validate(); err == nil {
		t.Error("expected error for empty weekdays")
	}

	inverted := RecurringSchedule{Weekdays: []string{"monday"}, StartTime: "18:00", EndTime: "16:00"}
	if err := inverted.Validate(); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestParseDonationStatus(t *testing.T) {
	for raw, want := range map[string]DonationStatus{
		"available": DonationStatusAvailable,
		"Claimed":   DonationStatusClaimed,
		" picked_up ": DonationStatusPickedUp,
		"CANCELLED": DonationStatusCancelled,
	} {
		got, err := ParseDonationStatus(raw)
		if err != nil {
			t.Errorf("parse %q: %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("parse %q: expected %s, got %s", raw, want, got)
		}
	}

	if _, err := ParseDonationStatus("done"); err == nil {
		t.Error("expected error for unknown status")
	}
}
