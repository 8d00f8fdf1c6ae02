package store

import (
	"context"
	"errors"
	"testing"

	"zipli/pkg/types"
)

func TestMemoryProfileLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Profile(ctx, "missing"); !errors.Is(err, types.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	profile := &types.Profile{FullName: "Hanna Virtanen", Role: types.ProfileRoleDonor}
	if err := m.CreateProfile(ctx, profile); err != nil {
		t.Fatal(err)
	}
	if profile.ID == "" {
		t.Fatal("create must assign an id")
	}
	if profile.CreatedAt.IsZero() || profile.UpdatedAt.IsZero() {
		t.Error("create must stamp timestamps")
	}

	fetched, err := m.Profile(ctx, profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.FullName != "Hanna Virtanen" {
		t.Errorf("unexpected profile %+v", fetched)
	}

	fetched.FullName = "Renamed"
	if err := m.UpdateProfile(ctx, profile.ID, fetched); err != nil {
		t.Fatal(err)
	}

	updated, err := m.Profile(ctx, profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.FullName != "Renamed" {
		t.Errorf("update not applied: %+v", updated)
	}

	donors, err := m.ProfilesByRole(ctx, types.ProfileRoleDonor)
	if err != nil {
		t.Fatal(err)
	}
	if len(donors) != 1 {
		t.Errorf("expected 1 donor, got %d", len(donors))
	}

	if err := m.DeleteProfile(ctx, profile.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Profile(ctx, profile.ID); !errors.Is(err, types.ErrProfileNotFound) {
		t.Errorf("expected profile gone, got %v", err)
	}
}

func TestMemoryUpdateUnknownRecord(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.UpdateProfile(ctx, "missing", &types.Profile{}); !errors.Is(err, types.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
	if err := m.UpdateFoodItem(ctx, "missing", &types.FoodItem{}); !errors.Is(err, types.ErrFoodItemNotFound) {
		t.Errorf("expected ErrFoodItemNotFound, got %v", err)
	}
	if err := m.UpdateDonation(ctx, "missing", &types.Donation{}); !errors.Is(err, types.ErrDonationNotFound) {
		t.Errorf("expected ErrDonationNotFound, got %v", err)
	}
	if err := m.UpdateRequest(ctx, "missing", &types.Request{}); !errors.Is(err, types.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestMemoryFoodItemByNameIsCaseInsensitive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	item := &types.FoodItem{DonorID: "donor-1", Name: "Rye Bread", Allergens: []string{"Gluten"}}
	if err := m.CreateFoodItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"Rye Bread", "rye bread", "RYE BREAD"} {
		found, err := m.FoodItemByName(ctx, "donor-1", name)
		if err != nil {
			t.Fatalf("lookup %q failed: %v", name, err)
		}
		if found.ID != item.ID {
			t.Errorf("lookup %q returned wrong item", name)
		}
	}

	// Same name under a different donor is a miss.
	if _, err := m.FoodItemByName(ctx, "donor-2", "Rye Bread"); !errors.Is(err, types.ErrFoodItemNotFound) {
		t.Errorf("expected miss for other donor, got %v", err)
	}
}

func TestMemoryDonationsByStatus(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, status := range []types.DonationStatus{
		types.DonationStatusAvailable,
		types.DonationStatusAvailable,
		types.DonationStatusClaimed,
	} {
		donation := &types.Donation{DonorID: "donor-1", FoodItemID: "f-1", Quantity: "1 kg", Status: status}
		if err := m.CreateDonation(ctx, donation); err != nil {
			t.Fatal(err)
		}
	}

	available, err := m.DonationsByStatus(ctx, types.DonationStatusAvailable)
	if err != nil {
		t.Fatal(err)
	}
	if len(available) != 2 {
		t.Errorf("expected 2 available donations, got %d", len(available))
	}
}

func TestMemoryReturnsClones(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	donation := &types.Donation{
		DonorID:     "donor-1",
		FoodItemID:  "f-1",
		Quantity:    "1 kg",
		Status:      types.DonationStatusAvailable,
		PickupSlots: []types.PickupSlot{{Date: "2030-06-01", StartTime: "09:00", EndTime: "14:00"}},
	}
	if err := m.CreateDonation(ctx, donation); err != nil {
		t.Fatal(err)
	}

	first, err := m.Donation(ctx, donation.ID)
	if err != nil {
		t.Fatal(err)
	}
	first.Quantity = "mutated"
	first.PickupSlots[0].Date = "1999-01-01"

	second, err := m.Donation(ctx, donation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.Quantity != "1 kg" || second.PickupSlots[0].Date != "2030-06-01" {
		t.Errorf("caller mutation leaked into the store: %+v", second)
	}
}
