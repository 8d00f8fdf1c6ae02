package submit

import (
	"context"
	"errors"
	"io"
	"testing"

	"zipli/internal/store"
	"zipli/internal/wizard"
	"zipli/pkg/types"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestOrchestrator(memory *store.Memory) *Orchestrator {
	return New(memory, memory, memory, memory, testLogger())
}

func donationDraft(t *testing.T, snaps wizard.Snapshots, items ...types.LineItem) *wizard.Store {
	t.Helper()

	wiz := wizard.Open("donor-1", snaps, testLogger())
	wiz.SetFlow(wizard.FlowDonation)
	for _, item := range items {
		wiz.AddItem(item)
	}
	wiz.AddSlot(types.PickupSlot{Date: "2030-06-01", StartTime: "09:00", EndTime: "14:00"})
	return wiz
}

// failingDonations fails every CreateDonation after the first failAfter
// calls have gone through to the backing store.
type failingDonations struct {
	*store.Memory
	failAfter int
	calls     int
}

func (f *failingDonations) CreateDonation(ctx context.Context, donation *types.Donation) error {
	f.calls++
	if f.calls > f.failAfter {
		return errors.New("insert failed")
	}
	return f.Memory.CreateDonation(ctx, donation)
}

func TestSubmitCreatesDonationPerItem(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	ctx := context.Background()

	wiz := donationDraft(t, wizard.NewMemorySnapshots(),
		types.LineItem{Name: "Fresh Vegetables", Quantity: "10 kg", Allergens: []string{"None"}},
	)

	outcome, err := o.Submit(ctx, "donor-1", wiz, Options{Address: "Mannerheimintie 1, Helsinki"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome.Saved() != 1 || len(outcome.Failed()) != 0 {
		t.Fatalf("expected 1 saved, 0 failed, got %d/%d", outcome.Saved(), len(outcome.Failed()))
	}

	donation, err := memory.Donation(ctx, outcome.Results[0].DonationID)
	if err != nil {
		t.Fatalf("donation not persisted: %v", err)
	}
	if donation.Status != types.DonationStatusAvailable {
		t.Errorf("expected status available, got %s", donation.Status)
	}
	if len(donation.PickupSlots) != 1 {
		t.Fatalf("expected 1 pickup slot, got %d", len(donation.PickupSlots))
	}
	if donation.PickupSlots[0].ID != "" {
		t.Errorf("slot id should be stripped on the persisted record, got %q", donation.PickupSlots[0].ID)
	}

	foodItem, err := memory.FoodItemByName(ctx, "donor-1", "fresh vegetables")
	if err != nil {
		t.Fatalf("food item not created: %v", err)
	}
	if foodItem.ID != donation.FoodItemID {
		t.Errorf("donation not linked to the catalog entry")
	}
}

func TestSubmitReusesFoodItemByName(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	ctx := context.Background()

	// The donor already has a catalog entry with different casing.
	existing := &types.FoodItem{DonorID: "donor-1", Name: "RYE BREAD", Allergens: []string{"Gluten"}}
	if err := memory.CreateFoodItem(ctx, existing); err != nil {
		t.Fatal(err)
	}

	wiz := donationDraft(t, wizard.NewMemorySnapshots(),
		types.LineItem{Name: "Rye Bread", Quantity: "5 kg", Allergens: []string{"Gluten"}},
		types.LineItem{Name: "rye bread", Quantity: "3 kg", Allergens: []string{"Gluten"}},
	)

	outcome, err := o.Submit(ctx, "donor-1", wiz, Options{Address: "Mannerheimintie 1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome.Saved() != 2 {
		t.Fatalf("expected 2 saved, got %d", outcome.Saved())
	}
	for _, result := range outcome.Results {
		if !result.ReusedFoodItem {
			t.Errorf("expected item %q to reuse the existing catalog entry", result.Name)
		}
		if result.FoodItemID != existing.ID {
			t.Errorf("expected food item %s, got %s", existing.ID, result.FoodItemID)
		}
	}

	catalog, err := memory.FoodItemsByDonor(ctx, "donor-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 1 {
		t.Errorf("expected a single catalog entry, got %d", len(catalog))
	}

	donations, err := memory.DonationsByDonor(ctx, "donor-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(donations) != 2 {
		t.Errorf("expected 2 donations, got %d", len(donations))
	}
}

func TestSubmitClearsDraftOnSuccess(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	snaps := wizard.NewMemorySnapshots()

	wiz := donationDraft(t, snaps,
		types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}},
	)

	_, err := o.Submit(context.Background(), "donor-1", wiz, Options{Address: "Mannerheimintie 1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(wiz.State().Items) != 0 {
		t.Errorf("expected draft to be cleared")
	}
	if _, err := snaps.Load("donor-1"); err != wizard.ErrNoSnapshot {
		t.Errorf("expected snapshot removed, got err %v", err)
	}
}

func TestSubmitPreservesDraftWhenNothingSaved(t *testing.T) {
	memory := store.NewMemory()
	donations := &failingDonations{Memory: memory, failAfter: 0}
	o := New(memory, memory, donations, memory, testLogger())
	snaps := wizard.NewMemorySnapshots()

	wiz := donationDraft(t, snaps,
		types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}},
	)

	outcome, err := o.Submit(context.Background(), "donor-1", wiz, Options{Address: "Mannerheimintie 1"})
	if !errors.Is(err, ErrNothingSaved) {
		t.Fatalf("expected ErrNothingSaved, got %v", err)
	}
	if outcome == nil || outcome.Saved() != 0 || len(outcome.Failed()) != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	if len(wiz.State().Items) != 1 {
		t.Errorf("expected draft to survive a failed submission")
	}
	if _, err := snaps.Load("donor-1"); err != nil {
		t.Errorf("expected snapshot to survive, got err %v", err)
	}
}

func TestSubmitReportsPartialFailure(t *testing.T) {
	memory := store.NewMemory()
	donations := &failingDonations{Memory: memory, failAfter: 1}
	o := New(memory, memory, donations, memory, testLogger())
	snaps := wizard.NewMemorySnapshots()

	wiz := donationDraft(t, snaps,
		types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}},
		types.LineItem{Name: "Bread", Quantity: "2 kg", Allergens: []string{"Gluten"}},
	)

	outcome, err := o.Submit(context.Background(), "donor-1", wiz, Options{Address: "Mannerheimintie 1"})
	if err != nil {
		t.Fatalf("a partial failure should still succeed, got %v", err)
	}

	if outcome.Saved() != 1 {
		t.Errorf("expected 1 saved, got %d", outcome.Saved())
	}
	failed := outcome.Failed()
	if len(failed) != 1 || failed[0].Name != "Bread" {
		t.Fatalf("expected Bread to fail, got %+v", failed)
	}
	if failed[0].Err == nil {
		t.Errorf("failed result should carry its error")
	}

	// At least one save means the draft clears.
	if len(wiz.State().Items) != 0 {
		t.Errorf("expected draft to be cleared")
	}
}

func TestSubmitValidation(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	ctx := context.Background()

	cases := []struct {
		name  string
		build func(snaps wizard.Snapshots) *wizard.Store
		opts  Options
		field string
	}{
		{
			name: "missing address",
			build: func(snaps wizard.Snapshots) *wizard.Store {
				return donationDraft(t, snaps, types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}})
			},
			field: "address",
		},
		{
			name: "no items",
			build: func(snaps wizard.Snapshots) *wizard.Store {
				return donationDraft(t, snaps)
			},
			opts:  Options{Address: "Mannerheimintie 1"},
			field: "items",
		},
		{
			name: "item missing allergens",
			build: func(snaps wizard.Snapshots) *wizard.Store {
				return donationDraft(t, snaps, types.LineItem{Name: "Soup", Quantity: "4 l"})
			},
			opts:  Options{Address: "Mannerheimintie 1"},
			field: "items",
		},
		{
			name: "no pickup times",
			build: func(snaps wizard.Snapshots) *wizard.Store {
				wiz := wizard.Open("donor-1", snaps, testLogger())
				wiz.SetFlow(wizard.FlowDonation)
				wiz.AddItem(types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}})
				return wiz
			},
			opts:  Options{Address: "Mannerheimintie 1"},
			field: "slots",
		},
		{
			name: "slot ends before it starts",
			build: func(snaps wizard.Snapshots) *wizard.Store {
				wiz := wizard.Open("donor-1", snaps, testLogger())
				wiz.SetFlow(wizard.FlowDonation)
				wiz.AddItem(types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}})
				wiz.AddSlot(types.PickupSlot{Date: "2030-06-01", StartTime: "14:00", EndTime: "09:00"})
				return wiz
			},
			opts:  Options{Address: "Mannerheimintie 1"},
			field: "slots",
		},
		{
			name: "request without description",
			build: func(snaps wizard.Snapshots) *wizard.Store {
				wiz := wizard.Open("donor-1", snaps, testLogger())
				wiz.SetFlow(wizard.FlowRequest)
				wiz.SetRequestDetails(types.RequestDetails{PeopleCount: 10})
				wiz.AddSlot(types.PickupSlot{Date: "2030-06-01", StartTime: "09:00", EndTime: "14:00"})
				return wiz
			},
			opts:  Options{Address: "Mannerheimintie 1"},
			field: "description",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snaps := wizard.NewMemorySnapshots()
			wiz := tc.build(snaps)
			itemsBefore := len(wiz.State().Items)

			_, err := o.Submit(ctx, "donor-1", wiz, tc.opts)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("expected field %q flagged, got %v", tc.field, verr.Fields)
			}

			if len(wiz.State().Items) != itemsBefore {
				t.Errorf("validation failure must not touch the draft")
			}

			donations, _ := memory.DonationsByDonor(ctx, "donor-1")
			if len(donations) != 0 {
				t.Errorf("validation failure must not write records")
			}
		})
	}
}

func TestSubmitEditUpdatesInPlace(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	ctx := context.Background()

	foodItem := &types.FoodItem{DonorID: "donor-1", Name: "Soup", Allergens: []string{"None"}}
	if err := memory.CreateFoodItem(ctx, foodItem); err != nil {
		t.Fatal(err)
	}
	donation := &types.Donation{
		DonorID:    "donor-1",
		FoodItemID: foodItem.ID,
		Quantity:   "5 l",
		Status:     types.DonationStatusAvailable,
		Address:    "Mannerheimintie 1",
	}
	if err := memory.CreateDonation(ctx, donation); err != nil {
		t.Fatal(err)
	}

	wiz := wizard.Open("donor-1", wizard.NewMemorySnapshots(), testLogger())
	wiz.Replace(wizard.State{
		Flow:      wizard.FlowDonation,
		Editing:   true,
		EditingID: donation.ID,
		Items:     []types.LineItem{{ID: "li-1", Name: "Soup", Quantity: "8 l", Allergens: []string{"None"}}},
		Slots:     []types.PickupSlot{{ID: "s-1", Date: "2030-06-01", StartTime: "09:00", EndTime: "14:00"}},
	})

	outcome, err := o.Submit(ctx, "donor-1", wiz, Options{Address: "Mannerheimintie 2"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !outcome.Updated {
		t.Errorf("expected outcome.Updated")
	}

	updated, err := memory.Donation(ctx, donation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Quantity != "8 l" {
		t.Errorf("expected quantity updated to 8 l, got %q", updated.Quantity)
	}
	if updated.Address != "Mannerheimintie 2" {
		t.Errorf("expected address updated, got %q", updated.Address)
	}

	donations, _ := memory.DonationsByDonor(ctx, "donor-1")
	if len(donations) != 1 {
		t.Errorf("edit must not create a new donation, have %d", len(donations))
	}
	catalog, _ := memory.FoodItemsByDonor(ctx, "donor-1")
	if len(catalog) != 1 {
		t.Errorf("edit must not create a new food item, have %d", len(catalog))
	}
}

func TestSubmitEditRejectsForeignDonation(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	ctx := context.Background()

	donation := &types.Donation{DonorID: "someone-else", FoodItemID: "f-1", Quantity: "5 l", Status: types.DonationStatusAvailable}
	if err := memory.CreateDonation(ctx, donation); err != nil {
		t.Fatal(err)
	}

	wiz := wizard.Open("donor-1", wizard.NewMemorySnapshots(), testLogger())
	wiz.Replace(wizard.State{
		Flow:      wizard.FlowDonation,
		Editing:   true,
		EditingID: donation.ID,
		Items:     []types.LineItem{{ID: "li-1", Name: "Soup", Quantity: "8 l", Allergens: []string{"None"}}},
		Slots:     []types.PickupSlot{{Date: "2030-06-01", StartTime: "09:00", EndTime: "14:00"}},
	})

	_, err := o.Submit(ctx, "donor-1", wiz, Options{Address: "Mannerheimintie 1"})
	if !errors.Is(err, types.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if len(wiz.State().Items) != 1 {
		t.Errorf("failed edit must preserve the draft")
	}
}

func TestSubmitRequestFlow(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	ctx := context.Background()

	wiz := wizard.Open("receiver-1", wizard.NewMemorySnapshots(), testLogger())
	wiz.SetFlow(wizard.FlowRequest)
	wiz.SetRequestDetails(types.RequestDetails{Description: "Warm meals for a shelter", PeopleCount: 25})
	wiz.SetRecurring(&types.RecurringSchedule{Weekdays: []string{"monday"}, StartTime: "16:00", EndTime: "18:00"})

	outcome, err := o.Submit(ctx, "receiver-1", wiz, Options{Address: "Hämeentie 5"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.Flow != wizard.FlowRequest || outcome.RequestID == "" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	request, err := memory.Request(ctx, outcome.RequestID)
	if err != nil {
		t.Fatal(err)
	}
	if request.Status != types.RequestStatusActive {
		t.Errorf("expected active request, got %s", request.Status)
	}
	if request.PeopleCount != 25 {
		t.Errorf("expected 25 people, got %d", request.PeopleCount)
	}
	if request.PickupRecurring == nil || request.PickupRecurring.StartTime != "16:00" {
		t.Errorf("recurring schedule not persisted: %+v", request.PickupRecurring)
	}

	if len(wiz.State().Items) != 0 || wiz.State().Request != nil {
		t.Errorf("expected draft to be cleared")
	}
}

func TestSubmitWritesAddressBackToProfile(t *testing.T) {
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)
	ctx := context.Background()

	profile := &types.Profile{ID: "donor-1", Role: types.ProfileRoleDonor, FullName: "Hanna"}
	if err := memory.CreateProfile(ctx, profile); err != nil {
		t.Fatal(err)
	}

	wiz := donationDraft(t, wizard.NewMemorySnapshots(),
		types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}},
	)

	_, err := o.Submit(ctx, "donor-1", wiz, Options{
		Address:              "Mannerheimintie 9",
		DriverInstructions:   "Ring the side door bell",
		SaveAddressToProfile: true,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	saved, err := memory.Profile(ctx, "donor-1")
	if err != nil {
		t.Fatal(err)
	}
	if saved.Address == nil || *saved.Address != "Mannerheimintie 9" {
		t.Errorf("expected address written back, got %v", saved.Address)
	}
	if saved.DriverInstructions != nil {
		t.Errorf("instructions write-back was not opted in, got %v", saved.DriverInstructions)
	}
}

func TestSubmitProfileWriteBackIsBestEffort(t *testing.T) {
	// No profile exists, so the write-back fails; the submission must not.
	memory := store.NewMemory()
	o := newTestOrchestrator(memory)

	wiz := donationDraft(t, wizard.NewMemorySnapshots(),
		types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}},
	)

	outcome, err := o.Submit(context.Background(), "donor-1", wiz, Options{
		Address:              "Mannerheimintie 9",
		SaveAddressToProfile: true,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.Saved() != 1 {
		t.Errorf("expected donation saved despite write-back failure")
	}
}
