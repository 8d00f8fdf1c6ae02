package wizard

import (
	"encoding/json"
	"io"
	"testing"

	"zipli/pkg/types"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestStoreDraftRoundTrip(t *testing.T) {
	snaps := NewMemorySnapshots()

	wiz := Open("user-1", snaps, testLogger())
	wiz.SetFlow(FlowDonation)

	itemID := wiz.AddItem(types.LineItem{Name: "Rye Bread", Quantity: "5 kg", Allergens: []string{"Gluten"}})
	wiz.AddItem(types.LineItem{Name: "Oat Milk", Quantity: "12 l", Allergens: []string{"None"}})
	wiz.AddSlot(types.PickupSlot{Date: "2030-01-02", StartTime: "09:00", EndTime: "12:00"})
	wiz.SetActiveItem(itemID)

	// A new store for the same owner must rehydrate the full draft.
	restored := Open("user-1", snaps, testLogger())
	state := restored.State()

	if state.Flow != FlowDonation {
		t.Errorf("expected flow %q, got %q", FlowDonation, state.Flow)
	}
	if len(state.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(state.Items))
	}
	if state.Items[0].ID != itemID {
		t.Errorf("expected first item id %q, got %q", itemID, state.Items[0].ID)
	}
	if state.Items[0].Name != "Rye Bread" || state.Items[0].Allergens[0] != "Gluten" {
		t.Errorf("first item not restored: %+v", state.Items[0])
	}
	if len(state.Slots) != 1 || state.Slots[0].Date != "2030-01-02" {
		t.Errorf("slots not restored: %+v", state.Slots)
	}
	if state.ActiveItemID != itemID {
		t.Errorf("expected active item %q, got %q", itemID, state.ActiveItemID)
	}
}

func TestOpenFallsBackToEmpty(t *testing.T) {
	t.Run("missing snapshot", func(t *testing.T) {
		wiz := Open("nobody", NewMemorySnapshots(), testLogger())
		if len(wiz.State().Items) != 0 {
			t.Errorf("expected empty draft")
		}
	})

	t.Run("malformed snapshot", func(t *testing.T) {
		snaps := NewMemorySnapshots()
		if err := snaps.Save("user-1", []byte("{not json")); err != nil {
			t.Fatal(err)
		}

		wiz := Open("user-1", snaps, testLogger())
		state := wiz.State()
		if state.Flow != "" || len(state.Items) != 0 {
			t.Errorf("expected empty draft, got %+v", state)
		}
	})

	t.Run("version mismatch", func(t *testing.T) {
		snaps := NewMemorySnapshots()
		stale, _ := json.Marshal(State{
			Version: SnapshotVersion + 1,
			Flow:    FlowDonation,
			Items:   []types.LineItem{{ID: "a", Name: "Bread"}},
		})
		if err := snaps.Save("user-1", stale); err != nil {
			t.Fatal(err)
		}

		wiz := Open("user-1", snaps, testLogger())
		if len(wiz.State().Items) != 0 {
			t.Errorf("expected stale snapshot to be discarded")
		}
	})
}

func TestDeleteItemResetsActiveItem(t *testing.T) {
	wiz := Open("user-1", NewMemorySnapshots(), testLogger())

	keepID := wiz.AddItem(types.LineItem{Name: "Soup", Quantity: "4 l", Allergens: []string{"None"}})
	dropID := wiz.AddItem(types.LineItem{Name: "Bread", Quantity: "2 kg", Allergens: []string{"Gluten"}})
	wiz.SetActiveItem(dropID)

	wiz.DeleteItem(dropID)

	state := wiz.State()
	if len(state.Items) != 1 || state.Items[0].ID != keepID {
		t.Fatalf("expected only %q to remain, got %+v", keepID, state.Items)
	}
	if state.ActiveItemID != "" {
		t.Errorf("expected active item to reset, got %q", state.ActiveItemID)
	}

	// Deleting a non-active item leaves the active marker alone.
	wiz.SetActiveItem(keepID)
	wiz.DeleteItem("unknown")
	if wiz.State().ActiveItemID != keepID {
		t.Errorf("expected active item to survive unrelated delete")
	}
}

func TestUpdateItemUnknownIDIsNoop(t *testing.T) {
	wiz := Open("user-1", NewMemorySnapshots(), testLogger())
	wiz.AddItem(types.LineItem{Name: "Soup", Quantity: "4 l"})

	wiz.UpdateItem(types.LineItem{ID: "missing", Name: "Ghost"})

	state := wiz.State()
	if len(state.Items) != 1 || state.Items[0].Name != "Soup" {
		t.Errorf("unexpected items after unknown update: %+v", state.Items)
	}
}

func TestClearRemovesSnapshot(t *testing.T) {
	snaps := NewMemorySnapshots()
	wiz := Open("user-1", snaps, testLogger())
	wiz.AddItem(types.LineItem{Name: "Soup"})

	wiz.Clear()

	if len(wiz.State().Items) != 0 {
		t.Errorf("expected cleared draft")
	}
	if _, err := snaps.Load("user-1"); err != ErrNoSnapshot {
		t.Errorf("expected snapshot to be deleted, got err %v", err)
	}
}

func TestStateReturnsCopy(t *testing.T) {
	wiz := Open("user-1", NewMemorySnapshots(), testLogger())
	wiz.AddItem(types.LineItem{Name: "Soup", Allergens: []string{"None"}})

	state := wiz.State()
	state.Items[0].Name = "changed"
	state.Items[0].Allergens[0] = "changed"

	fresh := wiz.State()
	if fresh.Items[0].Name != "Soup" || fresh.Items[0].Allergens[0] != "None" {
		t.Errorf("caller mutation leaked into the draft: %+v", fresh.Items[0])
	}
}

func TestFileSnapshotsRoundTrip(t *testing.T) {
	snaps, err := NewFileSnapshots(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := snaps.Load("user/1"); err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	if err := snaps.Save("user/1", []byte(`{"version":1}`)); err != nil {
		t.Fatal(err)
	}

	data, err := snaps.Load("user/1")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":1}` {
		t.Errorf("unexpected payload %q", data)
	}

	if err := snaps.Delete("user/1"); err != nil {
		t.Fatal(err)
	}
	if _, err := snaps.Load("user/1"); err != ErrNoSnapshot {
		t.Errorf("expected snapshot gone, got err %v", err)
	}

	// Deleting twice is fine.
	if err := snaps.Delete("user/1"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}
