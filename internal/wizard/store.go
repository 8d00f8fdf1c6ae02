// Package wizard holds the mutable state of an in-progress donation or
// request while the user moves between steps. Every mutation is written
// through to a Snapshots backend so a dropped session resumes where it left
// off; the store itself never performs network I/O and never fails.
package wizard

import (
	"encoding/json"
	"sync"

	"zipli/internal/utils"
	"zipli/pkg/types"

	"github.com/sirupsen/logrus"
)

type Flow string

const (
	FlowDonation Flow = "donation"
	FlowRequest  Flow = "request"
)

// SnapshotVersion is bumped whenever State changes shape. Snapshots carrying
// a different version are discarded on load rather than migrated.
const SnapshotVersion = 1

type State struct {
	Version   int                      `json:"version"`
	Flow      Flow                     `json:"flow"`
	Items     []types.LineItem         `json:"items"`
	Slots     []types.PickupSlot       `json:"slots"`
	Recurring *types.RecurringSchedule `json:"recurring,omitempty"`
	Request   *types.RequestDetails    `json:"request,omitempty"`

	// Edit mode binds the draft to an existing record; submission then
	// updates instead of creating.
	Editing   bool   `json:"editing"`
	EditingID string `json:"editing_id,omitempty"`

	// ActiveItemID tracks which line item the item form is editing, so a
	// delete of that item can reset the form to a blank state.
	ActiveItemID string `json:"active_item_id,omitempty"`
}

type Store struct {
	mu     sync.Mutex
	owner  string
	state  State
	snaps  Snapshots
	logger logrus.FieldLogger
}

// Open rehydrates the owner's draft from the snapshot store. A missing,
// malformed, or version-mismatched snapshot falls back to an empty draft.
func Open(owner string, snaps Snapshots, logger logrus.FieldLogger) *Store {
	s := &Store{
		owner:  owner,
		snaps:  snaps,
		logger: logger,
	}

	data, err := snaps.Load(owner)
	if err != nil {
		if err != ErrNoSnapshot {
			logger.WithError(err).WithField("owner", owner).Warn("failed to load wizard snapshot, starting empty")
		}
		return s
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		logger.WithError(err).WithField("owner", owner).Warn("malformed wizard snapshot, starting empty")
		return s
	}

	if state.Version != SnapshotVersion {
		logger.WithFields(logrus.Fields{
			"owner":   owner,
			"version": state.Version,
		}).Warn("wizard snapshot version mismatch, starting empty")
		return s
	}

	s.state = state
	return s
}

func (s *Store) Owner() string {
	return s.owner
}

// State returns a deep copy; callers can never mutate the draft through it.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyState(s.state)
}

func (s *Store) SetFlow(flow Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Flow = flow
	s.persist()
}

// AddItem appends the line item, assigning an ID when the caller did not
// provide one, and returns the item's ID.
func (s *Store) AddItem(item types.LineItem) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = utils.NanoID()
	}

	s.state.Items = append(s.state.Items, item)
	s.persist()
	return item.ID
}

// UpdateItem replaces the item with a matching ID. Unknown IDs are a no-op;
// callers are expected to pass IDs that exist.
func (s *Store) UpdateItem(item types.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Items {
		if s.state.Items[i].ID == item.ID {
			s.state.Items[i] = item
			s.persist()
			return
		}
	}
}

func (s *Store) DeleteItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.state.Items[:0]
	for _, item := range s.state.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	s.state.Items = items

	if s.state.ActiveItemID == itemID {
		s.state.ActiveItemID = ""
	}

	s.persist()
}

func (s *Store) SetActiveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ActiveItemID = itemID
	s.persist()
}

func (s *Store) AddSlot(slot types.PickupSlot) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.ID == "" {
		slot.ID = utils.NanoID()
	}

	s.state.Slots = append(s.state.Slots, slot)
	s.persist()
	return slot.ID
}

func (s *Store) UpdateSlot(slot types.PickupSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Slots {
		if s.state.Slots[i].ID == slot.ID {
			s.state.Slots[i] = slot
			s.persist()
			return
		}
	}
}

func (s *Store) DeleteSlot(slotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := s.state.Slots[:0]
	for _, slot := range s.state.Slots {
		if slot.ID != slotID {
			slots = append(slots, slot)
		}
	}
	s.state.Slots = slots

	s.persist()
}

func (s *Store) SetRecurring(schedule *types.RecurringSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Recurring = schedule
	s.persist()
}

func (s *Store) SetRequestDetails(details types.RequestDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Request = &details
	s.persist()
}

func (s *Store) SetEditMode(editing bool, recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Editing = editing
	s.state.EditingID = recordID
	if !editing {
		s.state.EditingID = ""
	}
	s.persist()
}

// Replace swaps the whole draft, used when entering edit mode with state
// rebuilt from a persisted record.
func (s *Store) Replace(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = copyState(state)
	s.persist()
}

// Clear resets the draft and removes the snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	if err := s.snaps.Delete(s.owner); err != nil {
		s.logger.WithError(err).WithField("owner", s.owner).Warn("failed to delete wizard snapshot")
	}
}

// persist writes the current state through the snapshot backend. Callers
// hold s.mu. Snapshot failures are logged, never surfaced: losing a draft is
// acceptable, failing a mutation is not.
func (s *Store) persist() {
	state := s.state
	state.Version = SnapshotVersion

	data, err := json.Marshal(state)
	if err != nil {
		s.logger.WithError(err).WithField("owner", s.owner).Error("failed to marshal wizard snapshot")
		return
	}

	if err := s.snaps.Save(s.owner, data); err != nil {
		s.logger.WithError(err).WithField("owner", s.owner).Warn("failed to save wizard snapshot")
	}
}

func copyState(in State) State {
	out := in

	out.Items = make([]types.LineItem, len(in.Items))
	for i, item := range in.Items {
		out.Items[i] = item
		out.Items[i].Allergens = append([]string(nil), item.Allergens...)
		out.Items[i].ImageURLs = append([]string(nil), item.ImageURLs...)
	}

	out.Slots = append([]types.PickupSlot(nil), in.Slots...)

	if in.Recurring != nil {
		recurring := *in.Recurring
		recurring.Weekdays = append([]string(nil), in.Recurring.Weekdays...)
		out.Recurring = &recurring
	}

	if in.Request != nil {
		request := *in.Request
		out.Request = &request
	}

	return out
}
