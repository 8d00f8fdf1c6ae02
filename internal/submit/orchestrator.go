// Package submit is the terminal step of the wizard: it reconciles the
// draft against the data store, resolving food items by name, creating or
// updating the persisted records, and clearing the draft once the work is
// done. Items are persisted sequentially so the name lookup stays race-free
// within one submission.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zipli/internal/store"
	"zipli/internal/utils"
	"zipli/internal/wizard"
	"zipli/pkg/types"

	"github.com/sirupsen/logrus"
)

// ErrNothingSaved means every line item failed to persist. The wizard draft
// is left untouched so the user can retry.
var ErrNothingSaved = errors.New("no items could be saved")

type Orchestrator struct {
	profiles  store.Profiles
	foodItems store.FoodItems
	donations store.Donations
	requests  store.Requests
	logger    logrus.FieldLogger
	now       func() time.Time
}

func New(
	profiles store.Profiles,
	foodItems store.FoodItems,
	donations store.Donations,
	requests store.Requests,
	logger logrus.FieldLogger,
) *Orchestrator {
	return &Orchestrator{
		profiles:  profiles,
		foodItems: foodItems,
		donations: donations,
		requests:  requests,
		logger:    logger,
		now:       time.Now,
	}
}

// Options carries the fields collected on the summary step, outside the
// wizard draft itself.
type Options struct {
	Address            string
	DriverInstructions string

	// Opt-in write-back of the address / instructions onto the profile.
	SaveAddressToProfile      bool
	SaveInstructionsToProfile bool
}

// ItemResult is the outcome of one line item. A nil Err means both the food
// item resolution and the donation write succeeded.
type ItemResult struct {
	ItemID         string
	Name           string
	FoodItemID     string
	DonationID     string
	ReusedFoodItem bool
	Err            error
}

type Outcome struct {
	Flow    wizard.Flow
	Updated bool
	Results []ItemResult

	// RequestID is set for the request flow.
	RequestID string
}

func (o *Outcome) Saved() int {
	n := 0
	for _, r := range o.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (o *Outcome) Failed() []ItemResult {
	out := make([]ItemResult, 0)
	for _, r := range o.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Submit validates the draft and persists it. The draft is cleared only
// after every item has been attempted and at least one write succeeded; on
// validation failure or total persistence failure it is left untouched.
func (o *Orchestrator) Submit(ctx context.Context, userID string, wiz *wizard.Store, opts Options) (*Outcome, error) {
	state := wiz.State()

	if verr := validate(state, opts, o.now()); verr != nil {
		return nil, verr
	}

	var (
		outcome *Outcome
		err     error
	)

	switch state.Flow {
	case wizard.FlowRequest:
		outcome, err = o.submitRequest(ctx, userID, state, opts)
	default:
		if state.Editing {
			outcome, err = o.updateDonation(ctx, userID, state, opts)
		} else {
			outcome, err = o.createDonations(ctx, userID, state, opts)
		}
	}
	if err != nil {
		return outcome, err
	}

	o.writeBackProfile(ctx, userID, opts)

	wiz.Clear()
	return outcome, nil
}

func (o *Orchestrator) createDonations(ctx context.Context, userID string, state wizard.State, opts Options) (*Outcome, error) {
	outcome := &Outcome{Flow: wizard.FlowDonation}
	slots := formatSlots(state.Slots)

	for _, item := range state.Items {
		result := ItemResult{ItemID: item.ID, Name: item.Name}

		foodItem, reused, err := o.resolveFoodItem(ctx, userID, item)
		if err != nil {
			o.logger.WithError(err).WithField("item", item.Name).Error("failed to resolve food item, skipping")
			result.Err = fmt.Errorf("resolve food item %q: %w", item.Name, err)
			outcome.Results = append(outcome.Results, result)
			continue
		}
		result.FoodItemID = foodItem.ID
		result.ReusedFoodItem = reused

		donation := &types.Donation{
			DonorID:            userID,
			FoodItemID:         foodItem.ID,
			Quantity:           item.Quantity,
			Status:             types.DonationStatusAvailable,
			PickupSlots:        slots,
			PickupRecurring:    state.Recurring,
			Address:            opts.Address,
			DriverInstructions: nullableString(opts.DriverInstructions),
		}

		if err := o.donations.CreateDonation(ctx, donation); err != nil {
			o.logger.WithError(err).WithField("item", item.Name).Error("failed to create donation, skipping")
			result.Err = fmt.Errorf("create donation for %q: %w", item.Name, err)
			outcome.Results = append(outcome.Results, result)
			continue
		}

		result.DonationID = donation.ID
		outcome.Results = append(outcome.Results, result)
	}

	if outcome.Saved() == 0 {
		return outcome, ErrNothingSaved
	}

	return outcome, nil
}

// resolveFoodItem reuses an existing catalog entry when the donor already
// has one with the same name, creating it otherwise. Because items are
// processed in order, a second line item with the same name within one
// submission finds the entry created by the first.
func (o *Orchestrator) resolveFoodItem(ctx context.Context, userID string, item types.LineItem) (*types.FoodItem, bool, error) {
	existing, err := o.foodItems.FoodItemByName(ctx, userID, item.Name)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, types.ErrFoodItemNotFound) {
		return nil, false, err
	}

	foodItem := &types.FoodItem{
		DonorID:     userID,
		Name:        item.Name,
		Description: nullableString(item.Description),
		Allergens:   item.Allergens,
	}
	if len(item.ImageURLs) > 0 {
		foodItem.ImageURL = utils.StringPtr(item.ImageURLs[0])
	}

	if err := o.foodItems.CreateFoodItem(ctx, foodItem); err != nil {
		return nil, false, err
	}

	return foodItem, false, nil
}

// updateDonation handles edit mode: the single existing food item and
// donation are updated in place, with no dedup lookup.
func (o *Orchestrator) updateDonation(ctx context.Context, userID string, state wizard.State, opts Options) (*Outcome, error) {
	donation, err := o.donations.Donation(ctx, state.EditingID)
	if err != nil {
		return nil, fmt.Errorf("load donation %s: %w", state.EditingID, err)
	}

	if donation.DonorID != userID {
		return nil, types.ErrNotOwner
	}

	item := state.Items[0]
	result := ItemResult{ItemID: item.ID, Name: item.Name, FoodItemID: donation.FoodItemID, DonationID: donation.ID}

	foodItem, err := o.foodItems.FoodItem(ctx, donation.FoodItemID)
	if err != nil {
		return nil, fmt.Errorf("load food item %s: %w", donation.FoodItemID, err)
	}

	foodItem.Name = item.Name
	foodItem.Description = nullableString(item.Description)
	foodItem.Allergens = item.Allergens
	if len(item.ImageURLs) > 0 {
		foodItem.ImageURL = utils.StringPtr(item.ImageURLs[0])
	}

	if err := o.foodItems.UpdateFoodItem(ctx, foodItem.ID, foodItem); err != nil {
		return nil, fmt.Errorf("update food item %s: %w", foodItem.ID, err)
	}

	donation.Quantity = item.Quantity
	donation.PickupSlots = formatSlots(state.Slots)
	donation.PickupRecurring = state.Recurring
	donation.Address = opts.Address
	donation.DriverInstructions = nullableString(opts.DriverInstructions)

	if err := o.donations.UpdateDonation(ctx, donation.ID, donation); err != nil {
		return nil, fmt.Errorf("update donation %s: %w", donation.ID, err)
	}

	return &Outcome{
		Flow:    wizard.FlowDonation,
		Updated: true,
		Results: []ItemResult{result},
	}, nil
}

func (o *Orchestrator) submitRequest(ctx context.Context, userID string, state wizard.State, opts Options) (*Outcome, error) {
	outcome := &Outcome{Flow: wizard.FlowRequest, Updated: state.Editing}

	if state.Editing {
		request, err := o.requests.Request(ctx, state.EditingID)
		if err != nil {
			return nil, fmt.Errorf("load request %s: %w", state.EditingID, err)
		}

		if request.RequesterID != userID {
			return nil, types.ErrNotOwner
		}

		request.Description = state.Request.Description
		request.PeopleCount = state.Request.PeopleCount
		request.PickupSlots = formatSlots(state.Slots)
		request.PickupRecurring = state.Recurring
		request.Address = opts.Address

		if err := o.requests.UpdateRequest(ctx, request.ID, request); err != nil {
			return nil, fmt.Errorf("update request %s: %w", request.ID, err)
		}

		outcome.RequestID = request.ID
		return outcome, nil
	}

	request := &types.Request{
		RequesterID:     userID,
		Description:     state.Request.Description,
		PeopleCount:     state.Request.PeopleCount,
		Status:          types.RequestStatusActive,
		PickupSlots:     formatSlots(state.Slots),
		PickupRecurring: state.Recurring,
		Address:         opts.Address,
	}

	if err := o.requests.CreateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	outcome.RequestID = request.ID
	return outcome, nil
}

// writeBackProfile persists address / instructions onto the profile when the
// user opted in. Best effort: a failure here never fails the submission.
func (o *Orchestrator) writeBackProfile(ctx context.Context, userID string, opts Options) {
	if !opts.SaveAddressToProfile && !opts.SaveInstructionsToProfile {
		return
	}

	profile, err := o.profiles.Profile(ctx, userID)
	if err != nil {
		o.logger.WithError(err).WithField("user_id", userID).Warn("failed to load profile for write-back")
		return
	}

	if opts.SaveAddressToProfile {
		profile.Address = utils.StringPtr(opts.Address)
	}
	if opts.SaveInstructionsToProfile {
		profile.DriverInstructions = nullableString(opts.DriverInstructions)
	}

	if err := o.profiles.UpdateProfile(ctx, userID, profile); err != nil {
		o.logger.WithError(err).WithField("user_id", userID).Warn("failed to write address back to profile")
	}
}

// formatSlots strips the wizard-local slot IDs before the list is serialized
// onto the persisted record.
func formatSlots(slots []types.PickupSlot) []types.PickupSlot {
	out := make([]types.PickupSlot, len(slots))
	for i, slot := range slots {
		slot.ID = ""
		out[i] = slot
	}
	return out
}

func nullableString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
