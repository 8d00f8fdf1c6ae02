package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zipli/internal/submit"
	"zipli/internal/utils"
	"zipli/internal/wizard"
	"zipli/pkg/types"

	"github.com/alexedwards/flow"
)

type DonateItemsPageData struct {
	types.BasePageData
	Items      []types.LineItem
	ActiveItem *types.LineItem
	Editing    bool
}

type DonatePickupPageData struct {
	types.BasePageData
	Slots     []types.PickupSlot
	Recurring *types.RecurringSchedule
}

type DonateSummaryPageData struct {
	types.BasePageData
	Items              []types.LineItem
	Slots              []types.PickupSlot
	Recurring          *types.RecurringSchedule
	Address            string
	DriverInstructions string
	Editing            bool
}

type ConfirmationPageData struct {
	types.BasePageData
	Saved   int
	Failed  int
	Updated bool
}

func (s *Service) handleGetDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)
	wiz.SetFlow(wizard.FlowDonation)

	http.Redirect(w, r, "/donate/items", http.StatusSeeOther)
}

func (s *Service) handleGetDonateItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	state := s.wizards.For(userID).State()

	data := &DonateItemsPageData{
		BasePageData: types.BasePageData{
			Title: "What are you donating?",
			Error: r.URL.Query().Get("error"),
		},
		Items:   state.Items,
		Editing: state.Editing,
	}

	for i := range state.Items {
		if state.Items[i].ID == state.ActiveItemID {
			data.ActiveItem = &state.Items[i]
			break
		}
	}

	if err := s.renderTemplate(w, r, "page.donate.items", data); err != nil {
		s.logger.WithError(err).Error("failed to render donate items page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostDonateItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Error("failed to parse form")
		s.internalServerError(w)
		return
	}

	var item types.LineItem
	if err := decoder.Decode(&item, r.Form); err != nil {
		s.logger.WithError(err).Error("failed to decode item form")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)
	wiz.SetFlow(wizard.FlowDonation)

	if strings.TrimSpace(item.Name) != "" {
		if item.ID != "" {
			// Preserve uploaded images across form round-trips.
			for _, existing := range wiz.State().Items {
				if existing.ID == item.ID {
					item.ImageURLs = existing.ImageURLs
					break
				}
			}
			wiz.UpdateItem(item)
		} else {
			wiz.AddItem(item)
		}
		wiz.SetActiveItem("")
	}

	if r.FormValue("next") == "true" {
		if len(wiz.State().Items) == 0 {
			s.redirectWithError(w, r, "/donate/items", "Add at least one food item before continuing.")
			return
		}
		http.Redirect(w, r, "/donate/pickup", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/donate/items", http.StatusSeeOther)
}

func (s *Service) handlePostDonateItemDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	itemID := flow.Param(ctx, "itemID")
	s.wizards.For(userID).DeleteItem(itemID)

	http.Redirect(w, r, "/donate/items", http.StatusSeeOther)
}

func (s *Service) handlePostDonateItemImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	if s.images == nil {
		s.redirectWithError(w, r, "/donate/items", "Image uploads are not configured.")
		return
	}

	itemID := flow.Param(ctx, "itemID")
	wiz := s.wizards.For(userID)

	var item *types.LineItem
	for _, candidate := range wiz.State().Items {
		if candidate.ID == itemID {
			item = &candidate
			break
		}
	}
	if item == nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		s.logger.WithError(err).Error("failed to parse multipart form")
		s.redirectWithError(w, r, "/donate/items", "Could not read the uploaded image.")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.logger.WithError(err).Error("missing image file in upload")
		s.redirectWithError(w, r, "/donate/items", "Could not read the uploaded image.")
		return
	}
	defer file.Close()

	path := fmt.Sprintf("%s/%s/%d-%s", userID, itemID, time.Now().UnixMilli(), header.Filename)
	key, err := s.images.UploadFile(ctx, path, file, header.Header.Get("Content-Type"))
	if err != nil {
		s.logger.WithError(err).Error("failed to upload item image")
		s.redirectWithError(w, r, "/donate/items", "Image upload failed. Please try again.")
		return
	}

	item.ImageURLs = append(item.ImageURLs, s.images.PublicURL(key))
	wiz.UpdateItem(*item)

	http.Redirect(w, r, "/donate/items", http.StatusSeeOther)
}

func (s *Service) handleGetDonatePickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	state := s.wizards.For(userID).State()

	data := &DonatePickupPageData{
		BasePageData: types.BasePageData{
			Title: "When can it be picked up?",
			Error: r.URL.Query().Get("error"),
		},
		Slots:     state.Slots,
		Recurring: state.Recurring,
	}

	if err := s.renderTemplate(w, r, "page.donate.pickup", data); err != nil {
		s.logger.WithError(err).Error("failed to render donate pickup page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostDonatePickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)

	next, err := s.applyPickupForm(r, wiz, "/donate/pickup")
	if err != nil {
		s.redirectWithError(w, r, "/donate/pickup", err.Error())
		return
	}

	if next {
		if state := wiz.State(); len(state.Slots) == 0 && state.Recurring == nil {
			s.redirectWithError(w, r, "/donate/pickup", "Add at least one pickup time before continuing.")
			return
		}
		http.Redirect(w, r, "/donate/summary", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/donate/pickup", http.StatusSeeOther)
}

// applyPickupForm handles the shared pickup step form: either a one-off slot
// or a recurring weekly schedule. Returns whether the user asked to advance.
func (s *Service) applyPickupForm(r *http.Request, wiz *wizard.Store, _ string) (bool, error) {
	if err := r.ParseForm(); err != nil {
		return false, fmt.Errorf("could not read the form")
	}

	next := r.FormValue("next") == "true"

	if r.FormValue("recurring") == "true" {
		var schedule types.RecurringSchedule
		if err := decoder.Decode(&schedule, r.Form); err != nil {
			return false, fmt.Errorf("could not read the recurring schedule")
		}

		if err := schedule.Validate(); err != nil {
			return false, err
		}

		wiz.SetRecurring(&schedule)
		return next, nil
	}

	// No slot fields present means the post was only a navigation.
	if r.FormValue("date") == "" && r.FormValue("start_time") == "" {
		return next, nil
	}

	var slot types.PickupSlot
	if err := decoder.Decode(&slot, r.Form); err != nil {
		return false, fmt.Errorf("could not read the pickup time")
	}

	if err := slot.Validate(time.Now()); err != nil {
		return false, err
	}

	if slot.ID != "" {
		wiz.UpdateSlot(slot)
	} else {
		wiz.AddSlot(slot)
	}

	return next, nil
}

func (s *Service) handlePostDonateSlotDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	slotID := flow.Param(ctx, "slotID")
	s.wizards.For(userID).DeleteSlot(slotID)

	http.Redirect(w, r, "/donate/pickup", http.StatusSeeOther)
}

func (s *Service) handleGetDonateSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	state := s.wizards.For(userID).State()

	data := &DonateSummaryPageData{
		BasePageData: types.BasePageData{
			Title: "Review your donation",
			Error: r.URL.Query().Get("error"),
		},
		Items:     state.Items,
		Slots:     state.Slots,
		Recurring: state.Recurring,
		Editing:   state.Editing,
	}

	// Prefill address and driver instructions from the profile.
	profile, err := s.profiles.Profile(ctx, userID)
	if err == nil {
		data.Address = utils.PtrString(profile.Address)
		data.DriverInstructions = utils.PtrString(profile.DriverInstructions)
	} else if !errors.Is(err, types.ErrProfileNotFound) {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to load profile for summary")
	}

	if err := s.renderTemplate(w, r, "page.donate.summary", data); err != nil {
		s.logger.WithError(err).Error("failed to render donate summary page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostDonateSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)

	opts := submit.Options{
		Address:                   strings.TrimSpace(r.FormValue("address")),
		DriverInstructions:        strings.TrimSpace(r.FormValue("driver_instructions")),
		SaveAddressToProfile:      r.FormValue("save_address") == "on",
		SaveInstructionsToProfile: r.FormValue("save_instructions") == "on",
	}

	outcome, err := s.orchestrator.Submit(ctx, userID, wiz, opts)
	if err != nil {
		var verr *submit.ValidationError
		if errors.As(err, &verr) {
			state := wiz.State()
			data := &DonateSummaryPageData{
				BasePageData: types.BasePageData{
					Title:       "Review your donation",
					Error:       "Please fix the highlighted fields.",
					FieldErrors: verr.Fields,
				},
				Items:              state.Items,
				Slots:              state.Slots,
				Recurring:          state.Recurring,
				Address:            opts.Address,
				DriverInstructions: opts.DriverInstructions,
				Editing:            state.Editing,
			}
			if renderErr := s.renderTemplate(w, r, "page.donate.summary", data); renderErr != nil {
				s.logger.WithError(renderErr).Error("failed to render donate summary with validation errors")
				s.internalServerError(w)
			}
			return
		}

		// Wizard state is preserved for retry.
		s.logger.WithError(err).WithField("user_id", userID).Error("donation submission failed")
		s.redirectWithError(w, r, "/donate/summary", "We couldn't save your donation. Please try again.")
		return
	}

	v := confirmationQuery(outcome.Saved(), len(outcome.Failed()), outcome.Updated)
	http.Redirect(w, r, "/donate/confirmation?"+v, http.StatusSeeOther)
}

func (s *Service) handleGetDonateConfirmation(w http.ResponseWriter, r *http.Request) {
	data := &ConfirmationPageData{
		BasePageData: types.BasePageData{Title: "Donation received"},
		Saved:        queryInt(r, "saved"),
		Failed:       queryInt(r, "failed"),
		Updated:      r.URL.Query().Get("updated") == "true",
	}

	if err := s.renderTemplate(w, r, "page.donate.confirmation", data); err != nil {
		s.logger.WithError(err).Error("failed to render donate confirmation page")
		s.internalServerError(w)
		return
	}
}

// handleGetDonateEdit enters edit mode: the wizard is re-seeded from the
// persisted donation and its food item, and submission will update in place.
func (s *Service) handleGetDonateEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	donationID := flow.Param(ctx, "donationID")

	donation, err := s.donations.Donation(ctx, donationID)
	if err != nil {
		if errors.Is(err, types.ErrDonationNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to load donation for edit")
		s.internalServerError(w)
		return
	}

	if donation.DonorID != userID {
		http.NotFound(w, r)
		return
	}

	foodItem, err := s.foodItems.FoodItem(ctx, donation.FoodItemID)
	if err != nil {
		s.logger.WithError(err).WithField("food_item_id", donation.FoodItemID).Error("failed to load food item for edit")
		s.internalServerError(w)
		return
	}

	item := types.LineItem{
		ID:          utils.NanoID(),
		Name:        foodItem.Name,
		Quantity:    donation.Quantity,
		Allergens:   foodItem.Allergens,
		Description: utils.PtrString(foodItem.Description),
	}
	if foodItem.ImageURL != nil {
		item.ImageURLs = []string{*foodItem.ImageURL}
	}

	slots := make([]types.PickupSlot, len(donation.PickupSlots))
	for i, slot := range donation.PickupSlots {
		slot.ID = utils.NanoID()
		slots[i] = slot
	}

	s.wizards.For(userID).Replace(wizard.State{
		Flow:      wizard.FlowDonation,
		Items:     []types.LineItem{item},
		Slots:     slots,
		Recurring: donation.PickupRecurring,
		Editing:   true,
		EditingID: donation.ID,
	})

	http.Redirect(w, r, "/donate/items", http.StatusSeeOther)
}

func confirmationQuery(saved, failed int, updated bool) string {
	v := fmt.Sprintf("saved=%d&failed=%d", saved, failed)
	if updated {
		v += "&updated=true"
	}
	return v
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
