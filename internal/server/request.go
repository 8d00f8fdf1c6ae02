package server

import (
	"errors"
	"net/http"
	"strings"

	"zipli/internal/submit"
	"zipli/internal/utils"
	"zipli/internal/wizard"
	"zipli/pkg/types"

	"github.com/alexedwards/flow"
)

type RequestDetailsPageData struct {
	types.BasePageData
	Details *types.RequestDetails
	Editing bool
}

type RequestPickupPageData struct {
	types.BasePageData
	Slots     []types.PickupSlot
	Recurring *types.RecurringSchedule
}

type RequestSummaryPageData struct {
	types.BasePageData
	Details   *types.RequestDetails
	Slots     []types.PickupSlot
	Recurring *types.RecurringSchedule
	Address   string
	Editing   bool
}

func (s *Service) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)
	wiz.SetFlow(wizard.FlowRequest)

	http.Redirect(w, r, "/request/details", http.StatusSeeOther)
}

func (s *Service) handleGetRequestDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	state := s.wizards.For(userID).State()

	data := &RequestDetailsPageData{
		BasePageData: types.BasePageData{
			Title: "What do you need?",
			Error: r.URL.Query().Get("error"),
		},
		Details: state.Request,
		Editing: state.Editing,
	}

	if err := s.renderTemplate(w, r, "page.request.details", data); err != nil {
		s.logger.WithError(err).Error("failed to render request details page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostRequestDetails(w http.ResponseWriter, r *http.Request) {
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

	var details types.RequestDetails
	if err := decoder.Decode(&details, r.Form); err != nil {
		s.logger.WithError(err).Error("failed to decode request details form")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)
	wiz.SetFlow(wizard.FlowRequest)
	wiz.SetRequestDetails(details)

	if strings.TrimSpace(details.Description) == "" || details.PeopleCount < 1 {
		s.redirectWithError(w, r, "/request/details", "Describe what you need and for how many people.")
		return
	}

	http.Redirect(w, r, "/request/pickup", http.StatusSeeOther)
}

func (s *Service) handleGetRequestPickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	state := s.wizards.For(userID).State()

	data := &RequestPickupPageData{
		BasePageData: types.BasePageData{
			Title: "When can you receive it?",
			Error: r.URL.Query().Get("error"),
		},
		Slots:     state.Slots,
		Recurring: state.Recurring,
	}

	if err := s.renderTemplate(w, r, "page.request.pickup", data); err != nil {
		s.logger.WithError(err).Error("failed to render request pickup page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostRequestPickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)

	next, err := s.applyPickupForm(r, wiz, "/request/pickup")
	if err != nil {
		s.redirectWithError(w, r, "/request/pickup", err.Error())
		return
	}

	if next {
		if state := wiz.State(); len(state.Slots) == 0 && state.Recurring == nil {
			s.redirectWithError(w, r, "/request/pickup", "Add at least one pickup time before continuing.")
			return
		}
		http.Redirect(w, r, "/request/summary", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/request/pickup", http.StatusSeeOther)
}

func (s *Service) handlePostRequestSlotDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	slotID := flow.Param(ctx, "slotID")
	s.wizards.For(userID).DeleteSlot(slotID)

	http.Redirect(w, r, "/request/pickup", http.StatusSeeOther)
}

func (s *Service) handleGetRequestSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	state := s.wizards.For(userID).State()

	data := &RequestSummaryPageData{
		BasePageData: types.BasePageData{
			Title: "Review your request",
			Error: r.URL.Query().Get("error"),
		},
		Details:   state.Request,
		Slots:     state.Slots,
		Recurring: state.Recurring,
		Editing:   state.Editing,
	}

	profile, err := s.profiles.Profile(ctx, userID)
	if err == nil {
		data.Address = utils.PtrString(profile.Address)
	} else if !errors.Is(err, types.ErrProfileNotFound) {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to load profile for request summary")
	}

	if err := s.renderTemplate(w, r, "page.request.summary", data); err != nil {
		s.logger.WithError(err).Error("failed to render request summary page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostRequestSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	wiz := s.wizards.For(userID)

	opts := submit.Options{
		Address:              strings.TrimSpace(r.FormValue("address")),
		SaveAddressToProfile: r.FormValue("save_address") == "on",
	}

	outcome, err := s.orchestrator.Submit(ctx, userID, wiz, opts)
	if err != nil {
		var verr *submit.ValidationError
		if errors.As(err, &verr) {
			state := wiz.State()
			data := &RequestSummaryPageData{
				BasePageData: types.BasePageData{
					Title:       "Review your request",
					Error:       "Please fix the highlighted fields.",
					FieldErrors: verr.Fields,
				},
				Details:   state.Request,
				Slots:     state.Slots,
				Recurring: state.Recurring,
				Address:   opts.Address,
				Editing:   state.Editing,
			}
			if renderErr := s.renderTemplate(w, r, "page.request.summary", data); renderErr != nil {
				s.logger.WithError(renderErr).Error("failed to render request summary with validation errors")
				s.internalServerError(w)
			}
			return
		}

		s.logger.WithError(err).WithField("user_id", userID).Error("request submission failed")
		s.redirectWithError(w, r, "/request/summary", "We couldn't save your request. Please try again.")
		return
	}

	query := "updated=false"
	if outcome.Updated {
		query = "updated=true"
	}
	http.Redirect(w, r, "/request/confirmation?"+query, http.StatusSeeOther)
}

func (s *Service) handleGetRequestConfirmation(w http.ResponseWriter, r *http.Request) {
	data := &ConfirmationPageData{
		BasePageData: types.BasePageData{Title: "Request received"},
		Updated:      r.URL.Query().Get("updated") == "true",
	}

	if err := s.renderTemplate(w, r, "page.request.confirmation", data); err != nil {
		s.logger.WithError(err).Error("failed to render request confirmation page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handleGetRequestEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	requestID := flow.Param(ctx, "requestID")

	request, err := s.requests.Request(ctx, requestID)
	if err != nil {
		if errors.Is(err, types.ErrRequestNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to load request for edit")
		s.internalServerError(w)
		return
	}

	if request.RequesterID != userID {
		http.NotFound(w, r)
		return
	}

	slots := make([]types.PickupSlot, len(request.PickupSlots))
	for i, slot := range request.PickupSlots {
		slot.ID = utils.NanoID()
		slots[i] = slot
	}

	s.wizards.For(userID).Replace(wizard.State{
		Flow: wizard.FlowRequest,
		Request: &types.RequestDetails{
			Description: request.Description,
			PeopleCount: request.PeopleCount,
		},
		Slots:     slots,
		Recurring: request.PickupRecurring,
		Editing:   true,
		EditingID: request.ID,
	})

	http.Redirect(w, r, "/request/details", http.StatusSeeOther)
}
