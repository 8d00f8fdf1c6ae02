package server

import (
	"errors"
	"net/http"
	"time"

	"zipli/internal/utils"
	"zipli/pkg/types"

	"github.com/alexedwards/flow"
)

type DashboardPageData struct {
	types.BasePageData
	Role        types.ProfileRole
	FullName    string
	MyDonations []*types.Donation
	MyRequests  []*types.Request
	Available   []*types.Donation
}

type DonationDetailPageData struct {
	types.BasePageData
	Donation *types.Donation
	FoodItem *types.FoodItem
	IsOwner  bool
}

// handleDashboard is role-aware: donors see their donations, receivers see
// the available feed, city and terminal accounts see both.
func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain user")
		s.internalServerError(w)
		return
	}

	data := &DashboardPageData{
		BasePageData: types.BasePageData{
			Title:  "Dashboard",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		Role: types.ProfileRoleDonor,
	}

	profile, err := s.profiles.Profile(ctx, userID)
	if err == nil {
		data.Role = profile.Role
		data.FullName = profile.FullName
	} else if !errors.Is(err, types.ErrProfileNotFound) {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to load profile for dashboard")
		s.internalServerError(w)
		return
	}

	showOwn := data.Role == types.ProfileRoleDonor || data.Role == types.ProfileRoleCity || data.Role == types.ProfileRoleTerminal
	showFeed := data.Role != types.ProfileRoleDonor

	if showOwn {
		donations, err := s.donations.DonationsByDonor(ctx, userID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("failed to load donations for dashboard")
			s.internalServerError(w)
			return
		}
		data.MyDonations = donations
	}

	requests, err := s.requests.RequestsByRequester(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to load requests for dashboard")
		s.internalServerError(w)
		return
	}
	data.MyRequests = requests

	if showFeed {
		available, err := s.donations.DonationsByStatus(ctx, types.DonationStatusAvailable)
		if err != nil {
			s.logger.WithError(err).Error("failed to load available donations for dashboard")
			s.internalServerError(w)
			return
		}
		data.Available = available
	}

	if err := s.renderTemplate(w, r, "page.dashboard", data); err != nil {
		s.logger.WithError(err).Error("failed to render dashboard page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handleDonationDetail(w http.ResponseWriter, r *http.Request) {
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
		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to load donation")
		s.internalServerError(w)
		return
	}

	foodItem, err := s.foodItems.FoodItem(ctx, donation.FoodItemID)
	if err != nil {
		s.logger.WithError(err).WithField("food_item_id", donation.FoodItemID).Error("failed to load food item for donation")
		s.internalServerError(w)
		return
	}

	data := &DonationDetailPageData{
		BasePageData: types.BasePageData{
			Title:  foodItem.Name,
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		Donation: donation,
		FoodItem: foodItem,
		IsOwner:  donation.DonorID == userID,
	}

	if err := s.renderTemplate(w, r, "page.donation.detail", data); err != nil {
		s.logger.WithError(err).Error("failed to render donation detail page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostDonationClaim(w http.ResponseWriter, r *http.Request) {
	s.transitionDonation(w, r, types.DonationStatusClaimed, "Donation claimed. Arrange the pickup with the donor.")
}

func (s *Service) handlePostDonationPickup(w http.ResponseWriter, r *http.Request) {
	s.transitionDonation(w, r, types.DonationStatusPickedUp, "Donation marked as picked up.")
}

func (s *Service) handlePostDonationCancel(w http.ResponseWriter, r *http.Request) {
	s.transitionDonation(w, r, types.DonationStatusCancelled, "Donation cancelled.")
}

func (s *Service) transitionDonation(w http.ResponseWriter, r *http.Request, next types.DonationStatus, notice string) {
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
		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to load donation for transition")
		s.internalServerError(w)
		return
	}

	// Cancelling is the donor's move; claiming belongs to everyone else.
	if next == types.DonationStatusCancelled && donation.DonorID != userID {
		http.NotFound(w, r)
		return
	}
	if next == types.DonationStatusClaimed && donation.DonorID == userID {
		s.redirectWithError(w, r, "/donations/"+donationID, "You can't claim your own donation.")
		return
	}

	if !donation.Status.CanTransitionTo(next) {
		s.logger.WithError(types.ErrInvalidTransition).WithFields(map[string]any{
			"donation_id": donationID,
			"from":        donation.Status,
			"to":          next,
		}).Info("rejected donation status transition")
		s.redirectWithError(w, r, "/donations/"+donationID, "That donation can no longer be updated.")
		return
	}

	now := time.Now()
	donation.Status = next
	switch next {
	case types.DonationStatusClaimed:
		donation.ReceiverID = utils.StringPtr(userID)
		donation.ClaimedAt = utils.TimePtr(now)
	case types.DonationStatusPickedUp:
		donation.PickedUpAt = utils.TimePtr(now)
	}

	if err := s.donations.UpdateDonation(ctx, donation.ID, donation); err != nil {
		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to update donation status")
		s.redirectWithError(w, r, "/donations/"+donationID, "Could not update the donation. Please try again.")
		return
	}

	s.redirectWithNotice(w, r, "/donations/"+donationID, notice)
}

func (s *Service) handlePostRequestCancel(w http.ResponseWriter, r *http.Request) {
	s.transitionRequest(w, r, types.RequestStatusCancelled, "Request cancelled.")
}

func (s *Service) handlePostRequestFulfill(w http.ResponseWriter, r *http.Request) {
	s.transitionRequest(w, r, types.RequestStatusFulfilled, "Request marked as fulfilled.")
}

func (s *Service) transitionRequest(w http.ResponseWriter, r *http.Request, next types.RequestStatus, notice string) {
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
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to load request for transition")
		s.internalServerError(w)
		return
	}

	if request.RequesterID != userID {
		http.NotFound(w, r)
		return
	}

	if !request.Status.CanTransitionTo(next) {
		s.logger.WithError(types.ErrInvalidTransition).WithFields(map[string]any{
			"request_id": requestID,
			"from":       request.Status,
			"to":         next,
		}).Info("rejected request status transition")
		s.redirectWithError(w, r, "/dashboard", "That request can no longer be updated.")
		return
	}

	request.Status = next
	if err := s.requests.UpdateRequest(ctx, request.ID, request); err != nil {
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to update request status")
		s.redirectWithError(w, r, "/dashboard", "Could not update the request. Please try again.")
		return
	}

	s.redirectWithNotice(w, r, "/dashboard", notice)
}
