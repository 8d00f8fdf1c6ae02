package server

import (
	"errors"
	"net/http"
	"strings"

	"zipli/internal/utils"
	"zipli/pkg/types"
)

type ProfilePageData struct {
	types.BasePageData
	Profile *types.Profile
}

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrProfileNotFound) {
			// First visit after signup on a fresh store: show an empty form.
			profile = &types.Profile{ID: userID, Role: types.ProfileRoleDonor}
		} else {
			s.logger.WithError(err).WithField("user_id", userID).Error("failed to fetch profile")
			s.internalServerError(w)
			return
		}
	}

	data := &ProfilePageData{
		BasePageData: types.BasePageData{
			Title:  "My Profile",
			Notice: strings.TrimSpace(r.URL.Query().Get("notice")),
			Error:  strings.TrimSpace(r.URL.Query().Get("error")),
		},
		Profile: profile,
	}

	if err := s.renderTemplate(w, r, "page.profile", data); err != nil {
		s.logger.WithError(err).Error("failed to render profile page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrProfileNotFound) {
			s.logger.WithError(err).WithField("user_id", userID).Error("failed to fetch profile for update")
			s.internalServerError(w)
			return
		}

		profile = &types.Profile{ID: userID, Role: types.ProfileRoleDonor}
		if err := s.profiles.CreateProfile(ctx, profile); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("failed to create missing profile")
			s.internalServerError(w)
			return
		}
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	if fullName != "" {
		profile.FullName = fullName
	}

	if organization := strings.TrimSpace(r.FormValue("organization")); organization != "" {
		profile.Organization = utils.StringPtr(organization)
	}
	if address := strings.TrimSpace(r.FormValue("address")); address != "" {
		profile.Address = utils.StringPtr(address)
	}
	if instructions := strings.TrimSpace(r.FormValue("driver_instructions")); instructions != "" {
		profile.DriverInstructions = utils.StringPtr(instructions)
	}

	if err := s.profiles.UpdateProfile(ctx, userID, profile); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to update profile")
		s.redirectWithError(w, r, "/profile", "Could not save your profile. Please try again.")
		return
	}

	s.redirectWithNotice(w, r, "/profile", "Profile saved.")
}
