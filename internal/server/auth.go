package server

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"zipli/internal"
	"zipli/internal/utils"
	"zipli/pkg/types"

	authtypes "github.com/supabase-community/auth-go/types"
)

type LoginPageData struct {
	types.BasePageData
	Email string
}

type RegisterPageData struct {
	types.BasePageData
	FullName     string
	Organization string
	Email        string
	Role         string
}

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {

	_, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err == nil {
		s.logger.Info("user is already logged in, redirecting to dashboard")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := &LoginPageData{
		BasePageData: types.BasePageData{Title: "Log In"},
	}

	err = s.renderTemplate(w, r, "page.login", data)
	if err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	resp, err := s.supauth.SignInWithEmailPassword(email, password)
	if err != nil {
		s.logger.WithError(err).Info("login attempt failed")

		data := &LoginPageData{
			BasePageData: types.BasePageData{Title: "Log In", Error: "Invalid email or password."},
			Email:        email,
		}
		if renderErr := s.renderTemplate(w, r, "page.login", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render login page with error")
			s.internalServerError(w)
		}
		return
	}

	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, resp.AccessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		http.Error(w, "Login failed: "+err.Error(), http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   resp.ExpiresIn,
		Path:     "/",
	})

	// Check to see if this login attempt was the result of an unauthed redirect
	redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME)
	if err == nil {
		path := redirectCookie.Value
		s.clearRedirectCookie(w)
		http.Redirect(w, r, path, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Service) handleGetRegister(w http.ResponseWriter, r *http.Request) {

	_, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err == nil {
		s.logger.Info("user is already logged in, redirecting to dashboard")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := &RegisterPageData{
		BasePageData: types.BasePageData{Title: "Register"},
	}

	err = s.renderTemplate(w, r, "page.register", data)
	if err != nil {
		s.logger.WithError(err).Error("failed to render register page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {

	var ctx = r.Context()

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	organization := strings.TrimSpace(r.FormValue("organization"))
	email := strings.TrimSpace(r.FormValue("email"))
	role := strings.TrimSpace(r.FormValue("role"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	data := &RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Account"},
		FullName:     fullName,
		Organization: organization,
		Email:        email,
		Role:         role,
	}

	data.FieldErrors = validateRegisterInput(fullName, email, role, password, confirmPassword)
	if len(data.FieldErrors) > 0 {
		s.logger.WithField("field_errors", data.FieldErrors).Info("validation errors during registration")

		data.Error = "Please fix the highlighted fields."
		err := s.renderTemplate(w, r, "page.register", data)
		if err != nil {
			s.logger.WithError(err).Error("failed to render register page with validation errors")
			s.internalServerError(w)
		}

		return
	}

	resp, err := s.supauth.Signup(authtypes.SignupRequest{
		Email:    email,
		Password: password,
		Data: map[string]interface{}{
			"full_name": fullName,
			"role":      role,
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to sign up user")

		data.Error = "Unable to create account right now. Please try again."
		if renderErr := s.renderTemplate(w, r, "page.register", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render register page with signup error")
			s.internalServerError(w)
		}
		return
	}

	profile := &types.Profile{
		ID:       resp.ID.String(),
		Role:     types.ProfileRole(role),
		FullName: fullName,
		Email:    utils.StringPtr(email),
	}
	if organization != "" {
		profile.Organization = utils.StringPtr(organization)
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		s.logger.WithError(err).WithField("user_id", profile.ID).Error("failed to create profile for new user")
	}

	http.Redirect(w, r, "/login?registered=true", http.StatusSeeOther)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    path,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func validateRegisterInput(fullName, email, role, password, confirmPassword string) map[string]string {
	errs := map[string]string{}

	if fullName == "" {
		errs["full_name"] = "Name is required."
	}

	if email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	switch types.ProfileRole(role) {
	case types.ProfileRoleDonor, types.ProfileRoleReceiver, types.ProfileRoleCity, types.ProfileRoleTerminal:
	default:
		errs["role"] = "Choose an account type."
	}

	if len(password) < 8 {
		errs["password"] = "Password must be at least 8 characters."
	}

	if password != confirmPassword {
		errs["confirm_password"] = "Passwords do not match."
	}

	return errs
}
