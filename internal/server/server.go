package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"zipli/internal/storage"
	"zipli/internal/store"
	"zipli/internal/submit"
	"zipli/internal/wizard"
	"zipli/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	supauth "github.com/supabase-community/auth-go"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template

	profiles  store.Profiles
	foodItems store.FoodItems
	donations store.Donations
	requests  store.Requests

	orchestrator *submit.Orchestrator
	wizards      *wizardCache
	images       *storage.SupabaseStorage

	supauth supauth.Client
	cookie  *securecookie.SecureCookie

	jwksCache *jwk.Cache
	jwksURL   string

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	supauth supauth.Client,
	profiles store.Profiles,
	foodItems store.FoodItems,
	donations store.Donations,
	requests store.Requests,
	orchestrator *submit.Orchestrator,
	snapshots wizard.Snapshots,
	images *storage.SupabaseStorage,
	jwkCache *jwk.Cache,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger:  logger,
		config:  config,
		supauth: supauth,
		cookie:  securecookie.New(hashKey, blockKey),

		profiles:  profiles,
		foodItems: foodItems,
		donations: donations,
		requests:  requests,

		orchestrator: orchestrator,
		wizards:      newWizardCache(snapshots, logger),
		images:       images,

		jwksCache: jwkCache,
		jwksURL:   jwksURL,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/register", s.handleGetRegister, http.MethodGet)
	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/dashboard", s.handleDashboard, http.MethodGet)
		r.HandleFunc("/profile", s.handleGetProfile, http.MethodGet)
		r.HandleFunc("/profile", s.handlePostProfile, http.MethodPost)

		// Donation wizard
		r.HandleFunc("/donate", s.handleGetDonate, http.MethodGet)
		r.HandleFunc("/donate/items", s.handleGetDonateItems, http.MethodGet)
		r.HandleFunc("/donate/items", s.handlePostDonateItems, http.MethodPost)
		r.HandleFunc("/donate/items/:itemID/delete", s.handlePostDonateItemDelete, http.MethodPost)
		r.HandleFunc("/donate/items/:itemID/image", s.handlePostDonateItemImage, http.MethodPost)
		r.HandleFunc("/donate/pickup", s.handleGetDonatePickup, http.MethodGet)
		r.HandleFunc("/donate/pickup", s.handlePostDonatePickup, http.MethodPost)
		r.HandleFunc("/donate/pickup/:slotID/delete", s.handlePostDonateSlotDelete, http.MethodPost)
		r.HandleFunc("/donate/summary", s.handleGetDonateSummary, http.MethodGet)
		r.HandleFunc("/donate/summary", s.handlePostDonateSummary, http.MethodPost)
		r.HandleFunc("/donate/confirmation", s.handleGetDonateConfirmation, http.MethodGet)
		r.HandleFunc("/donate/:donationID/edit", s.handleGetDonateEdit, http.MethodGet)

		// Request wizard
		r.HandleFunc("/request", s.handleGetRequest, http.MethodGet)
		r.HandleFunc("/request/details", s.handleGetRequestDetails, http.MethodGet)
		r.HandleFunc("/request/details", s.handlePostRequestDetails, http.MethodPost)
		r.HandleFunc("/request/pickup", s.handleGetRequestPickup, http.MethodGet)
		r.HandleFunc("/request/pickup", s.handlePostRequestPickup, http.MethodPost)
		r.HandleFunc("/request/pickup/:slotID/delete", s.handlePostRequestSlotDelete, http.MethodPost)
		r.HandleFunc("/request/summary", s.handleGetRequestSummary, http.MethodGet)
		r.HandleFunc("/request/summary", s.handlePostRequestSummary, http.MethodPost)
		r.HandleFunc("/request/confirmation", s.handleGetRequestConfirmation, http.MethodGet)
		r.HandleFunc("/request/:requestID/edit", s.handleGetRequestEdit, http.MethodGet)

		// Persisted records
		r.HandleFunc("/donations/:donationID", s.handleDonationDetail, http.MethodGet)
		r.HandleFunc("/donations/:donationID/claim", s.handlePostDonationClaim, http.MethodPost)
		r.HandleFunc("/donations/:donationID/pickup", s.handlePostDonationPickup, http.MethodPost)
		r.HandleFunc("/donations/:donationID/cancel", s.handlePostDonationCancel, http.MethodPost)
		r.HandleFunc("/requests/:requestID/cancel", s.handlePostRequestCancel, http.MethodPost)
		r.HandleFunc("/requests/:requestID/fulfill", s.handlePostRequestFulfill, http.MethodPost)
	})

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefOr": func(s *string, defaultVal string) string {
			if s == nil {
				return defaultVal
			}
			return *s
		},
		"join": func(parts []string, sep string) string {
			return strings.Join(parts, sep)
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	if !ok {
		return "", fmt.Errorf("user id not found in context")
	}
	return userID, nil
}
