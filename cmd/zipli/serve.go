package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zipli/internal/db"
	"zipli/internal/server"
	"zipli/internal/storage"
	"zipli/internal/store"
	"zipli/internal/submit"
	"zipli/internal/wizard"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	supauth "github.com/supabase-community/auth-go"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		profiles  store.Profiles
		foodItems store.FoodItems
		donations store.Donations
		requests  store.Requests
	)

	if config.DatabaseURL != "" {
		pool, err := db.Connect(ctx, config)
		if err != nil {
			return err
		}
		defer pool.Close()

		profiles = store.NewProfileRepository(pool)
		foodItems = store.NewFoodItemRepository(pool)
		donations = store.NewDonationRepository(pool)
		requests = store.NewRequestRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store; data will not survive restarts")

		memory := store.NewMemory()
		profiles = memory
		foodItems = memory
		donations = memory
		requests = memory
	}

	authClient := supauth.New(config.SupabaseProjectRef, config.SupabaseAnonKey)

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("https://%s.supabase.co/auth/v1/.well-known/jwks.json", config.SupabaseProjectRef)
	if config.SupabaseProjectRef != "" {
		err = jwkCache.Register(context.Background(), jwksURL)
		if err != nil {
			return fmt.Errorf("failed to register supabase jwk with cache: %w", err)
		}
	}

	snapshots, err := wizard.NewFileSnapshots(config.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot dir: %w", err)
	}

	images := storage.NewSupabaseStorage(config.SupabaseProjectRef, config.SupabaseAnonKey, config.StorageBucketName)

	orchestrator := submit.New(profiles, foodItems, donations, requests, logger)

	srv, err := server.New(
		config,
		logger,
		authClient,
		profiles,
		foodItems,
		donations,
		requests,
		orchestrator,
		snapshots,
		images,
		jwkCache,
		jwksURL,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
