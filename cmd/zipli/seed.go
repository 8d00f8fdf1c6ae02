package main

import (
	"context"
	"fmt"

	"zipli/internal/db"
	"zipli/internal/seed"
	"zipli/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo data",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of donations to create",
			Value:   20,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.DatabaseURL == "" {
			return fmt.Errorf("seed requires DATABASE_URL; the in-memory store starts empty every run")
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		profiles := store.NewProfileRepository(pool)
		foodItems := store.NewFoodItemRepository(pool)
		donations := store.NewDonationRepository(pool)
		requests := store.NewRequestRepository(pool)

		logrus.Info("Seeding demo data...")
		if err := seed.Demo(ctx, profiles, foodItems, donations, requests, c.Int("count")); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}

		logrus.Info("Demo data seeded successfully")

		return nil
	},
}
