// Package store is the persistence boundary of the app. Every entity is
// reachable through one of the interfaces below; the submit flow and the
// HTTP handlers never touch a database driver directly. Two implementations
// exist: the pgx-backed repositories in this package and the in-memory
// Memory store used for development and tests.
package store

import (
	"context"

	"zipli/pkg/types"

	sq "github.com/Masterminds/squirrel"
)

type Profiles interface {
	Profile(ctx context.Context, profileID string) (*types.Profile, error)
	ProfilesByRole(ctx context.Context, role types.ProfileRole) ([]*types.Profile, error)
	CreateProfile(ctx context.Context, profile *types.Profile) error
	UpdateProfile(ctx context.Context, profileID string, profile *types.Profile) error
	DeleteProfile(ctx context.Context, profileID string) error
}

type FoodItems interface {
	FoodItem(ctx context.Context, itemID string) (*types.FoodItem, error)
	FoodItemsByDonor(ctx context.Context, donorID string) ([]*types.FoodItem, error)
	// FoodItemByName matches case-insensitively within one donor's catalog.
	FoodItemByName(ctx context.Context, donorID, name string) (*types.FoodItem, error)
	CreateFoodItem(ctx context.Context, item *types.FoodItem) error
	UpdateFoodItem(ctx context.Context, itemID string, item *types.FoodItem) error
	DeleteFoodItem(ctx context.Context, itemID string) error
}

type Donations interface {
	Donation(ctx context.Context, donationID string) (*types.Donation, error)
	DonationsByDonor(ctx context.Context, donorID string) ([]*types.Donation, error)
	DonationsByStatus(ctx context.Context, status types.DonationStatus) ([]*types.Donation, error)
	CreateDonation(ctx context.Context, donation *types.Donation) error
	UpdateDonation(ctx context.Context, donationID string, donation *types.Donation) error
	DeleteDonation(ctx context.Context, donationID string) error
}

type Requests interface {
	Request(ctx context.Context, requestID string) (*types.Request, error)
	RequestsByRequester(ctx context.Context, requesterID string) ([]*types.Request, error)
	RequestsByStatus(ctx context.Context, status types.RequestStatus) ([]*types.Request, error)
	CreateRequest(ctx context.Context, request *types.Request) error
	UpdateRequest(ctx context.Context, requestID string, request *types.Request) error
	DeleteRequest(ctx context.Context, requestID string) error
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
