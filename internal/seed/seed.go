// Package seed fills a store with demo data for local development. It goes
// through the store interfaces, so it works against Postgres and the
// in-memory store alike.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"zipli/internal/store"
	"zipli/internal/utils"
	"zipli/pkg/types"

	"github.com/k0kubun/pp/v3"
)

var fakeProfiles = []types.Profile{
	{FullName: "Hanna Virtanen", Role: types.ProfileRoleDonor, Organization: utils.StringPtr("Ravintola Kaneli")},
	{FullName: "Mikko Laine", Role: types.ProfileRoleDonor, Organization: utils.StringPtr("K-Market Kamppi")},
	{FullName: "Aino Korhonen", Role: types.ProfileRoleReceiver, Organization: utils.StringPtr("Helsinki Food Aid")},
	{FullName: "Red Cross Kallio", Role: types.ProfileRoleReceiver},
	{FullName: "City of Helsinki", Role: types.ProfileRoleCity},
	{FullName: "Tukku Terminal", Role: types.ProfileRoleTerminal},
}

var fakeFoodItems = []struct {
	Name      string
	Allergens []string
}{
	{Name: "Fresh Vegetables", Allergens: []string{"None"}},
	{Name: "Rye Bread", Allergens: []string{"Gluten"}},
	{Name: "Oat Milk", Allergens: []string{"None"}},
	{Name: "Lentil Soup", Allergens: []string{"None"}},
	{Name: "Cheese Sandwiches", Allergens: []string{"Gluten", "Lactose"}},
	{Name: "Fruit Baskets", Allergens: []string{"None"}},
}

type weightedDonationStatus struct {
	Status types.DonationStatus
	Weight int
}

var weightedStatuses = []weightedDonationStatus{
	{Status: types.DonationStatusAvailable, Weight: 55},
	{Status: types.DonationStatusClaimed, Weight: 25},
	{Status: types.DonationStatusPickedUp, Weight: 15},
	{Status: types.DonationStatusCancelled, Weight: 5},
}

func pickStatus(rng *rand.Rand) types.DonationStatus {
	total := 0
	for _, ws := range weightedStatuses {
		total += ws.Weight
	}

	n := rng.Intn(total)
	for _, ws := range weightedStatuses {
		if n < ws.Weight {
			return ws.Status
		}
		n -= ws.Weight
	}

	return types.DonationStatusAvailable
}

// Demo seeds profiles, food items, donations and requests. Count controls
// how many donations are created.
func Demo(
	ctx context.Context,
	profiles store.Profiles,
	foodItems store.FoodItems,
	donations store.Donations,
	requests store.Requests,
	count int,
) error {
	if count <= 0 {
		fmt.Println("Skipping demo seed because count <= 0")
		return nil
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	seeded := make([]*types.Profile, 0, len(fakeProfiles))
	for i := range fakeProfiles {
		profile := fakeProfiles[i]
		profile.Address = utils.StringPtr(fmt.Sprintf("Mannerheimintie %d, Helsinki", 10+i))

		if err := profiles.CreateProfile(ctx, &profile); err != nil {
			return fmt.Errorf("failed to seed profile %s: %w", profile.FullName, err)
		}
		seeded = append(seeded, &profile)
	}

	donors := make([]*types.Profile, 0)
	for _, profile := range seeded {
		if profile.Role == types.ProfileRoleDonor {
			donors = append(donors, profile)
		}
	}

	created := 0
	for i := 0; i < count; i++ {
		donor := donors[rng.Intn(len(donors))]
		fake := fakeFoodItems[rng.Intn(len(fakeFoodItems))]

		foodItem, err := foodItems.FoodItemByName(ctx, donor.ID, fake.Name)
		if err != nil {
			foodItem = &types.FoodItem{
				DonorID:   donor.ID,
				Name:      fake.Name,
				Allergens: fake.Allergens,
			}
			if err := foodItems.CreateFoodItem(ctx, foodItem); err != nil {
				return fmt.Errorf("failed to seed food item %s: %w", fake.Name, err)
			}
		}

		date := time.Now().AddDate(0, 0, 1+rng.Intn(6)).Format("2006-01-02")
		donation := &types.Donation{
			DonorID:    donor.ID,
			FoodItemID: foodItem.ID,
			Quantity:   fmt.Sprintf("%d kg", 1+rng.Intn(20)),
			Status:     pickStatus(rng),
			PickupSlots: []types.PickupSlot{
				{Date: date, StartTime: "09:00", EndTime: "14:00"},
			},
			Address: utils.PtrString(donor.Address),
		}

		if err := donations.CreateDonation(ctx, donation); err != nil {
			return fmt.Errorf("failed to seed donation: %w", err)
		}
		created++
	}

	for _, profile := range seeded {
		if profile.Role != types.ProfileRoleReceiver {
			continue
		}

		request := &types.Request{
			RequesterID: profile.ID,
			Description: "Warm meals or groceries for our weekly community dinner",
			PeopleCount: 10 + rng.Intn(40),
			Status:      types.RequestStatusActive,
			PickupRecurring: &types.RecurringSchedule{
				Weekdays:  []string{"tuesday", "thursday"},
				StartTime: "16:00",
				EndTime:   "18:00",
			},
			Address: utils.PtrString(profile.Address),
		}

		if err := requests.CreateRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to seed request: %w", err)
		}
	}

	pp.Printf("Seeded %d profiles and %d donations\n", len(seeded), created)

	return nil
}
