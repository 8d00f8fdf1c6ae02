package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"zipli/internal/utils"
	"zipli/pkg/types"
)

// Memory is the in-memory implementation of the entity interfaces, used when
// no DATABASE_URL is configured and throughout the tests. It is development
// tooling: a single mutex, no transactions, no cross-process durability.
type Memory struct {
	mu        sync.Mutex
	profiles  map[string]*types.Profile
	foodItems map[string]*types.FoodItem
	donations map[string]*types.Donation
	requests  map[string]*types.Request
}

var (
	_ Profiles  = (*Memory)(nil)
	_ FoodItems = (*Memory)(nil)
	_ Donations = (*Memory)(nil)
	_ Requests  = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		profiles:  make(map[string]*types.Profile),
		foodItems: make(map[string]*types.FoodItem),
		donations: make(map[string]*types.Donation),
		requests:  make(map[string]*types.Request),
	}
}

// clone round-trips through JSON so callers never share pointers with the
// store's own records.
func clone[T any](in *T) *T {
	data, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}

	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}

	return out
}

func (m *Memory) Profile(_ context.Context, profileID string) (*types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.profiles[profileID]
	if !ok {
		return nil, types.ErrProfileNotFound
	}

	return clone(profile), nil
}

func (m *Memory) ProfilesByRole(_ context.Context, role types.ProfileRole) ([]*types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Profile, 0)
	for _, profile := range m.profiles {
		if profile.Role == role {
			out = append(out, clone(profile))
		}
	}

	return out, nil
}

func (m *Memory) CreateProfile(_ context.Context, profile *types.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if profile.ID == "" {
		profile.ID = utils.NanoID()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	m.profiles[profile.ID] = clone(profile)
	return nil
}

func (m *Memory) UpdateProfile(_ context.Context, profileID string, profile *types.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[profileID]; !ok {
		return types.ErrProfileNotFound
	}

	profile.ID = profileID
	profile.UpdatedAt = time.Now()

	m.profiles[profileID] = clone(profile)
	return nil
}

func (m *Memory) DeleteProfile(_ context.Context, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.profiles, profileID)
	return nil
}

func (m *Memory) FoodItem(_ context.Context, itemID string) (*types.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.foodItems[itemID]
	if !ok {
		return nil, types.ErrFoodItemNotFound
	}

	return clone(item), nil
}

func (m *Memory) FoodItemsByDonor(_ context.Context, donorID string) ([]*types.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.FoodItem, 0)
	for _, item := range m.foodItems {
		if item.DonorID == donorID {
			out = append(out, clone(item))
		}
	}

	return out, nil
}

func (m *Memory) FoodItemByName(_ context.Context, donorID, name string) (*types.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.foodItems {
		if item.DonorID == donorID && strings.EqualFold(item.Name, name) {
			return clone(item), nil
		}
	}

	return nil, types.ErrFoodItemNotFound
}

func (m *Memory) CreateFoodItem(_ context.Context, item *types.FoodItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	item.ID = utils.NanoID()
	item.CreatedAt = now
	item.UpdatedAt = now

	m.foodItems[item.ID] = clone(item)
	return nil
}

func (m *Memory) UpdateFoodItem(_ context.Context, itemID string, item *types.FoodItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.foodItems[itemID]; !ok {
		return types.ErrFoodItemNotFound
	}

	item.ID = itemID
	item.UpdatedAt = time.Now()

	m.foodItems[itemID] = clone(item)
	return nil
}

func (m *Memory) DeleteFoodItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.foodItems, itemID)
	return nil
}

func (m *Memory) Donation(_ context.Context, donationID string) (*types.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	donation, ok := m.donations[donationID]
	if !ok {
		return nil, types.ErrDonationNotFound
	}

	return clone(donation), nil
}

func (m *Memory) DonationsByDonor(_ context.Context, donorID string) ([]*types.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Donation, 0)
	for _, donation := range m.donations {
		if donation.DonorID == donorID {
			out = append(out, clone(donation))
		}
	}

	return out, nil
}

func (m *Memory) DonationsByStatus(_ context.Context, status types.DonationStatus) ([]*types.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Donation, 0)
	for _, donation := range m.donations {
		if donation.Status == status {
			out = append(out, clone(donation))
		}
	}

	return out, nil
}

func (m *Memory) CreateDonation(_ context.Context, donation *types.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	donation.ID = utils.NanoID()
	donation.CreatedAt = now
	donation.UpdatedAt = now

	m.donations[donation.ID] = clone(donation)
	return nil
}

func (m *Memory) UpdateDonation(_ context.Context, donationID string, donation *types.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.donations[donationID]; !ok {
		return types.ErrDonationNotFound
	}

	donation.ID = donationID
	donation.UpdatedAt = time.Now()

	m.donations[donationID] = clone(donation)
	return nil
}

func (m *Memory) DeleteDonation(_ context.Context, donationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.donations, donationID)
	return nil
}

func (m *Memory) Request(_ context.Context, requestID string) (*types.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	request, ok := m.requests[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}

	return clone(request), nil
}

func (m *Memory) RequestsByRequester(_ context.Context, requesterID string) ([]*types.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Request, 0)
	for _, request := range m.requests {
		if request.RequesterID == requesterID {
			out = append(out, clone(request))
		}
	}

	return out, nil
}

func (m *Memory) RequestsByStatus(_ context.Context, status types.RequestStatus) ([]*types.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Request, 0)
	for _, request := range m.requests {
		if request.Status == status {
			out = append(out, clone(request))
		}
	}

	return out, nil
}

func (m *Memory) CreateRequest(_ context.Context, request *types.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	request.ID = utils.NanoID()
	request.CreatedAt = now
	request.UpdatedAt = now

	m.requests[request.ID] = clone(request)
	return nil
}

func (m *Memory) UpdateRequest(_ context.Context, requestID string, request *types.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[requestID]; !ok {
		return types.ErrRequestNotFound
	}

	request.ID = requestID
	request.UpdatedAt = time.Now()

	m.requests[requestID] = clone(request)
	return nil
}

func (m *Memory) DeleteRequest(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.requests, requestID)
	return nil
}
