package types

import "time"

// FoodItem is a catalog entry owned by a donor, decoupled from any single
// donation. Donations reference it by ID; the submit flow reuses an existing
// item when the name already exists for the donor.
type FoodItem struct {
	ID          string    `db:"id"`
	DonorID     string    `db:"donor_id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	ImageURL    *string   `db:"image_url"`
	Allergens   []string  `db:"allergens"` // jsonb array
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
