package types

import "errors"

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrFoodItemNotFound = errors.New("food item not found")
	ErrDonationNotFound = errors.New("donation not found")
	ErrRequestNotFound  = errors.New("request not found")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotOwner          = errors.New("record is not owned by this user")
)
