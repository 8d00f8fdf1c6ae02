package types

import "time"

type ProfileRole string

const (
	ProfileRoleDonor    ProfileRole = "donor"
	ProfileRoleReceiver ProfileRole = "receiver"
	ProfileRoleCity     ProfileRole = "city"
	ProfileRoleTerminal ProfileRole = "terminal"
)

type Profile struct {
	ID                 string      `db:"id"`
	Role               ProfileRole `db:"role"`
	FullName           string      `db:"full_name"`
	Organization       *string     `db:"organization"`
	Email              *string     `db:"email"`
	Address            *string     `db:"address"`
	DriverInstructions *string     `db:"driver_instructions"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}
