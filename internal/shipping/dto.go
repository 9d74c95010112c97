package shipping

import "github.com/google/uuid"

// UpdateInput carries the full shipping configuration. The profile is a
// single row, so an update always replaces the whole pickup address.
type UpdateInput struct {
	BusinessName   string
	RegistrationNo *string
	PickupName     string
	PickupPhone    string
	PickupLine1    string
	PickupLine2    *string
	PickupCity     string
	PickupState    string
	PickupPostcode string
	PickupCountry  string
	ActorUserID    uuid.UUID
}
