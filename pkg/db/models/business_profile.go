package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BusinessProfile holds the store's registration details and the pickup
// address couriers collect parcels from. A single row is expected.
type BusinessProfile struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessName   string    `gorm:"column:business_name;not null"`
	RegistrationNo *string   `gorm:"column:registration_no"`
	PickupName     string    `gorm:"column:pickup_name"`
	PickupPhone    string    `gorm:"column:pickup_phone"`
	PickupLine1    string    `gorm:"column:pickup_line1"`
	PickupLine2    *string   `gorm:"column:pickup_line2"`
	PickupCity     string    `gorm:"column:pickup_city"`
	PickupState    string    `gorm:"column:pickup_state"`
	PickupPostcode string    `gorm:"column:pickup_postcode"`
	PickupCountry  string    `gorm:"column:pickup_country;not null;default:'MY'"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HasPickupAddress reports whether fulfillment can resolve a pickup point.
func (b *BusinessProfile) HasPickupAddress() bool {
	if b == nil {
		return false
	}
	required := []string{b.PickupName, b.PickupPhone, b.PickupLine1, b.PickupCity, b.PickupState, b.PickupPostcode}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
