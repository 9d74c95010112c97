package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a Malaysian-format shipping or billing address.
type Address struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid"`
	Name      string     `gorm:"column:name;not null"`
	Phone     string     `gorm:"column:phone;not null"`
	Line1     string     `gorm:"column:line1;not null"`
	Line2     *string    `gorm:"column:line2"`
	City      string     `gorm:"column:city;not null"`
	State     string     `gorm:"column:state;not null"`
	Postcode  string     `gorm:"column:postcode;not null"`
	Country   string     `gorm:"column:country;not null;default:'MY'"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsShippable reports whether the courier-required fields are present.
func (a *Address) IsShippable() bool {
	if a == nil {
		return false
	}
	required := []string{a.Name, a.Phone, a.Line1, a.City, a.State, a.Postcode}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
