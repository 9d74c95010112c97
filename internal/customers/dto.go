package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
)

// Customer is the admin-facing projection of a storefront user. The
// password hash never leaves the service.
type Customer struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       *string    `json:"phone,omitempty"`
	IsMember    bool       `json:"is_member"`
	MemberSince *time.Time `json:"member_since,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Filters narrows a customer listing.
type Filters struct {
	Query    string
	IsMember *bool
}

// List is a page of customers with an optional continuation cursor.
type List struct {
	Customers  []Customer `json:"customers"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// UpdateInput holds a partial update; nil fields are left untouched.
type UpdateInput struct {
	ID          uuid.UUID
	FirstName   *string
	LastName    *string
	Phone       *string
	IsMember    *bool
	ActorUserID uuid.UUID
}

func fromModel(user *models.User) *Customer {
	if user == nil {
		return nil
	}
	return &Customer{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		IsMember:    user.IsMember,
		MemberSince: user.MemberSince,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
