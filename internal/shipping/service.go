package shipping

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
)

// postcodePattern matches Malaysian five-digit postcodes.
var postcodePattern = regexp.MustCompile(`^\d{5}$`)

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service manages the store's shipping configuration: the business
// registration details and the pickup address couriers collect parcels
// from. Fulfillment refuses to book shipments until this is set.
type Service interface {
	Get(ctx context.Context) (*models.BusinessProfile, error)
	Upsert(ctx context.Context, input UpdateInput) (*models.BusinessProfile, error)
}

type service struct {
	repo  Repository
	audit auditRecorder
}

// NewService builds a shipping settings service.
func NewService(repo Repository, auditor auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, audit: auditor}, nil
}

func (s *service) Get(ctx context.Context) (*models.BusinessProfile, error) {
	profile, err := s.repo.Find(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "shipping settings not configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping settings")
	}
	return profile, nil
}

func (s *service) Upsert(ctx context.Context, input UpdateInput) (*models.BusinessProfile, error) {
	name := strings.TrimSpace(input.BusinessName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	pickup := map[string]string{
		"pickup name":     strings.TrimSpace(input.PickupName),
		"pickup phone":    strings.TrimSpace(input.PickupPhone),
		"pickup line1":    strings.TrimSpace(input.PickupLine1),
		"pickup city":     strings.TrimSpace(input.PickupCity),
		"pickup state":    strings.TrimSpace(input.PickupState),
		"pickup postcode": strings.TrimSpace(input.PickupPostcode),
	}
	for field, value := range pickup {
		if value == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}
	if !postcodePattern.MatchString(pickup["pickup postcode"]) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup postcode must be five digits")
	}
	country := strings.ToUpper(strings.TrimSpace(input.PickupCountry))
	if country == "" {
		country = "MY"
	}
	if len(country) != 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup country must be a two-letter code")
	}

	profile, err := s.repo.Find(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping settings")
		}
		profile = &models.BusinessProfile{}
	}

	profile.BusinessName = name
	profile.RegistrationNo = trimOptional(input.RegistrationNo)
	profile.PickupName = pickup["pickup name"]
	profile.PickupPhone = pickup["pickup phone"]
	profile.PickupLine1 = pickup["pickup line1"]
	profile.PickupLine2 = trimOptional(input.PickupLine2)
	profile.PickupCity = pickup["pickup city"]
	profile.PickupState = pickup["pickup state"]
	profile.PickupPostcode = pickup["pickup postcode"]
	profile.PickupCountry = country

	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping settings")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "shipping.config_update",
		Resource:    "business_profile",
		ResourceID:  profile.ID.String(),
		Details:     map[string]any{"business_name": name},
	})
	return profile, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
