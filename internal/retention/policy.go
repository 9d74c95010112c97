package retention

import (
	"strings"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// Policy is a named retention rule set. Policies are static configuration,
// not stored rows; day thresholds count from a session's last activity.
type Policy struct {
	Name                 string               `json:"name"`
	AutoArchiveAfterDays int                  `json:"auto_archive_after_days"`
	PurgeAfterDays       int                  `json:"purge_after_days"`
	Scope                enums.RetentionScope `json:"scope"`
	Enabled              bool                 `json:"enabled"`
}

// RetentionDays is how long an archived session is kept before purge.
func (p Policy) RetentionDays() int {
	return p.PurgeAfterDays - p.AutoArchiveAfterDays
}

// DefaultPolicyName is used when a caller does not name a policy.
const DefaultPolicyName = "standard"

// DefaultPolicies returns the built-in policy set.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			Name:                 "standard",
			AutoArchiveAfterDays: 90,
			PurgeAfterDays:       455,
			Scope:                enums.RetentionScopeAll,
			Enabled:              true,
		},
		{
			Name:                 "guest",
			AutoArchiveAfterDays: 30,
			PurgeAfterDays:       395,
			Scope:                enums.RetentionScopeGuest,
			Enabled:              true,
		},
		{
			Name:                 "authenticated",
			AutoArchiveAfterDays: 180,
			PurgeAfterDays:       545,
			Scope:                enums.RetentionScopeAuthenticated,
			Enabled:              true,
		},
	}
}

func findPolicy(policies []Policy, name string) (Policy, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		name = DefaultPolicyName
	}
	for _, policy := range policies {
		if policy.Name == name {
			return policy, true
		}
	}
	return Policy{}, false
}
