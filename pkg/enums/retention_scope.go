package enums

import "fmt"

// RetentionScope filters which chat sessions a retention policy applies to.
type RetentionScope string

const (
	RetentionScopeAll           RetentionScope = "all"
	RetentionScopeGuest         RetentionScope = "guest"
	RetentionScopeAuthenticated RetentionScope = "authenticated"
)

var validRetentionScopes = []RetentionScope{
	RetentionScopeAll,
	RetentionScopeGuest,
	RetentionScopeAuthenticated,
}

func (s RetentionScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RetentionScope.
func (s RetentionScope) IsValid() bool {
	for _, candidate := range validRetentionScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRetentionScope converts raw input into a RetentionScope.
func ParseRetentionScope(value string) (RetentionScope, error) {
	for _, candidate := range validRetentionScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid retention scope %q", value)
}
