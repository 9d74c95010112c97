package enums

import "fmt"

// TelegramChannelKind scopes which events a configured channel receives.
type TelegramChannelKind string

const (
	TelegramChannelKindOrders TelegramChannelKind = "orders"
	TelegramChannelKindChats  TelegramChannelKind = "chats"
)

var validTelegramChannelKinds = []TelegramChannelKind{
	TelegramChannelKindOrders,
	TelegramChannelKindChats,
}

func (k TelegramChannelKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known TelegramChannelKind.
func (k TelegramChannelKind) IsValid() bool {
	for _, candidate := range validTelegramChannelKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTelegramChannelKind converts raw input into a TelegramChannelKind.
func ParseTelegramChannelKind(value string) (TelegramChannelKind, error) {
	for _, candidate := range validTelegramChannelKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid telegram channel kind %q", value)
}
