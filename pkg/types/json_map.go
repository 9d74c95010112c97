package types

// JSONMap is a free-form JSON object persisted through GORM's json serializer.
type JSONMap map[string]any

// GetString returns the string stored under key, if present.
func (m JSONMap) GetString(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	value, ok := m[key].(string)
	return value, ok
}

// Clone returns a shallow copy so callers can mutate without aliasing.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return nil
	}
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
