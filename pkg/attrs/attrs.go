// Package attrs reads values back out of the alternating key-value attribute
// lists the registry passes to slog and mirrors into the audit trail.
package attrs

// ExtractString returns the string following key in a
// [key1, value1, key2, value2, ...] list. A missing key or a non-string value
// yields the empty string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		if k == key {
			if v, ok := attrs[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}
