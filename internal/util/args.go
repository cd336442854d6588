package util

// Argument accessors for tool functions. JSON decoding delivers numbers as
// float64 and lists as []any; these helpers normalize the common cases so
// tool bodies stay small.

// StringArg returns the named argument as a string, or fallback when absent
// or not a string.
func StringArg(args map[string]any, name, fallback string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return fallback
}

// IntArg returns the named argument as an int, accepting float64 and int
// representations. Returns fallback when absent or not numeric.
func IntArg(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// StringSliceArg returns the named argument as a string slice, accepting
// []string and []any with string elements. Non-string elements are skipped.
func StringSliceArg(args map[string]any, name string) []string {
	switch v := args[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
