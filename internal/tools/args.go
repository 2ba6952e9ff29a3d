package tools

// stringArg extracts a string argument from the bag. Missing keys and
// non-string values return the fallback.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// boolArg extracts a bool argument from the bag.
func boolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// requireString extracts a mandatory string argument; ok is false when the
// key is absent, not a string, or empty.
func requireString(args map[string]any, key string) (string, bool) {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
