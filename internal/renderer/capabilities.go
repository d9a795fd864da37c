package renderer

import "sort"

// MissingNames returns the required names that are absent from available,
// in the order they were required.
func MissingNames[V any](available map[string]V, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// RequireNames fails with a CapabilityError naming every missing entry.
func RequireNames[V any](kind string, available map[string]V, required []string) error {
	missing := MissingNames(available, required)
	if len(missing) > 0 {
		return &CapabilityError{Kind: kind, Missing: missing}
	}
	return nil
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
