package tags

// Diff returns the key-value pairs of desired that are missing from, or have
// a different value in, current.
func Diff(desired map[string]string, current map[string]string) map[string]string {
	diff := map[string]string{}

	for key, value := range desired {
		if currentValue, ok := current[key]; ok && value == currentValue {
			continue
		}

		diff[key] = value
	}

	return diff
}
