package aggregate

import "strings"

// fingerprintSeparator is a non-printable byte unlikely to appear in
// caller-supplied dimension values; it keeps "a","b" distinct from
// "a,b","". Dimension order here is positional and significant, so
// this join never sorts or reorders its inputs.
const fingerprintSeparator = "\xff"

// buildFingerprint returns the canonical map key for (metricID, dimValues).
func buildFingerprint(metricID string, dimValues []string) string {
	var b strings.Builder
	b.WriteString(metricID)
	for _, v := range dimValues {
		b.WriteString(fingerprintSeparator)
		b.WriteString(v)
	}
	return b.String()
}
