package aggregate

import (
	"sort"
	"strings"
)

// ReservedDimensionPrefix marks dimension names that are semantic
// pass-throughs rather than aggregation dimensions: their value is
// copied onto the emitted Aggregate's Context map instead of
// contributing to the series fingerprint.
const ReservedDimensionPrefix = "TelemetryContext."

// Canonical reserved dimension names. This is an allowlist for
// documentation purposes only: any "TelemetryContext."-prefixed name is
// treated as reserved, recognized or not (forward-compatible).
const (
	ReservedInstrumentationKey = ReservedDimensionPrefix + "InstrumentationKey"
	ReservedDeviceID           = ReservedDimensionPrefix + "Device.Id"
	ReservedCloudRoleName      = ReservedDimensionPrefix + "Cloud.RoleName"
	ReservedCloudRoleInstance  = ReservedDimensionPrefix + "Cloud.RoleInstance"
	ReservedOperationID        = ReservedDimensionPrefix + "Operation.Id"
	ReservedOperationName      = ReservedDimensionPrefix + "Operation.Name"
)

// splitReservedDimensions separates named dimensions into the ordered
// (name, value) pairs that participate in the series fingerprint and the
// reserved TelemetryContext.* values that are routed to Aggregate.Context
// instead. Non-reserved names are ordered lexicographically so that
// repeated calls with the same dimension set produce the same arity and
// positional order.
func splitReservedDimensions(dims map[string]string) (names, values []string, context map[string]string) {
	if len(dims) == 0 {
		return nil, nil, nil
	}

	names = make([]string, 0, len(dims))
	for name, value := range dims {
		if strings.HasPrefix(name, ReservedDimensionPrefix) {
			if context == nil {
				context = make(map[string]string)
			}
			context[name] = value
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	values = make([]string, len(names))
	for i, name := range names {
		values[i] = dims[name]
	}
	return names, values, context
}
