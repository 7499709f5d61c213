package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitReservedDimensionsRoutesPrefixedNames(t *testing.T) {
	names, values, ctx := splitReservedDimensions(map[string]string{
		"country":                "US",
		"browser":                "Chrome",
		ReservedCloudRoleName:    "checkout",
		ReservedOperationID:      "op-42",
	})

	require.ElementsMatch(t, []string{"browser", "country"}, names)
	require.Len(t, values, 2)
	require.Equal(t, "checkout", ctx[ReservedCloudRoleName])
	require.Equal(t, "op-42", ctx[ReservedOperationID])

	// names and values stay aligned by position.
	for i, n := range names {
		if n == "country" {
			require.Equal(t, "US", values[i])
		}
		if n == "browser" {
			require.Equal(t, "Chrome", values[i])
		}
	}
}

func TestSplitReservedDimensionsStableOrderAcrossCalls(t *testing.T) {
	dims := map[string]string{"zebra": "1", "apple": "2", "mango": "3"}

	names1, values1, _ := splitReservedDimensions(dims)
	names2, values2, _ := splitReservedDimensions(dims)

	require.Equal(t, names1, names2)
	require.Equal(t, values1, values2)
	require.Equal(t, []string{"apple", "mango", "zebra"}, names1)
}

func TestSplitReservedDimensionsEmptyInput(t *testing.T) {
	names, values, ctx := splitReservedDimensions(nil)
	require.Nil(t, names)
	require.Nil(t, values)
	require.Nil(t, ctx)
}
