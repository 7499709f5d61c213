package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFingerprintIsOrderSensitive(t *testing.T) {
	key1 := buildFingerprint("M", []string{"a", "b"})
	key2 := buildFingerprint("M", []string{"b", "a"})

	require.NotEqual(t, key1, key2)
}

func TestBuildFingerprintDistinguishesConcatenationAmbiguity(t *testing.T) {
	key1 := buildFingerprint("M", []string{"a", "b"})
	key2 := buildFingerprint("M", []string{"a,b"})

	require.NotEqual(t, key1, key2)
}

func TestBuildFingerprintDeterministic(t *testing.T) {
	key1 := buildFingerprint("M", []string{"a", "b", "c"})
	key2 := buildFingerprint("M", []string{"a", "b", "c"})

	require.Equal(t, key1, key2)
}
