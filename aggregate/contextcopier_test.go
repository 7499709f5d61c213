package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTelemetryContext struct {
	tags  map[string]string
	props map[string]string
}

func (c *fakeTelemetryContext) Tags() map[string]string       { return c.tags }
func (c *fakeTelemetryContext) Properties() map[string]string { return c.props }

func TestCopyContextPreservesExistingDestinationValues(t *testing.T) {
	src := &fakeTelemetryContext{
		tags:  map[string]string{"ai.cloud.role": "checkout", "ai.operation.id": "op-1"},
		props: map[string]string{"env": "prod", "version": "1.0"},
	}
	dst := &fakeTelemetryContext{
		tags:  map[string]string{"ai.cloud.role": "frontend"},
		props: map[string]string{"env": "staging"},
	}

	require.NoError(t, CopyContext(src, dst))

	// Pre-existing destination values win; only missing keys are filled.
	require.Equal(t, "frontend", dst.tags["ai.cloud.role"])
	require.Equal(t, "op-1", dst.tags["ai.operation.id"])
	require.Equal(t, "staging", dst.props["env"])
	require.Equal(t, "1.0", dst.props["version"])
}

func TestCopyContextSkipsBlankPropertyKeys(t *testing.T) {
	src := &fakeTelemetryContext{props: map[string]string{"": "x", "  ": "y", "ok": "z"}}
	dst := &fakeTelemetryContext{props: map[string]string{}}

	require.NoError(t, CopyContext(src, dst))

	require.Equal(t, map[string]string{"ok": "z"}, dst.props)
}

type noTagsContext struct {
	props map[string]string
}

func (c *noTagsContext) Properties() map[string]string { return c.props }

func TestNoopContextBridgeErrorsOnTagMismatch(t *testing.T) {
	bridge := NoopContextBridge{}

	src := &fakeTelemetryContext{tags: map[string]string{"a": "b"}}
	dst := &noTagsContext{}

	err := bridge.CopyTags(src, dst)
	require.ErrorIs(t, err, ErrInternalIntegrity)
}

func TestNoopContextBridgeNoopsWhenNeitherSideHasTags(t *testing.T) {
	bridge := NoopContextBridge{}

	src := &noTagsContext{props: map[string]string{"a": "1"}}
	dst := &noTagsContext{props: map[string]string{}}

	require.NoError(t, bridge.CopyTags(src, dst))
}

func TestRegisterContextBridgeOverridesDefault(t *testing.T) {
	t.Cleanup(func() { cachedBridge.Store(nil) })

	called := false
	RegisterContextBridge(ContextBridge(bridgeFunc(func(src, dst any) error {
		called = true
		return nil
	})))

	src := &fakeTelemetryContext{tags: map[string]string{}, props: map[string]string{}}
	dst := &fakeTelemetryContext{tags: map[string]string{}, props: map[string]string{}}
	require.NoError(t, CopyContext(src, dst))
	require.True(t, called)
}

type bridgeFunc func(src, dst any) error

func (f bridgeFunc) CopyTags(src, dst any) error { return f(src, dst) }
