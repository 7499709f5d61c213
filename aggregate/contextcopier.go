package aggregate

import (
	"fmt"
	"strings"

	"go.uber.org/atomic"
)

// PropertyContext is the minimal surface ContextCopier needs from a host
// telemetry context: a mutable key/value property bag. Properties
// returns the live map (not a copy) so writes land on the real context.
type PropertyContext interface {
	Properties() map[string]string
}

// TagContext is implemented by host contexts whose tag structure is
// publicly settable. Hosts that keep tags behind a non-public
// initializer instead plug in a ContextBridge implementation.
type TagContext interface {
	Tags() map[string]string
}

// ContextBridge binds tag copying to a specific host telemetry client.
// Most hosts expose tags publicly and can use NoopContextBridge; a host
// that hides its tag structure behind a private initializer supplies its
// own implementation here instead of teaching the core to reflect into
// it.
type ContextBridge interface {
	CopyTags(src, dst any) error
}

// NoopContextBridge copies tags via the TagContext interface when both
// src and dst implement it; it does nothing when neither does. It
// reports ErrInternalIntegrity only when exactly one side exposes tags
// publicly and the other doesn't, a host mismatch this bridge cannot
// resolve.
type NoopContextBridge struct{}

func (NoopContextBridge) CopyTags(src, dst any) error {
	srcTags, srcOK := src.(TagContext)
	dstTags, dstOK := dst.(TagContext)

	switch {
	case !srcOK && !dstOK:
		return nil
	case srcOK != dstOK:
		return fmt.Errorf("%w: src/dst tag-context mismatch", ErrInternalIntegrity)
	}

	copyMissing(srcTags.Tags(), dstTags.Tags())
	return nil
}

// bridgeHolder lets the process-wide bridge handle be stored behind
// go.uber.org/atomic.Pointer, which requires a concrete element type.
type bridgeHolder struct {
	bridge ContextBridge
}

// cachedBridge holds the process-wide ContextBridge, initialized lazily
// under compare-and-swap the first time no bridge has been registered.
var cachedBridge atomic.Pointer[bridgeHolder]

// RegisterContextBridge installs the process-wide ContextBridge used by
// CopyContext. Call it once during host integration setup, before any
// CopyContext call that needs it.
func RegisterContextBridge(b ContextBridge) {
	cachedBridge.Store(&bridgeHolder{bridge: b})
}

func loadBridge() ContextBridge {
	h := cachedBridge.Load()
	if h != nil {
		return h.bridge
	}

	candidate := &bridgeHolder{bridge: NoopContextBridge{}}
	if cachedBridge.CompareAndSwap(nil, candidate) {
		return candidate.bridge
	}
	return cachedBridge.Load().bridge
}

// CopyContext transfers src's tags and properties into dst, preserving
// any value already present in dst. Empty or whitespace-only source
// property keys are skipped.
func CopyContext(src, dst PropertyContext) error {
	if err := loadBridge().CopyTags(src, dst); err != nil {
		return err
	}

	srcProps := src.Properties()
	dstProps := dst.Properties()
	if dstProps == nil {
		return nil
	}

	for k, v := range srcProps {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if _, exists := dstProps[k]; exists {
			continue
		}
		dstProps[k] = v
	}
	return nil
}

// copyMissing copies entries from src into dst that dst does not already
// have, leaving existing dst entries untouched.
func copyMissing(src, dst map[string]string) {
	if dst == nil {
		return
	}
	for k, v := range src {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if _, exists := dst[k]; exists {
			continue
		}
		dst[k] = v
	}
}
