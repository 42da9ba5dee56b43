package widgets

import "github.com/lensworks/formkit/pkg/changeset"

// PreviewHandle is a releasable local preview for a selected image. The
// underlying resource (an object URL, a temp file) is freed exactly once,
// on replacement or on form unmount.
type PreviewHandle struct {
	released bool
	release  func()
}

// NewPreviewHandle wraps a release function.
func NewPreviewHandle(release func()) *PreviewHandle {
	return &PreviewHandle{release: release}
}

// Release frees the resource. Subsequent calls are no-ops.
func (h *PreviewHandle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	if h.release != nil {
		h.release()
	}
}

// Released reports whether the handle has been freed.
func (h *PreviewHandle) Released() bool {
	return h == nil || h.released
}

// PreviewFactory creates preview handles for selected images.
type PreviewFactory interface {
	Preview(ref changeset.FileRef) *PreviewHandle
}

// PreviewFactoryFunc adapts a function to the PreviewFactory interface.
type PreviewFactoryFunc func(ref changeset.FileRef) *PreviewHandle

// Preview implements PreviewFactory.
func (f PreviewFactoryFunc) Preview(ref changeset.FileRef) *PreviewHandle {
	return f(ref)
}

// NopPreviews returns a factory whose handles hold no real resource. It is
// the default for surfaces that render no preview.
func NopPreviews() PreviewFactory {
	return PreviewFactoryFunc(func(changeset.FileRef) *PreviewHandle {
		return NewPreviewHandle(nil)
	})
}
