package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrNoMemoryType is returned when no memory type satisfies both the
	// resource's type filter and the requested property flags.
	ErrNoMemoryType = errors.New("no matching memory type found")

	// ErrUnsupportedFormat is returned when none of the candidate formats
	// supports the requested tiling features.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnsupportedTransition is returned for image layout transitions
	// that have no barrier recipe.
	ErrUnsupportedTransition = errors.New("unsupported layout transition")

	// ErrBindingMismatch marks disagreement between the bindings registered
	// on a DescriptorSet and the bindings a shader declares.
	ErrBindingMismatch = errors.New("descriptor binding mismatch")

	// ErrLayoutFrozen is returned when attachments or bindings are added
	// after the render pass or descriptor layout was generated.
	ErrLayoutFrozen = errors.New("layout already generated")

	// ErrNotMapped is returned when copying into a resource that has no CPU mapping.
	ErrNotMapped = errors.New("resource is not mapped")

	// ErrCopyOverflow is returned when a copy would write past the end of a resource.
	ErrCopyOverflow = errors.New("copy exceeds resource size")

	// ErrPoolExhausted is returned when a buffer pool has no range left
	// for an allocation.
	ErrPoolExhausted = errors.New("insufficient space in buffer pool")

	// ErrSurfaceOutOfDate reports a swapchain that no longer matches its surface.
	ErrSurfaceOutOfDate = errors.New("surface out of date")

	// ErrInvalidOptions is returned by Options.Validate.
	ErrInvalidOptions = errors.New("invalid options")
)

// vkErr converts a vulkan result into an error annotated with the failing call.
func vkErr(res vk.Result, call string) error {
	if res == vk.Success {
		return nil
	}
	return errors.Wrap(vk.Error(res), call)
}
