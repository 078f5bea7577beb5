package vkrender

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultFramesInFlight is the number of frame slots used unless Options
// requests otherwise.
const DefaultFramesInFlight = 2

// Options configures a Renderer.
type Options struct {
	// AppName is reported to the driver through the application info.
	AppName string

	// FramesInFlight is the number of frame slots N. Must be at least 2.
	FramesInFlight int

	// EnableValidation turns on VK_LAYER_KHRONOS_validation and routes
	// its messages into Logger.
	EnableValidation bool

	// PreferredPresentModes are tried in order against the surface's present
	// modes, FIFO when none is supported. Empty means Mailbox.
	PreferredPresentModes []vk.PresentMode

	// PreferredFormats are tried in order against the surface formats.
	PreferredFormats []vk.Format

	// MaxSamples caps the MSAA sample count picked for the device.
	MaxSamples vk.SampleCountFlagBits

	// FenceTimeout bounds the wait on a frame slot's fence, zero waits forever.
	FenceTimeout time.Duration

	// PipelineCachePath is where compiled pipeline state is persisted.
	// Empty disables persistence.
	PipelineCachePath string

	// StatsInterval logs frame statistics every StatsInterval presented
	// frames. Zero disables it.
	StatsInterval int

	ClearColor [4]float32

	Logger *slog.Logger
}

// DefaultOptions returns the options a Renderer uses when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		AppName:               "vkrender",
		FramesInFlight:        DefaultFramesInFlight,
		PreferredPresentModes: []vk.PresentMode{vk.PresentModeMailbox},
		PreferredFormats:      []vk.Format{vk.FormatB8g8r8a8Unorm},
		MaxSamples:            vk.SampleCount4Bit,
		ClearColor:            [4]float32{0, 0, 0, 1},
		Logger:                slog.Default(),
	}
}

// Validate fills unset fields with their defaults and rejects settings the
// frame loop cannot run with.
func (o *Options) Validate() error {
	def := DefaultOptions()
	if o.AppName == "" {
		o.AppName = def.AppName
	}
	if o.FramesInFlight == 0 {
		o.FramesInFlight = def.FramesInFlight
	}
	if o.FramesInFlight < 2 {
		return errors.Mark(errors.Newf("frames in flight must be at least 2, got %d", o.FramesInFlight), ErrInvalidOptions)
	}
	if len(o.PreferredPresentModes) == 0 {
		o.PreferredPresentModes = def.PreferredPresentModes
	}
	if len(o.PreferredFormats) == 0 {
		o.PreferredFormats = def.PreferredFormats
	}
	if o.MaxSamples == 0 {
		o.MaxSamples = def.MaxSamples
	}
	if o.MaxSamples&(o.MaxSamples-1) != 0 {
		return errors.Mark(errors.Newf("max samples must be a single sample count bit, got %d", o.MaxSamples), ErrInvalidOptions)
	}
	if o.FenceTimeout < 0 {
		return errors.Mark(errors.New("fence timeout must not be negative"), ErrInvalidOptions)
	}
	if o.StatsInterval < 0 {
		return errors.Mark(errors.New("stats interval must not be negative"), ErrInvalidOptions)
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return nil
}

func (o *Options) fenceTimeout() uint64 {
	if o.FenceTimeout == 0 {
		return vk.MaxUint64
	}
	return uint64(o.FenceTimeout.Nanoseconds())
}
