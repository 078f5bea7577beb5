package vkrender

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestOptionsValidateFillsDefaults(t *testing.T) {
	var o Options
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.FramesInFlight != DefaultFramesInFlight {
		t.Errorf("frames in flight = %d, want %d", o.FramesInFlight, DefaultFramesInFlight)
	}
	if o.MaxSamples != vk.SampleCount4Bit {
		t.Errorf("max samples = %d, want 4", o.MaxSamples)
	}
	if len(o.PreferredFormats) != 1 || o.PreferredFormats[0] != vk.FormatB8g8r8a8Unorm {
		t.Errorf("preferred formats = %v", o.PreferredFormats)
	}
	if len(o.PreferredPresentModes) != 1 || o.PreferredPresentModes[0] != vk.PresentModeMailbox {
		t.Errorf("preferred present modes = %v, want mailbox", o.PreferredPresentModes)
	}
	if o.Logger == nil {
		t.Error("logger not defaulted")
	}
	if o.fenceTimeout() != vk.MaxUint64 {
		t.Error("zero fence timeout should wait forever")
	}
}

func TestOptionsValidateKeepsImmediate(t *testing.T) {
	o := Options{PreferredPresentModes: []vk.PresentMode{vk.PresentModeImmediate}}
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(o.PreferredPresentModes) != 1 || o.PreferredPresentModes[0] != vk.PresentModeImmediate {
		t.Errorf("preferred present modes = %v, want immediate", o.PreferredPresentModes)
	}
}

func TestOptionsValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"single frame slot", Options{FramesInFlight: 1}},
		{"negative frame slots", Options{FramesInFlight: -3}},
		{"sample mask", Options{MaxSamples: vk.SampleCount4Bit | vk.SampleCount2Bit}},
		{"negative timeout", Options{FenceTimeout: -time.Second}},
		{"negative stats interval", Options{StatsInterval: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("got %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestOptionsFenceTimeout(t *testing.T) {
	o := DefaultOptions()
	o.FenceTimeout = 250 * time.Millisecond
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := o.fenceTimeout(); got != uint64(250*time.Millisecond) {
		t.Errorf("fence timeout = %d", got)
	}
}
