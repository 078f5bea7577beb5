package vkrender

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/docker/go-units"
	"github.com/google/uuid"
	vk "github.com/vulkan-go/vulkan"
)

// pipelineCacheHeader is the header every pipeline cache blob starts with.
type pipelineCacheHeader struct {
	Length   uint32
	Version  uint32
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

const pipelineCacheHeaderVersionOne = 1

// PipelineCache compiles pipelines through a vk.PipelineCache and persists
// it between runs.
type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
	Path            string

	log *slog.Logger
}

// validateCacheHeader reports why data cannot seed a cache on the device
// identified by vendorID, deviceID and id, or nil when it can.
func validateCacheHeader(data []byte, vendorID, deviceID uint32, id uuid.UUID) error {
	var h pipelineCacheHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return errors.Wrap(err, "reading pipeline cache header")
	}
	switch {
	case h.Length < 32:
		return errors.Newf("bad header length %d", h.Length)
	case h.Version != pipelineCacheHeaderVersionOne:
		return errors.Newf("unsupported header version %d", h.Version)
	case h.VendorID != vendorID:
		return errors.Newf("vendor id %#x, driver expects %#x", h.VendorID, vendorID)
	case h.DeviceID != deviceID:
		return errors.Newf("device id %#x, driver expects %#x", h.DeviceID, deviceID)
	case h.UUID != id:
		return errors.Newf("cache uuid %s, driver expects %s", h.UUID, id)
	}
	return nil
}

// OpenPipelineCache creates a pipeline cache seeded from path. A missing
// file starts an empty cache, a blob written by another driver or device
// is discarded. An empty path disables persistence.
func (d *Device) OpenPipelineCache(path string, log *slog.Logger) (*PipelineCache, error) {
	if log == nil {
		log = slog.Default()
	}
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			log.Debug("pipeline cache miss", "path", path)
		case err != nil:
			log.Warn("cannot read pipeline cache", "path", path, "err", err)
			data = nil
		}
	}
	if len(data) > 0 {
		props := d.PhysicalDevice.VKPhysicalDeviceProperties
		if err := validateCacheHeader(data, props.VendorID, props.DeviceID, d.PhysicalDevice.PipelineCacheUUID()); err != nil {
			log.Warn("discarding stale pipeline cache", "path", path, "err", err)
			data = nil
			_ = os.Remove(path)
		}
	}

	info := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	if len(data) > 0 {
		info.InitialDataSize = uint(len(data))
		info.PInitialData = unsafe.Pointer(&data[0])
	}

	var cache vk.PipelineCache
	if err := vkErr(vk.CreatePipelineCache(d.VKDevice, &info, nil, &cache), "vkCreatePipelineCache"); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		log.Info("pipeline cache loaded", "path", path, "size", units.BytesSize(float64(len(data))))
	}
	return &PipelineCache{Device: d, VKPipelineCache: cache, Path: path, log: log}, nil
}

// Data returns the current contents of the cache.
func (c *PipelineCache) Data() ([]byte, error) {
	var size uint
	if err := vkErr(vk.GetPipelineCacheData(c.Device.VKDevice, c.VKPipelineCache, &size, nil), "vkGetPipelineCacheData"); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	data := make([]byte, size)
	if err := vkErr(vk.GetPipelineCacheData(c.Device.VKDevice, c.VKPipelineCache, &size, unsafe.Pointer(&data[0])), "vkGetPipelineCacheData"); err != nil {
		return nil, err
	}
	return data[:size], nil
}

// Save writes the cache to Path. It does nothing when Path is empty.
func (c *PipelineCache) Save() error {
	if c.Path == "" {
		return nil
	}
	data, err := c.Data()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating pipeline cache directory")
		}
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing pipeline cache")
	}
	c.log.Debug("pipeline cache saved", "path", c.Path, "size", units.BytesSize(float64(len(data))))
	return nil
}

func (c *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(c.Device.VKDevice, c.VKPipelineCache, nil)
}
