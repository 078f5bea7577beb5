package vkrender

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
)

func testCacheBlob(t *testing.T, h pipelineCacheHeader) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte("driver data"))
	return buf.Bytes()
}

func TestValidateCacheHeader(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	good := pipelineCacheHeader{Length: 32, Version: 1, VendorID: 0x10de, DeviceID: 0x2484, UUID: id}

	if err := validateCacheHeader(testCacheBlob(t, good), 0x10de, 0x2484, id); err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}

	tests := map[string]func(h *pipelineCacheHeader){
		"short length": func(h *pipelineCacheHeader) { h.Length = 16 },
		"version":      func(h *pipelineCacheHeader) { h.Version = 2 },
		"vendor":       func(h *pipelineCacheHeader) { h.VendorID = 0x1002 },
		"device":       func(h *pipelineCacheHeader) { h.DeviceID = 0x1 },
		"uuid":         func(h *pipelineCacheHeader) { h.UUID = uuid.Nil },
	}
	for name, mutate := range tests {
		h := good
		mutate(&h)
		if err := validateCacheHeader(testCacheBlob(t, h), 0x10de, 0x2484, id); err == nil {
			t.Errorf("%s: stale header accepted", name)
		}
	}

	if err := validateCacheHeader([]byte{32, 0, 0, 0}, 0x10de, 0x2484, id); err == nil {
		t.Error("truncated header accepted")
	}
}
