package vkrender

import (
	"encoding/binary"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func spirvOp(op uint32, args ...uint32) []uint32 {
	return append([]uint32{uint32(len(args)+1)<<16 | op}, args...)
}

// testFragmentModule declares a uniform block at set 0 binding 0, an array
// of four combined image samplers at set 0 binding 1 and a single combined
// image sampler at set 1 binding 0.
func testFragmentModule() []uint32 {
	name := []uint32{0x6e69616d, 0} // "main"
	code := []uint32{spirvMagic, 0x00010000, 0, 40, 0}
	for _, inst := range [][]uint32{
		spirvOp(opEntryPoint, append([]uint32{4, 1}, name...)...),
		spirvOp(opDecorate, 10, decorationDescriptorSet, 0),
		spirvOp(opDecorate, 10, decorationBinding, 0),
		spirvOp(opDecorate, 20, decorationDescriptorSet, 0),
		spirvOp(opDecorate, 20, decorationBinding, 1),
		spirvOp(opDecorate, 30, decorationDescriptorSet, 1),
		spirvOp(opDecorate, 30, decorationBinding, 0),
		spirvOp(opDecorate, 5, decorationBlock),
		spirvOp(opTypeStruct, 5, 2),
		spirvOp(opTypePointer, 6, storageUniform, 5),
		spirvOp(opVariable, 6, 10, storageUniform),
		spirvOp(opTypeImage, 7, 3, 1, 0, 0, 0, 1, 0),
		spirvOp(opTypeSampledImage, 8, 7),
		spirvOp(opConstant, 4, 11, 4),
		spirvOp(opTypeArray, 9, 8, 11),
		spirvOp(opTypePointer, 12, 0, 9),
		spirvOp(opVariable, 12, 20, 0),
		spirvOp(opTypePointer, 13, 0, 8),
		spirvOp(opVariable, 13, 30, 0),
		spirvOp(opTypePointer, 14, storagePushConstant, 5),
		spirvOp(opVariable, 14, 15, storagePushConstant),
	} {
		code = append(code, inst...)
	}
	return code
}

func TestReflectBindings(t *testing.T) {
	r, err := Reflect(testFragmentModule())
	if err != nil {
		t.Fatal(err)
	}
	if r.Stage != vk.ShaderStageFragmentBit {
		t.Errorf("stage = %d, want fragment", r.Stage)
	}

	frag := vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	want := []ShaderBinding{
		{Set: 0, Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Count: 1, Stages: frag},
		{Set: 0, Binding: 1, Type: vk.DescriptorTypeCombinedImageSampler, Count: 4, Stages: frag},
		{Set: 1, Binding: 0, Type: vk.DescriptorTypeCombinedImageSampler, Count: 1, Stages: frag},
	}
	if len(r.Bindings) != len(want) {
		t.Fatalf("bindings = %+v", r.Bindings)
	}
	for i := range want {
		if r.Bindings[i] != want[i] {
			t.Errorf("binding %d = %+v, want %+v", i, r.Bindings[i], want[i])
		}
	}
}

func TestReflectRejectsGarbage(t *testing.T) {
	if _, err := Reflect([]uint32{1, 2, 3, 4, 5}); err == nil {
		t.Error("bad magic accepted")
	}
	code := []uint32{spirvMagic, 0, 0, 0, 0, 10<<16 | opDecorate, 1}
	if _, err := Reflect(code); err == nil {
		t.Error("truncated instruction accepted")
	}
}

func TestSPIRVWords(t *testing.T) {
	code := testFragmentModule()

	le := make([]byte, len(code)*4)
	be := make([]byte, len(code)*4)
	for i, w := range code {
		binary.LittleEndian.PutUint32(le[i*4:], w)
		binary.BigEndian.PutUint32(be[i*4:], w)
	}
	for name, raw := range map[string][]byte{"little": le, "big": be} {
		words, err := SPIRVWords(raw)
		if err != nil {
			t.Fatalf("%s endian: %v", name, err)
		}
		if len(words) != len(code) || words[0] != spirvMagic || words[len(words)-1] != code[len(code)-1] {
			t.Errorf("%s endian decode mismatch", name)
		}
	}
	if _, err := SPIRVWords(le[:len(le)-1]); err == nil {
		t.Error("partial word accepted")
	}
}

func TestMergeBindings(t *testing.T) {
	vert := vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	frag := vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	merged := MergeBindings(
		[]ShaderBinding{{Set: 0, Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Count: 1, Stages: vert}},
		[]ShaderBinding{
			{Set: 0, Binding: 1, Type: vk.DescriptorTypeCombinedImageSampler, Count: 1, Stages: frag},
			{Set: 0, Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Count: 1, Stages: frag},
		},
	)
	if len(merged) != 2 {
		t.Fatalf("merged = %+v", merged)
	}
	if merged[0].Stages != vert|frag {
		t.Errorf("shared binding stages = %#x", merged[0].Stages)
	}
	if got := BindingsForSet(merged, 1); len(got) != 0 {
		t.Errorf("set 1 = %+v", got)
	}
}
