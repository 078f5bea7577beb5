package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PipelineLayout keeps the descriptor sets it was built from so pipelines
// can check them against their shaders. Sets[i] is bound at set index i.
type PipelineLayout struct {
	Device             *Device
	VKPipelineLayout   vk.PipelineLayout
	Sets               []*DescriptorSet
	PushConstantRanges []vk.PushConstantRange
}

func (p *PipelineLayout) Destroy() {
	vk.DestroyPipelineLayout(p.Device.VKDevice, p.VKPipelineLayout, nil)
}

// CreatePipelineLayout creates a layout over sets, whose layouts must
// already be generated.
func (d *Device) CreatePipelineLayout(sets []*DescriptorSet, pushConstants ...vk.PushConstantRange) (*PipelineLayout, error) {
	l := make([]vk.DescriptorSetLayout, len(sets))
	for i, ds := range sets {
		if ds.Layout == nil {
			return nil, errors.Newf("descriptor set %d has no generated layout", i)
		}
		l[i] = ds.Layout.VKDescriptorSetLayout
	}

	var pipelineLayoutCreateInfo = vk.PipelineLayoutCreateInfo{}
	pipelineLayoutCreateInfo.SType = vk.StructureTypePipelineLayoutCreateInfo
	pipelineLayoutCreateInfo.SetLayoutCount = uint32(len(l))
	pipelineLayoutCreateInfo.PSetLayouts = l
	pipelineLayoutCreateInfo.PushConstantRangeCount = uint32(len(pushConstants))
	pipelineLayoutCreateInfo.PPushConstantRanges = pushConstants

	var pipelineLayout vk.PipelineLayout
	err := vkErr(vk.CreatePipelineLayout(d.VKDevice, &pipelineLayoutCreateInfo, nil, &pipelineLayout), "vkCreatePipelineLayout")
	if err != nil {
		return nil, err
	}

	return &PipelineLayout{
		Device:             d,
		VKPipelineLayout:   pipelineLayout,
		Sets:               sets,
		PushConstantRanges: pushConstants,
	}, nil
}

// Validate checks the merged bindings of a pipeline's shader stages
// against the layout's sets. It returns ErrBindingMismatch when a shader
// reads a set the layout does not have, or when a set disagrees with its
// declared bindings.
func (p *PipelineLayout) Validate(bindings []ShaderBinding) error {
	for _, b := range bindings {
		if int(b.Set) >= len(p.Sets) {
			return errors.Wrapf(ErrBindingMismatch, "set %d binding %d is declared but the layout has %d sets", b.Set, b.Binding, len(p.Sets))
		}
	}
	for i, ds := range p.Sets {
		if err := ds.Validate(BindingsForSet(bindings, uint32(i))); err != nil {
			return errors.Wrapf(err, "set %d", i)
		}
	}
	return nil
}

// PushConstantStages returns the union of the stages of every push
// constant range.
func (p *PipelineLayout) PushConstantStages() vk.ShaderStageFlags {
	var stages vk.ShaderStageFlags
	for _, r := range p.PushConstantRanges {
		stages |= r.StageFlags
	}
	return stages
}
