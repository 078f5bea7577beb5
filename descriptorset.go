package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SampledImage pairs a view with the sampler reading it.
type SampledImage struct {
	View    *ImageView
	Sampler *Sampler
}

type descriptorBinding struct {
	index   uint32
	kind    vk.DescriptorType
	stages  vk.ShaderStageFlags
	uniform UniformSource
	images  []SampledImage
}

func (b *descriptorBinding) count() uint32 {
	if b.images != nil {
		return uint32(len(b.images))
	}
	return 1
}

// DescriptorSet accumulates bindings and generates the layout, pool and one
// vk.DescriptorSet per frame slot from them. Binding indices are handed out
// in call order across every kind of binding, starting at zero; shaders must
// declare them in the same order.
type DescriptorSet struct {
	Device           *Device
	Sets             int
	Layout           *DescriptorSetLayout
	Pool             *DescriptorPool
	VKDescriptorSets []vk.DescriptorSet

	bindings []*descriptorBinding
	frozen   bool
}

// NewDescriptorSet starts a descriptor set with sets copies, one per frame slot.
func (d *Device) NewDescriptorSet(sets int) *DescriptorSet {
	if sets < 1 {
		sets = 1
	}
	return &DescriptorSet{Device: d, Sets: sets}
}

func (ds *DescriptorSet) add(b *descriptorBinding) (int, error) {
	if ds.frozen {
		return 0, errors.Wrap(ErrLayoutFrozen, "adding descriptor binding")
	}
	b.index = uint32(len(ds.bindings))
	ds.bindings = append(ds.bindings, b)
	return int(b.index), nil
}

// AddUniform adds a uniform buffer binding. Set i binds slot i of u.
func (ds *DescriptorSet) AddUniform(stages vk.ShaderStageFlags, u UniformSource) (int, error) {
	return ds.add(&descriptorBinding{kind: vk.DescriptorTypeUniformBuffer, stages: stages, uniform: u})
}

// AddDynamicUniform adds a dynamic uniform binding covering one block of u.
// The block is chosen by the dynamic offset given at bind time.
func (ds *DescriptorSet) AddDynamicUniform(stages vk.ShaderStageFlags, u *DynamicUniformBuffer) (int, error) {
	return ds.add(&descriptorBinding{kind: vk.DescriptorTypeUniformBufferDynamic, stages: stages, uniform: u})
}

// AddSampler adds a combined image sampler read by the fragment stage.
func (ds *DescriptorSet) AddSampler(view *ImageView, sampler *Sampler) (int, error) {
	return ds.add(&descriptorBinding{
		kind:   vk.DescriptorTypeCombinedImageSampler,
		stages: vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		images: []SampledImage{{View: view, Sampler: sampler}},
	})
}

// AddTexture adds a combined image sampler for t.
func (ds *DescriptorSet) AddTexture(t *Texture) (int, error) {
	return ds.AddSampler(t.View, t.Sampler)
}

// AddSamplerArray adds an array of combined image samplers, one per texture.
func (ds *DescriptorSet) AddSamplerArray(textures []*Texture) (int, error) {
	if len(textures) == 0 {
		return 0, errors.New("sampler array needs at least one texture")
	}
	images := make([]SampledImage, len(textures))
	for i, t := range textures {
		images[i] = SampledImage{View: t.View, Sampler: t.Sampler}
	}
	return ds.add(&descriptorBinding{
		kind:   vk.DescriptorTypeCombinedImageSampler,
		stages: vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		images: images,
	})
}

// LayoutBindings describes the registered bindings in index order.
func (ds *DescriptorSet) LayoutBindings() []vk.DescriptorSetLayoutBinding {
	out := make([]vk.DescriptorSetLayoutBinding, len(ds.bindings))
	for i, b := range ds.bindings {
		out[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.index,
			DescriptorType:  b.kind,
			DescriptorCount: b.count(),
			StageFlags:      b.stages,
		}
	}
	return out
}

// PoolSizes has one entry per distinct descriptor type, sized for every set.
func (ds *DescriptorSet) PoolSizes() []vk.DescriptorPoolSize {
	var sizes []vk.DescriptorPoolSize
	index := map[vk.DescriptorType]int{}
	for _, b := range ds.bindings {
		i, ok := index[b.kind]
		if !ok {
			i = len(sizes)
			index[b.kind] = i
			sizes = append(sizes, vk.DescriptorPoolSize{Type: b.kind})
		}
		sizes[i].DescriptorCount += b.count() * uint32(ds.Sets)
	}
	return sizes
}

// Writes describes the descriptor writes for set i.
func (ds *DescriptorSet) Writes(set int) []vk.WriteDescriptorSet {
	var dst vk.DescriptorSet
	if set < len(ds.VKDescriptorSets) {
		dst = ds.VKDescriptorSets[set]
	}
	writes := make([]vk.WriteDescriptorSet, len(ds.bindings))
	for i, b := range ds.bindings {
		w := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          dst,
			DstBinding:      b.index,
			DescriptorCount: b.count(),
			DescriptorType:  b.kind,
		}
		if b.uniform != nil {
			w.PBufferInfo = []vk.DescriptorBufferInfo{b.uniform.SlotInfo(set % b.uniform.Slots())}
		} else {
			infos := make([]vk.DescriptorImageInfo, len(b.images))
			for j, img := range b.images {
				infos[j] = vk.DescriptorImageInfo{
					Sampler:     img.Sampler.VKSampler,
					ImageView:   img.View.VKImageView,
					ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				}
			}
			w.PImageInfo = infos
		}
		writes[i] = w
	}
	return writes
}

// GenerateLayout compiles the bindings into a layout. No binding can be
// added afterwards.
func (ds *DescriptorSet) GenerateLayout() error {
	layout, err := ds.Device.CreateDescriptorSetLayout(ds.LayoutBindings())
	if err != nil {
		return err
	}
	ds.Layout = layout
	ds.frozen = true
	return nil
}

// GeneratePool creates a pool sized for Sets sets of this layout.
func (ds *DescriptorSet) GeneratePool() error {
	pool, err := ds.Device.CreateDescriptorPool(ds.PoolSizes(), ds.Sets)
	if err != nil {
		return err
	}
	ds.Pool = pool
	return nil
}

// Allocate allocates the sets from the pool.
func (ds *DescriptorSet) Allocate() error {
	if ds.Layout == nil || ds.Pool == nil {
		return errors.New("descriptor set layout and pool must be generated before allocating")
	}
	sets, err := ds.Pool.Allocate(ds.Layout, ds.Sets)
	if err != nil {
		return err
	}
	ds.VKDescriptorSets = sets
	return nil
}

// UpdateDescriptors writes the bound resources into every set.
func (ds *DescriptorSet) UpdateDescriptors() {
	for i := range ds.VKDescriptorSets {
		writes := ds.Writes(i)
		vk.UpdateDescriptorSets(ds.Device.VKDevice, uint32(len(writes)), writes, 0, nil)
	}
}

// Generate runs GenerateLayout, GeneratePool, Allocate and UpdateDescriptors.
func (ds *DescriptorSet) Generate() error {
	if err := ds.GenerateLayout(); err != nil {
		return err
	}
	if err := ds.GeneratePool(); err != nil {
		return err
	}
	if err := ds.Allocate(); err != nil {
		return err
	}
	ds.UpdateDescriptors()
	return nil
}

// Set returns the descriptor set for a frame slot.
func (ds *DescriptorSet) Set(slot int) vk.DescriptorSet {
	return ds.VKDescriptorSets[slot%len(ds.VKDescriptorSets)]
}

func descriptorTypesCompatible(registered, declared vk.DescriptorType) bool {
	if registered == declared {
		return true
	}
	isUniform := func(t vk.DescriptorType) bool {
		return t == vk.DescriptorTypeUniformBuffer || t == vk.DescriptorTypeUniformBufferDynamic
	}
	return isUniform(registered) && isUniform(declared)
}

// Validate checks the bindings a shader declares for this set against the
// registered ones. Every declared binding must be registered with a
// compatible type, the same count and its stage.
func (ds *DescriptorSet) Validate(declared []ShaderBinding) error {
	for _, sb := range declared {
		if int(sb.Binding) >= len(ds.bindings) {
			return errors.Wrapf(ErrBindingMismatch, "binding %d is declared but not registered", sb.Binding)
		}
		b := ds.bindings[sb.Binding]
		if !descriptorTypesCompatible(b.kind, sb.Type) {
			return errors.Wrapf(ErrBindingMismatch, "binding %d: registered type %d, declared %d", sb.Binding, b.kind, sb.Type)
		}
		if sb.Count != 0 && sb.Count != b.count() {
			return errors.Wrapf(ErrBindingMismatch, "binding %d: registered %d descriptors, declared %d", sb.Binding, b.count(), sb.Count)
		}
		if sb.Stages&^b.stages != 0 {
			return errors.Wrapf(ErrBindingMismatch, "binding %d: used by stages %#x but visible to %#x", sb.Binding, sb.Stages, b.stages)
		}
	}
	return nil
}

// Destroy releases the pool, which frees the sets, and the layout.
func (ds *DescriptorSet) Destroy() {
	if ds.Pool != nil {
		ds.Pool.Destroy()
		ds.Pool = nil
	}
	if ds.Layout != nil {
		ds.Layout.Destroy()
		ds.Layout = nil
	}
	ds.VKDescriptorSets = nil
}
