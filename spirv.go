package vkrender

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

const spirvMagic = 0x07230203

// SPIR-V opcodes, decorations and storage classes read by Reflect.
const (
	opEntryPoint       = 15
	opTypeImage        = 25
	opTypeSampler      = 26
	opTypeSampledImage = 27
	opTypeArray        = 28
	opTypeRuntimeArray = 29
	opTypeStruct       = 30
	opTypePointer      = 32
	opConstant         = 43
	opVariable         = 59
	opDecorate         = 71

	decorationBlock         = 2
	decorationBufferBlock   = 3
	decorationBinding       = 33
	decorationDescriptorSet = 34

	storageUniform       = 2
	storagePushConstant  = 9
	storageStorageBuffer = 12

	dimBuffer = 5
)

// ShaderBinding is a descriptor a shader declares.
type ShaderBinding struct {
	Set     uint32
	Binding uint32
	Type    vk.DescriptorType
	// Count is the array length, 1 for non-arrays and 0 for runtime arrays.
	Count  uint32
	Stages vk.ShaderStageFlags
}

// ShaderReflection is what Reflect reads from a SPIR-V module.
type ShaderReflection struct {
	Stage    vk.ShaderStageFlagBits
	Bindings []ShaderBinding
}

var executionModelStages = map[uint32]vk.ShaderStageFlagBits{
	0: vk.ShaderStageVertexBit,
	1: vk.ShaderStageTessellationControlBit,
	2: vk.ShaderStageTessellationEvaluationBit,
	3: vk.ShaderStageGeometryBit,
	4: vk.ShaderStageFragmentBit,
	5: vk.ShaderStageComputeBit,
}

// SPIRVWords converts a SPIR-V binary into words, honouring the byte order
// its magic number is written in.
func SPIRVWords(code []byte) ([]uint32, error) {
	if len(code) < 20 || len(code)%4 != 0 {
		return nil, errors.Newf("spir-v module of %d bytes is not a whole number of words", len(code))
	}
	var order binary.ByteOrder = binary.LittleEndian
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		if binary.BigEndian.Uint32(code) != spirvMagic {
			return nil, errors.New("missing spir-v magic number")
		}
		order = binary.BigEndian
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = order.Uint32(code[i*4:])
	}
	return words, nil
}

type spirvPointer struct {
	storage uint32
	pointee uint32
}

type spirvArray struct {
	elem   uint32
	length uint32
	// runtime arrays have no length id
	runtime bool
}

type spirvVariable struct {
	id, typ, storage uint32
}

// Reflect reads the entry point stage and the descriptor bindings from a
// SPIR-V module. Only variables decorated with both a descriptor set and a
// binding are reported.
func Reflect(code []uint32) (*ShaderReflection, error) {
	if len(code) < 5 || code[0] != spirvMagic {
		return nil, errors.New("not a spir-v module")
	}

	var (
		sets       = map[uint32]uint32{}
		bindings   = map[uint32]uint32{}
		blocks     = map[uint32]uint32{}
		images     = map[uint32]vk.DescriptorType{}
		structs    = map[uint32]bool{}
		pointers   = map[uint32]spirvPointer{}
		arrays     = map[uint32]spirvArray{}
		constants  = map[uint32]uint32{}
		hasBinding = map[uint32]bool{}
		hasSet     = map[uint32]bool{}
	)
	var stage vk.ShaderStageFlagBits
	var variables []spirvVariable

	for i := 5; i < len(code); {
		count := int(code[i] >> 16)
		op := code[i] & 0xffff
		if count == 0 || i+count > len(code) {
			return nil, errors.Newf("malformed instruction at word %d", i)
		}
		args := code[i+1 : i+count]
		i += count

		switch op {
		case opEntryPoint:
			if len(args) >= 2 {
				if s, ok := executionModelStages[args[0]]; ok && stage == 0 {
					stage = s
				}
			}
		case opDecorate:
			if len(args) < 2 {
				continue
			}
			target, decoration := args[0], args[1]
			switch decoration {
			case decorationBinding:
				if len(args) >= 3 {
					bindings[target] = args[2]
					hasBinding[target] = true
				}
			case decorationDescriptorSet:
				if len(args) >= 3 {
					sets[target] = args[2]
					hasSet[target] = true
				}
			case decorationBlock, decorationBufferBlock:
				blocks[target] = decoration
			}
		case opTypeImage:
			if len(args) < 7 {
				continue
			}
			switch {
			case args[2] == dimBuffer && args[6] == 2:
				images[args[0]] = vk.DescriptorTypeStorageTexelBuffer
			case args[2] == dimBuffer:
				images[args[0]] = vk.DescriptorTypeUniformTexelBuffer
			case args[6] == 2:
				images[args[0]] = vk.DescriptorTypeStorageImage
			default:
				images[args[0]] = vk.DescriptorTypeSampledImage
			}
		case opTypeSampler:
			if len(args) >= 1 {
				images[args[0]] = vk.DescriptorTypeSampler
			}
		case opTypeSampledImage:
			if len(args) >= 1 {
				images[args[0]] = vk.DescriptorTypeCombinedImageSampler
			}
		case opTypeArray:
			if len(args) >= 3 {
				arrays[args[0]] = spirvArray{elem: args[1], length: args[2]}
			}
		case opTypeRuntimeArray:
			if len(args) >= 2 {
				arrays[args[0]] = spirvArray{elem: args[1], runtime: true}
			}
		case opTypeStruct:
			if len(args) >= 1 {
				structs[args[0]] = true
			}
		case opTypePointer:
			if len(args) >= 3 {
				pointers[args[0]] = spirvPointer{storage: args[1], pointee: args[2]}
			}
		case opConstant:
			if len(args) >= 3 {
				constants[args[1]] = args[2]
			}
		case opVariable:
			if len(args) >= 3 {
				variables = append(variables, spirvVariable{typ: args[0], id: args[1], storage: args[2]})
			}
		}
	}

	r := &ShaderReflection{Stage: stage}
	for _, v := range variables {
		if !hasBinding[v.id] || !hasSet[v.id] || v.storage == storagePushConstant {
			continue
		}
		ptr, ok := pointers[v.typ]
		if !ok {
			return nil, errors.Newf("variable %d is not a pointer", v.id)
		}
		typ, n := ptr.pointee, uint32(1)
		if a, ok := arrays[typ]; ok {
			typ = a.elem
			if a.runtime {
				n = 0
			} else {
				n = constants[a.length]
			}
		}

		kind, isImage := images[typ]
		switch {
		case isImage:
		case structs[typ] && v.storage == storageStorageBuffer:
			kind = vk.DescriptorTypeStorageBuffer
		case structs[typ] && blocks[typ] == decorationBufferBlock:
			kind = vk.DescriptorTypeStorageBuffer
		case structs[typ] && v.storage == storageUniform:
			kind = vk.DescriptorTypeUniformBuffer
		default:
			return nil, errors.Newf("variable %d at set %d binding %d has an unsupported type", v.id, sets[v.id], bindings[v.id])
		}

		r.Bindings = append(r.Bindings, ShaderBinding{
			Set:     sets[v.id],
			Binding: bindings[v.id],
			Type:    kind,
			Count:   n,
			Stages:  vk.ShaderStageFlags(stage),
		})
	}
	sortBindings(r.Bindings)
	return r, nil
}

// ReflectBindings returns only the bindings of Reflect.
func ReflectBindings(code []uint32) ([]ShaderBinding, error) {
	r, err := Reflect(code)
	if err != nil {
		return nil, err
	}
	return r.Bindings, nil
}

// MergeBindings unions the bindings of several stages. A binding used by
// more than one stage keeps the first declaration and collects every stage.
func MergeBindings(lists ...[]ShaderBinding) []ShaderBinding {
	type key struct{ set, binding uint32 }
	index := map[key]int{}
	var out []ShaderBinding
	for _, list := range lists {
		for _, b := range list {
			k := key{b.Set, b.Binding}
			if i, ok := index[k]; ok {
				out[i].Stages |= b.Stages
				continue
			}
			index[k] = len(out)
			out = append(out, b)
		}
	}
	sortBindings(out)
	return out
}

func sortBindings(b []ShaderBinding) {
	sort.Slice(b, func(i, j int) bool {
		if b[i].Set != b[j].Set {
			return b[i].Set < b[j].Set
		}
		return b[i].Binding < b[j].Binding
	})
}

// BindingsForSet filters bindings to one descriptor set.
func BindingsForSet(bindings []ShaderBinding, set uint32) []ShaderBinding {
	var out []ShaderBinding
	for _, b := range bindings {
		if b.Set == set {
			out = append(out, b)
		}
	}
	return out
}
