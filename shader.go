package vkrender

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/sync/errgroup"
)

// ShaderModule is a compiled SPIR-V module together with what Reflect read
// from it.
type ShaderModule struct {
	Device         *Device
	Description    string
	VKShaderModule vk.ShaderModule
	Stage          vk.ShaderStageFlagBits
	Bindings       []ShaderBinding
}

// CreateShaderModule reflects code and creates the module from it.
func (d *Device) CreateShaderModule(description string, code []byte) (*ShaderModule, error) {
	words, err := SPIRVWords(code)
	if err != nil {
		return nil, errors.Wrap(err, description)
	}
	reflection, err := Reflect(words)
	if err != nil {
		return nil, errors.Wrap(err, description)
	}
	if reflection.Stage == 0 {
		return nil, errors.Newf("%s: no entry point", description)
	}

	var module vk.ShaderModule
	err = vkErr(vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}, nil, &module), "vkCreateShaderModule")
	if err != nil {
		return nil, errors.Wrap(err, description)
	}

	return &ShaderModule{
		Device:         d,
		Description:    description,
		VKShaderModule: module,
		Stage:          reflection.Stage,
		Bindings:       reflection.Bindings,
	}, nil
}

func (d *Device) LoadShaderModuleFromFile(file string) (*ShaderModule, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading shader %s", file)
	}
	return d.CreateShaderModule(filepath.Base(file), data)
}

// LoadShaders loads every file concurrently. On failure the modules that
// were created are destroyed and the first error is returned.
func (d *Device) LoadShaders(files ...string) ([]*ShaderModule, error) {
	modules := make([]*ShaderModule, len(files))
	var g errgroup.Group
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			m, err := d.LoadShaderModuleFromFile(file)
			if err != nil {
				return err
			}
			modules[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, m := range modules {
			if m != nil {
				m.Destroy()
			}
		}
		return nil, err
	}
	return modules, nil
}

func (s *ShaderModule) VKPipelineShaderStageCreateInfo(entryPoint string) vk.PipelineShaderStageCreateInfo {
	var shaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{}
	shaderStageCreateInfo.SType = vk.StructureTypePipelineShaderStageCreateInfo
	shaderStageCreateInfo.Stage = s.Stage
	shaderStageCreateInfo.Module = s.VKShaderModule
	shaderStageCreateInfo.PName = safeString(entryPoint)
	return shaderStageCreateInfo
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.Device.VKDevice, s.VKShaderModule, nil)
}
