package needle

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const spirvMagic = 0x07230203

type ShaderModule struct {
	Device         *Device
	Description    string
	VKShaderModule vk.ShaderModule
}

// LoadShaderModuleFromFile creates a shader module from a SPIR-V binary on disk
func (d *Device) LoadShaderModuleFromFile(file string) (*ShaderModule, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	module, err := d.CreateShaderModule(data)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", file)
	}
	module.Description = file
	return module, nil
}

// CreateShaderModule creates a shader module from SPIR-V code
func (d *Device) CreateShaderModule(code []byte) (*ShaderModule, error) {
	words, err := spirvWords(code)
	if err != nil {
		return nil, err
	}

	var module vk.ShaderModule
	err = resultError(vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}, nil, &module))
	if err != nil {
		return nil, err
	}

	return &ShaderModule{Device: d, VKShaderModule: module}, nil
}

func (s *ShaderModule) VKPipelineShaderStageCreateInfo(stage vk.ShaderStageFlagBits, entryPoint string) vk.PipelineShaderStageCreateInfo {
	var shaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{}
	shaderStageCreateInfo.SType = vk.StructureTypePipelineShaderStageCreateInfo
	shaderStageCreateInfo.Stage = stage
	shaderStageCreateInfo.Module = s.VKShaderModule
	shaderStageCreateInfo.PName = safeString(entryPoint)
	return shaderStageCreateInfo
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.Device.VKDevice, s.VKShaderModule, nil)
}

// spirvWords splits SPIR-V code into words, accepting either byte order
// as identified by the magic number.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) < 4 || len(code)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidPipeline, "SPIR-V length %d is not a positive multiple of 4", len(code))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(code) == spirvMagic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(code) == spirvMagic:
		order = binary.BigEndian
	default:
		return nil, errors.Wrap(ErrInvalidPipeline, "missing SPIR-V magic number")
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = order.Uint32(code[i*4:])
	}
	return words, nil
}
