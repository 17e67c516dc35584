package needle

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestGraphicsPipelineConfigDefaults(t *testing.T) {
	var d *Device
	g := d.CreateGraphicsPipelineConfig()

	_, err := g.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 800, Height: 600})
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	g.AddShaderStage(&ShaderModule{}, "main", vk.ShaderStageVertexBit)
	g.AddShaderStage(&ShaderModule{}, "main", vk.ShaderStageFragmentBit)

	_, err = g.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 800, Height: 600})
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	g.SetPipelineLayout(&PipelineLayout{})
	info, err := g.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	assert.Equal(t, uint32(2), info.StageCount)
	assert.Equal(t, "main\x00", info.PStages[0].PName)
	assert.Equal(t, vk.CullModeFlags(vk.CullModeNone), info.PRasterizationState.CullMode)
	assert.Equal(t, vk.FrontFaceClockwise, info.PRasterizationState.FrontFace)
	assert.Equal(t, float32(800), info.PViewportState.PViewports[0].Width)
	assert.Equal(t, []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}, info.PDynamicState.PDynamicStates)
	assert.Equal(t, vk.Bool32(vk.True), info.PDepthStencilState.DepthTestEnable)
	require.Len(t, info.PColorBlendState.PAttachments, 1)
	assert.Equal(t, vk.Bool32(vk.False), info.PColorBlendState.PAttachments[0].BlendEnable)
}

func TestGraphicsPipelineConfigAlphaBlending(t *testing.T) {
	var d *Device
	g := d.CreateGraphicsPipelineConfig().EnableAlphaBlending()
	g.AddShaderStage(&ShaderModule{}, "main", vk.ShaderStageVertexBit)
	g.SetPipelineLayout(&PipelineLayout{})
	g.DepthWriteEnable = false

	info, err := g.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 1, Height: 1})
	require.NoError(t, err)

	blend := info.PColorBlendState.PAttachments[0]
	assert.Equal(t, vk.Bool32(vk.True), blend.BlendEnable)
	assert.Equal(t, vk.BlendFactorSrcAlpha, blend.SrcColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOneMinusSrcAlpha, blend.DstColorBlendFactor)
	assert.Equal(t, vk.Bool32(vk.False), info.PDepthStencilState.DepthWriteEnable)
}

func TestSpirvWords(t *testing.T) {
	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code, spirvMagic)
	binary.LittleEndian.PutUint32(code[4:], 0x00010300)

	words, err := spirvWords(code)
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010300}, words)

	binary.BigEndian.PutUint32(code, spirvMagic)
	binary.BigEndian.PutUint32(code[4:], 0x00010300)
	words, err = spirvWords(code)
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010300}, words)

	_, err = spirvWords(code[:6])
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	_, err = spirvWords([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	_, err = spirvWords(nil)
	assert.ErrorIs(t, err, ErrInvalidPipeline)
}
