package needle

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PipelineDescriptor describes a graphics pipeline for a given extent.
// GraphicsPipelineConfig is the stock implementation.
type PipelineDescriptor interface {
	VKGraphicsPipelineCreateInfo(extent vk.Extent2D) (vk.GraphicsPipelineCreateInfo, error)
}

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache

	err := wrapResult(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache), ErrAllocation, "create pipeline cache")
	if err != nil {
		return nil, err
	}

	return &PipelineCache{Device: d, VKPipelineCache: pipelineCache}, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

// Pipeline is a graphics pipeline bound to one render pass.
type Pipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
}

// Bind binds the pipeline for subsequent draws recorded into cmd
func (p *Pipeline) Bind(cmd *CommandBuffer) {
	vk.CmdBindPipeline(cmd.VKCommandBuffer, vk.PipelineBindPointGraphics, p.VKPipeline)
}

func (p *Pipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}

// CreatePipeline builds the pipeline desc describes for subpass 0 of
// renderPass. A nil cache creates the pipeline uncached. Pipelines stay
// valid across swapchain rebuilds as long as the formats do not change.
func (c *GraphicsContext) CreatePipeline(cache *PipelineCache, renderPass vk.RenderPass, extent vk.Extent2D, desc PipelineDescriptor) (*Pipeline, error) {
	if renderPass == vk.NullRenderPass {
		return nil, errors.Wrap(ErrInvalidPipeline, "no render pass")
	}

	info, err := desc.VKGraphicsPipelineCreateInfo(extent)
	if err != nil {
		return nil, err
	}
	info.RenderPass = renderPass

	var vkCache vk.PipelineCache
	if cache != nil {
		vkCache = cache.VKPipelineCache
	}

	pipelines := make([]vk.Pipeline, 1)

	err = resultError(vk.CreateGraphicsPipelines(c.Device.VKDevice, vkCache, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipelines))
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}

	return &Pipeline{Device: c.Device, VKPipeline: pipelines[0]}, nil
}
