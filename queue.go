package needle

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	FamilyIndex int
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return resultError(vk.QueueWaitIdle(q.VKQueue))
}

// SubmitFrame submits cmd for a frame slot. Execution waits for the slot's
// image-acquired semaphore before color attachment output, and signals the
// render-finished semaphore and the slot fence on completion.
func (q *Queue) SubmitFrame(cmd *CommandBuffer, slot *FrameSlot) error {
	submitInfo := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{slot.ImageAcquired},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd.VKCommandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderFinished},
	}}

	return resultError(vk.QueueSubmit(q.VKQueue, 1, submitInfo, slot.InFlight))
}

// Present queues imageIndex of swapchain for display once the slot's
// render-finished semaphore is signaled.
func (q *Queue) Present(swapchain vk.Swapchain, imageIndex uint32, slot *FrameSlot) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.RenderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{imageIndex},
	}

	return resultError(vk.QueuePresent(q.VKQueue, &presentInfo))
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %d}", q.Device.String(), q.FamilyIndex)
}
