package needle

import (
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// frameDriver is the device side of the frame loop. GraphicsContext is the
// only production implementation.
type frameDriver interface {
	waitForFrame(slot *FrameSlot, timeout time.Duration) error
	resetFrame(slot *FrameSlot) error
	acquireNextImage(sc *Swapchain, slot *FrameSlot, timeout time.Duration) (uint32, error)
	recordCommands(cmd *CommandBuffer, frame *Frame, record RecordFunc) error
	submit(cmd *CommandBuffer, slot *FrameSlot) error
	present(sc *Swapchain, slot *FrameSlot, imageIndex uint32) error
	waitIdle() error

	createSwapchain(extent vk.Extent2D, previous *Swapchain) (*Swapchain, error)
	destroySwapchain(sc *Swapchain)

	allocateCommandBuffers(count int) ([]*CommandBuffer, error)
	freeCommandBuffers(buffers []*CommandBuffer)
}

var _ frameDriver = (*GraphicsContext)(nil)

func (c *GraphicsContext) waitForFrame(slot *FrameSlot, timeout time.Duration) error {
	return c.Device.WaitForFence(slot.InFlight, timeout)
}

func (c *GraphicsContext) resetFrame(slot *FrameSlot) error {
	return c.Device.ResetFence(slot.InFlight)
}

// acquireNextImage returns the image index together with ErrSuboptimal when
// the driver reports a suboptimal surface.
func (c *GraphicsContext) acquireNextImage(sc *Swapchain, slot *FrameSlot, timeout time.Duration) (uint32, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(c.Device.VKDevice, sc.VKSwapchain, timeoutNanos(timeout),
		slot.ImageAcquired, vk.NullFence, &imageIndex)
	return imageIndex, resultError(res)
}

func (c *GraphicsContext) recordCommands(cmd *CommandBuffer, frame *Frame, record RecordFunc) error {
	if err := cmd.Reset(); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	if err := cmd.Begin(); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	if err := record(cmd, frame); err != nil {
		return err
	}
	return errors.Wrap(cmd.End(), "end command buffer")
}

func (c *GraphicsContext) submit(cmd *CommandBuffer, slot *FrameSlot) error {
	return errors.Wrap(c.GraphicsQueue.SubmitFrame(cmd, slot), "submit")
}

func (c *GraphicsContext) present(sc *Swapchain, slot *FrameSlot, imageIndex uint32) error {
	return c.PresentQueue.Present(sc.VKSwapchain, imageIndex, slot)
}

func (c *GraphicsContext) waitIdle() error {
	return errors.Wrap(c.Device.WaitIdle(), "wait for device idle")
}

func (c *GraphicsContext) createSwapchain(extent vk.Extent2D, previous *Swapchain) (*Swapchain, error) {
	return CreateSwapchain(c, extent, previous)
}

func (c *GraphicsContext) destroySwapchain(sc *Swapchain) {
	sc.Destroy()
}

func (c *GraphicsContext) allocateCommandBuffers(count int) ([]*CommandBuffer, error) {
	return c.CommandPool.AllocateBuffers(count)
}

func (c *GraphicsContext) freeCommandBuffers(buffers []*CommandBuffer) {
	c.CommandPool.FreeBuffers(buffers)
}
