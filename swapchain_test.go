package needle

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

type fakeSync struct {
	semaphores, fences     int
	failSemaphoreAt        int
	signaled               []bool
	freedSems, freedFences int
}

func (f *fakeSync) VKCreateSemaphore() (vk.Semaphore, error) {
	f.semaphores++
	if f.semaphores == f.failSemaphoreAt {
		return vk.NullSemaphore, errors.New("out of semaphores")
	}
	return vk.NullSemaphore, nil
}

func (f *fakeSync) VKDestroySemaphore(vk.Semaphore) { f.freedSems++ }

func (f *fakeSync) VKCreateFence(signaled bool) (vk.Fence, error) {
	f.fences++
	f.signaled = append(f.signaled, signaled)
	return vk.NullFence, nil
}

func (f *fakeSync) VKDestroyFence(vk.Fence) { f.freedFences++ }

func TestCreateFrameSlotsSignalsFences(t *testing.T) {
	s := &fakeSync{}

	frames, err := createFrameSlots(s)
	require.NoError(t, err)

	assert.Equal(t, 2*FramesInFlight, s.semaphores)
	assert.Equal(t, FramesInFlight, s.fences)
	for i, signaled := range s.signaled {
		assert.True(t, signaled, "fence %d must start signaled", i)
	}
	for i := range frames {
		assert.Equal(t, i, frames[i].Index)
	}

	destroyFrameSlots(s, &frames)
	assert.Equal(t, s.semaphores, s.freedSems)
	assert.Equal(t, s.fences, s.freedFences)
}

func TestCreateFrameSlotsCleansUpOnFailure(t *testing.T) {
	// fails creating the second slot's image acquired semaphore
	s := &fakeSync{failSemaphoreAt: 3}

	_, err := createFrameSlots(s)
	assert.ErrorIs(t, err, ErrAllocation)
	assert.Equal(t, 2, s.freedSems)
	assert.Equal(t, 1, s.freedFences)
}

func TestCompareFormats(t *testing.T) {
	a := &Swapchain{Format: vk.FormatR8g8b8a8Srgb, DepthFormat: vk.FormatD32Sfloat}

	assert.True(t, a.CompareFormats(&Swapchain{Format: vk.FormatR8g8b8a8Srgb, DepthFormat: vk.FormatD32Sfloat}))
	assert.False(t, a.CompareFormats(&Swapchain{Format: vk.FormatB8g8r8a8Srgb, DepthFormat: vk.FormatD32Sfloat}))
	assert.False(t, a.CompareFormats(&Swapchain{Format: vk.FormatR8g8b8a8Srgb, DepthFormat: vk.FormatD32SfloatS8Uint}))
	assert.False(t, a.CompareFormats(nil))
}

func TestSwapchainAccessors(t *testing.T) {
	s := &Swapchain{extent: vk.Extent2D{Width: 1600, Height: 900}, Images: make([]ImageSlot, 3)}
	assert.Equal(t, 3, s.ImageCount())
	assert.InDelta(t, 16.0/9.0, s.AspectRatio(), 1e-6)
	assert.Equal(t, uint32(1600), s.Extent().Width)

	assert.Zero(t, (&Swapchain{extent: vk.Extent2D{Width: 10}}).AspectRatio())
}

func TestDepthAspect(t *testing.T) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	both := vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)

	assert.Equal(t, depth, depthAspect(vk.FormatD32Sfloat))
	assert.Equal(t, both, depthAspect(vk.FormatD32SfloatS8Uint))
	assert.Equal(t, both, depthAspect(vk.FormatD24UnormS8Uint))
}

func TestRenderPassCreateInfo(t *testing.T) {
	info := VKRenderPassCreateInfo(vk.FormatR8g8b8a8Srgb, vk.FormatD32Sfloat)

	require.Len(t, info.PAttachments, 2)
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, info.PAttachments[0].Format)
	assert.Equal(t, vk.ImageLayoutPresentSrc, info.PAttachments[0].FinalLayout)
	assert.Equal(t, vk.FormatD32Sfloat, info.PAttachments[1].Format)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, info.PAttachments[1].FinalLayout)

	require.Len(t, info.PDependencies, 1)
	dep := info.PDependencies[0]
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	assert.Equal(t, uint32(vk.SubpassExternal), dep.SrcSubpass)
	assert.Equal(t, stages, dep.SrcStageMask)
	assert.Equal(t, stages, dep.DstStageMask)
	assert.Equal(t, vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessDepthStencilAttachmentWriteBit), dep.DstAccessMask)
}
