package needle

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// FramesInFlight is how many frames the host may record ahead of the device.
const FramesInFlight = 2

// FrameSlot holds the synchronization for one frame in flight. InFlight is
// created signaled so the first wait on a slot returns immediately.
type FrameSlot struct {
	Index          int
	ImageAcquired  vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       vk.Fence
}

// ImageSlot holds everything built around one swapchain image.
type ImageSlot struct {
	Image       *Image
	View        *ImageView
	Depth       *BoundImage
	DepthView   *ImageView
	Framebuffer vk.Framebuffer

	// InFlight is the frame slot that last rendered to this image, nil
	// until the image is first acquired.
	InFlight *FrameSlot
}

// Swapchain is a native swapchain together with its render pass, per image
// attachments and per frame synchronization.
type Swapchain struct {
	Device       *Device
	VKSwapchain  vk.Swapchain
	VKRenderPass vk.RenderPass

	Format      vk.Format
	ColorSpace  vk.ColorSpace
	DepthFormat vk.Format
	PresentMode vk.PresentMode

	Images []ImageSlot
	Frames [FramesInFlight]FrameSlot

	extent      vk.Extent2D
	syncCreated bool
}

// CreateSwapchain builds a swapchain for the context's surface. windowExtent
// is only used when the surface leaves the extent to the swapchain. When
// previous is non-nil its handle is passed as the old swapchain; previous
// itself is left for the caller to destroy.
func CreateSwapchain(ctx *GraphicsContext, windowExtent vk.Extent2D, previous *Swapchain) (*Swapchain, error) {
	support, err := ctx.SurfaceSupport()
	if err != nil {
		return nil, err
	}

	surfaceFormat, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return nil, err
	}

	depthFormat, err := ctx.FindDepthFormat()
	if err != nil {
		return nil, errors.Wrap(err, "depth format")
	}

	s := &Swapchain{
		Device:      ctx.Device,
		Format:      surfaceFormat.Format,
		ColorSpace:  surfaceFormat.ColorSpace,
		DepthFormat: depthFormat,
		PresentMode: ChoosePresentMode(support.PresentModes),
		extent:      ChooseExtent(windowExtent, support.Capabilities),
	}

	imageCount := ChooseImageCount(support.Capabilities)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface.VKSurface,
		MinImageCount:    imageCount,
		ImageFormat:      s.Format,
		ImageColorSpace:  s.ColorSpace,
		ImageExtent:      s.extent,
		PresentMode:      s.PresentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}

	if previous != nil {
		createInfo.OldSwapchain = previous.VKSwapchain
	}

	families := ctx.QueueFamilies()
	if families.Shared() {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	} else {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(families.Graphics), uint32(families.Present)}
	}

	res := vk.CreateSwapchain(s.Device.VKDevice, &createInfo, nil, &s.VKSwapchain)
	if err := wrapResult(res, ErrImageCreation, "create swapchain"); err != nil {
		return nil, err
	}

	if err := s.build(ctx); err != nil {
		s.Destroy()
		return nil, err
	}

	ctx.Logger.Info("swapchain created",
		slog.Int("format", int(s.Format)),
		slog.Int("depth_format", int(s.DepthFormat)),
		slog.Int("present_mode", int(s.PresentMode)),
		slog.Int("width", int(s.extent.Width)),
		slog.Int("height", int(s.extent.Height)),
		slog.Int("images", len(s.Images)))

	return s, nil
}

func (s *Swapchain) build(ctx *GraphicsContext) error {
	images, err := s.getImages()
	if err != nil {
		return err
	}

	s.Images = make([]ImageSlot, len(images))

	depthInfo := VKImageCreateInfo(s.extent, s.DepthFormat, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit))

	for i, image := range images {
		slot := &s.Images[i]
		slot.Image = image

		if slot.View, err = image.CreateImageView(); err != nil {
			return errors.Wrapf(ErrImageCreation, "color view %d: %v", i, err)
		}
		if slot.Depth, err = ctx.CreateImageWithBackingMemory(depthInfo,
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)); err != nil {
			return errors.Wrapf(err, "depth image %d", i)
		}
		if slot.DepthView, err = slot.Depth.CreateImageViewWithAspectMask(depthAspect(s.DepthFormat)); err != nil {
			return errors.Wrapf(ErrImageCreation, "depth view %d: %v", i, err)
		}
	}

	if s.VKRenderPass, err = s.Device.CreateRenderPass(s.Format, s.DepthFormat); err != nil {
		return errors.Wrap(err, "create render pass")
	}

	for i := range s.Images {
		slot := &s.Images[i]
		if slot.Framebuffer, err = s.Device.CreateFramebuffer(s.VKRenderPass, s.extent, slot.View, slot.DepthView); err != nil {
			return errors.Wrapf(err, "framebuffer %d", i)
		}
	}

	if s.Frames, err = createFrameSlots(s.Device); err != nil {
		return err
	}
	s.syncCreated = true

	return nil
}

func (s *Swapchain) getImages() ([]*Image, error) {
	var imageCount uint32
	err := wrapResult(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil), ErrImageCreation, "swapchain image count")
	if err != nil {
		return nil, err
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = wrapResult(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages), ErrImageCreation, "swapchain images")
	if err != nil {
		return nil, err
	}

	ret := make([]*Image, imageCount)
	for i := range ret {
		ret[i] = &Image{Device: s.Device, VKImage: swapchainImages[i], VKFormat: s.Format}
	}

	return ret, nil
}

// depthAspect returns the view aspects of a depth attachment format.
// Combined formats need the stencil aspect too.
func depthAspect(format vk.Format) vk.ImageAspectFlags {
	switch format {
	case vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD16UnormS8Uint:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
}

type syncAllocator interface {
	VKCreateSemaphore() (vk.Semaphore, error)
	VKDestroySemaphore(s vk.Semaphore)
	VKCreateFence(signaled bool) (vk.Fence, error)
	VKDestroyFence(f vk.Fence)
}

// createFrameSlots creates the semaphores and signaled fences for every
// frame slot. On failure whatever was created is destroyed again.
func createFrameSlots(a syncAllocator) (frames [FramesInFlight]FrameSlot, err error) {
	var (
		semaphores []vk.Semaphore
		fences     []vk.Fence
	)
	defer func() {
		if err == nil {
			return
		}
		for _, sem := range semaphores {
			a.VKDestroySemaphore(sem)
		}
		for _, f := range fences {
			a.VKDestroyFence(f)
		}
	}()

	for i := range frames {
		frames[i].Index = i

		if frames[i].ImageAcquired, err = a.VKCreateSemaphore(); err != nil {
			return frames, errors.Wrapf(ErrAllocation, "image acquired semaphore %d: %v", i, err)
		}
		semaphores = append(semaphores, frames[i].ImageAcquired)

		if frames[i].RenderFinished, err = a.VKCreateSemaphore(); err != nil {
			return frames, errors.Wrapf(ErrAllocation, "render finished semaphore %d: %v", i, err)
		}
		semaphores = append(semaphores, frames[i].RenderFinished)

		if frames[i].InFlight, err = a.VKCreateFence(true); err != nil {
			return frames, errors.Wrapf(ErrAllocation, "in flight fence %d: %v", i, err)
		}
		fences = append(fences, frames[i].InFlight)
	}

	return frames, nil
}

func destroyFrameSlots(a syncAllocator, frames *[FramesInFlight]FrameSlot) {
	for i := range frames {
		a.VKDestroySemaphore(frames[i].ImageAcquired)
		a.VKDestroySemaphore(frames[i].RenderFinished)
		a.VKDestroyFence(frames[i].InFlight)
	}
}

// CompareFormats reports whether other renders to the same color and depth
// formats, so pipelines built for s stay valid for other.
func (s *Swapchain) CompareFormats(other *Swapchain) bool {
	return other != nil && s.Format == other.Format && s.DepthFormat == other.DepthFormat
}

// ImageCount returns the number of swapchain images
func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// Framebuffer returns the framebuffer of image i
func (s *Swapchain) Framebuffer(i int) vk.Framebuffer {
	return s.Images[i].Framebuffer
}

func (s *Swapchain) RenderPass() vk.RenderPass {
	return s.VKRenderPass
}

func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

// AspectRatio is width over height, zero for a degenerate extent.
func (s *Swapchain) AspectRatio() float32 {
	if s.extent.Height == 0 {
		return 0
	}
	return float32(s.extent.Width) / float32(s.extent.Height)
}

// Destroy releases the swapchain. The device must be idle with respect to
// every frame rendered through it. Partially built swapchains are handled.
func (s *Swapchain) Destroy() {
	for i := range s.Images {
		if v := s.Images[i].View; v != nil {
			v.Destroy()
		}
	}

	if s.VKSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
		s.VKSwapchain = vk.NullSwapchain
	}

	for i := range s.Images {
		slot := &s.Images[i]
		if slot.DepthView != nil {
			slot.DepthView.Destroy()
		}
		if slot.Depth != nil {
			slot.Depth.Destroy()
		}
	}

	for i := range s.Images {
		if fb := s.Images[i].Framebuffer; fb != vk.NullFramebuffer {
			vk.DestroyFramebuffer(s.Device.VKDevice, fb, nil)
		}
	}
	s.Images = nil

	if s.VKRenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(s.Device.VKDevice, s.VKRenderPass, nil)
		s.VKRenderPass = vk.NullRenderPass
	}

	if s.syncCreated {
		destroyFrameSlots(s.Device, &s.Frames)
		s.syncCreated = false
	}
}
