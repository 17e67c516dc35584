package needle

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// GraphicsContext owns the instance, surface, selected accelerator, logical
// device, queues and the command pool frames record into.
type GraphicsContext struct {
	Instance       *Instance
	Debug          *DebugReporter
	Surface        *Surface
	PhysicalDevice *PhysicalDevice
	Device         *Device
	GraphicsQueue  *Queue
	PresentQueue   *Queue
	CommandPool    *CommandPool
	PipelineCache  *PipelineCache

	Logger *slog.Logger

	queueFamilies QueueFamilyIndices
	extensions    []string
}

// NewGraphicsContext brings up Vulkan for window: instance, optional
// validation, surface, accelerator and device selection, queues and the
// command pool. On failure everything created so far is released.
func NewGraphicsContext(window Window, app *App, opts ...ContextOption) (*GraphicsContext, error) {
	o := newContextOptions(opts)

	c := &GraphicsContext{Logger: o.logger, extensions: o.deviceExtensions}

	for _, ext := range window.RequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}
	if o.validation {
		if err := app.EnableValidation(); err != nil {
			return nil, err
		}
	}

	missingExtensions, err := app.MissingExtensions()
	if err != nil {
		return nil, errors.Wrapf(ErrInstanceCreation, "query instance extensions: %v", err)
	}
	if len(missingExtensions) > 0 {
		return nil, errors.Wrapf(ErrInstanceCreation, "missing instance extensions %v", missingExtensions)
	}

	if c.Instance, err = app.CreateInstance(); err != nil {
		return nil, err
	}

	if o.validation {
		if c.Debug, err = NewDebugReporter(c.Instance, c.Logger); err != nil {
			c.Destroy()
			return nil, errors.Wrap(err, "create debug report callback")
		}
	}

	if c.Surface, err = NewSurface(c.Instance, window); err != nil {
		c.Destroy()
		return nil, err
	}

	if err = c.selectPhysicalDevice(); err != nil {
		c.Destroy()
		return nil, err
	}

	if err = c.createDevice(); err != nil {
		c.Destroy()
		return nil, err
	}

	return c, nil
}

func (c *GraphicsContext) selectPhysicalDevice() error {
	devices, err := c.Instance.PhysicalDevices()
	if err != nil {
		return errors.Wrapf(ErrNoSuitableAccelerator, "enumerate: %v", err)
	}
	if len(devices) == 0 {
		return errors.Wrap(ErrNoSuitableAccelerator, "no accelerators found")
	}

	var rejected []Suitability
	for _, pd := range devices {
		s, err := c.evaluate(pd)
		if err != nil {
			c.Logger.Warn("accelerator query failed", slog.String("name", pd.DeviceName), slog.Any("err", err))
			continue
		}
		if !s.Suitable() {
			c.Logger.Debug("accelerator rejected", slog.String("name", pd.DeviceName), slog.String("reason", s.Reason()))
			rejected = append(rejected, s)
			continue
		}
		c.PhysicalDevice = pd
		c.queueFamilies = s.QueueFamilies
		c.Logger.Info("selected accelerator",
			slog.String("name", pd.DeviceName),
			slog.Int("graphics_family", s.QueueFamilies.Graphics),
			slog.Int("present_family", s.QueueFamilies.Present))
		return nil
	}

	return selectionError(rejected, len(devices))
}

func (c *GraphicsContext) evaluate(pd *PhysicalDevice) (Suitability, error) {
	var s Suitability

	s.QueueFamilies = SelectQueueFamilies(pd.QueueFamilies(), func(q *QueueFamily) bool {
		ok, err := c.Surface.SupportsPresent(pd, q.Index)
		return err == nil && ok
	})

	ok, err := pd.SupportsExtensions(c.extensions)
	if err != nil {
		return s, err
	}
	s.ExtensionsSupported = ok

	if ok {
		support, err := c.Surface.QuerySwapchainSupport(pd)
		if err != nil {
			return s, err
		}
		s.SwapchainAdequate = support.Adequate()
	}

	s.SamplerAnisotropy = pd.SupportsAnisotropy()

	return s, nil
}

func (c *GraphicsContext) createDevice() error {
	if !c.queueFamilies.IsComplete() {
		return errors.Wrapf(ErrQueueFamilyIncomplete, "%s", c.queueFamilies)
	}

	options := &CreateDeviceOptions{EnabledExtensions: c.extensions}
	options.EnabledFeatures.SamplerAnisotropy = vk.True

	var err error
	c.Device, err = c.PhysicalDevice.CreateLogicalDeviceWithOptions(c.queueFamilies.Unique(), options)
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	c.GraphicsQueue = c.Device.GetQueue(c.queueFamilies.Graphics)
	c.PresentQueue = c.Device.GetQueue(c.queueFamilies.Present)

	if c.CommandPool, err = c.Device.CreateCommandPool(c.queueFamilies.Graphics); err != nil {
		return errors.Wrap(err, "create command pool")
	}

	if c.PipelineCache, err = c.Device.CreatePipelineCache(); err != nil {
		return errors.Wrap(err, "create pipeline cache")
	}

	return nil
}

// QueueFamilies returns the graphics and present families in use.
func (c *GraphicsContext) QueueFamilies() QueueFamilyIndices {
	return c.queueFamilies
}

// SurfaceSupport re-queries the surface for the selected accelerator. The
// result changes as the window is resized.
func (c *GraphicsContext) SurfaceSupport() (*SwapchainSupportDetails, error) {
	return c.Surface.QuerySwapchainSupport(c.PhysicalDevice)
}

// FindSupportedFormat returns the first candidate whose features for tiling
// cover features.
func (c *GraphicsContext) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	return findSupportedFormat(candidates, tiling, features, c.PhysicalDevice.FormatProperties)
}

// FindDepthFormat picks the depth attachment format from DepthFormatCandidates.
func (c *GraphicsContext) FindDepthFormat() (vk.Format, error) {
	return c.FindSupportedFormat(DepthFormatCandidates, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
}

// CreateImageWithBackingMemory creates an image from info and binds it to a
// fresh allocation with the given memory properties.
func (c *GraphicsContext) CreateImageWithBackingMemory(info vk.ImageCreateInfo, props vk.MemoryPropertyFlags) (*BoundImage, error) {
	var image vk.Image
	res := vk.CreateImage(c.Device.VKDevice, &info, nil, &image)
	if err := wrapResult(res, ErrImageCreation, "create image"); err != nil {
		return nil, err
	}

	ret := &BoundImage{Image: Image{Device: c.Device, VKImage: image, VKFormat: info.Format}}

	req := ret.GetMemoryRequirements()
	mem, err := c.Device.Allocate(uint64(req.Size), req.MemoryTypeBits, props)
	if err != nil {
		ret.Image.Destroy()
		return nil, err
	}
	ret.DeviceMemory = mem

	res = vk.BindImageMemory(c.Device.VKDevice, image, mem.VKDeviceMemory, 0)
	if err := wrapResult(res, ErrAllocation, "bind image memory"); err != nil {
		ret.Destroy()
		return nil, err
	}

	return ret, nil
}

// Destroy releases the context. Every swapchain, pipeline and command buffer
// created from it must already be destroyed.
func (c *GraphicsContext) Destroy() {
	if c.PipelineCache != nil {
		c.PipelineCache.Destroy()
		c.PipelineCache = nil
	}
	if c.CommandPool != nil {
		c.CommandPool.Destroy()
		c.CommandPool = nil
	}
	if c.Device != nil {
		c.Device.Destroy()
		c.Device = nil
	}
	if c.Surface != nil {
		c.Surface.Destroy()
		c.Surface = nil
	}
	if c.Debug != nil {
		c.Debug.Destroy()
		c.Debug = nil
	}
	if c.Instance != nil {
		c.Instance.Destroy()
		c.Instance = nil
	}
}
