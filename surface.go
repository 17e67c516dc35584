package needle

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Surface is the platform drawable a swapchain presents to. It lives as long
// as the instance it was created from and must be destroyed before it.
type Surface struct {
	Instance  *Instance
	VKSurface vk.Surface
}

// SwapchainSupportDetails is what a surface supports on one accelerator.
type SwapchainSupportDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      VKSurfaceFormats
	PresentModes VKPresentModes
}

// Adequate reports whether a swapchain can be built at all: at least one
// format and one present mode must be offered.
func (s *SwapchainSupportDetails) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// NewSurface creates the presentation surface for window.
func NewSurface(instance *Instance, window Window) (*Surface, error) {
	surface, err := window.CreateSurface(instance.VKInstance)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	if surface == vk.NullSurface {
		return nil, errors.New("create window surface: window returned a null surface")
	}
	return &Surface{Instance: instance, VKSurface: surface}, nil
}

// SupportsPresent reports whether queue family index of pd can present to
// this surface.
func (s *Surface) SupportsPresent(pd *PhysicalDevice, index int) (bool, error) {
	var supported vk.Bool32
	res := vk.GetPhysicalDeviceSurfaceSupport(pd.VKPhysicalDevice, uint32(index), s.VKSurface, &supported)
	if err := wrapResult(res, ErrSurfaceQuery, "surface support"); err != nil {
		return false, err
	}
	return supported == vk.True, nil
}

// QuerySwapchainSupport returns the capabilities, formats and present modes
// pd offers for this surface. It has no side effects.
func (s *Surface) QuerySwapchainSupport(pd *PhysicalDevice) (*SwapchainSupportDetails, error) {
	caps, err := pd.GetSurfaceCapabilities(s.VKSurface)
	if err != nil {
		return nil, errors.Wrapf(ErrSurfaceQuery, "capabilities: %v", err)
	}
	formats, err := pd.GetSurfaceFormats(s.VKSurface)
	if err != nil {
		return nil, errors.Wrapf(ErrSurfaceQuery, "formats: %v", err)
	}
	modes, err := pd.GetSurfacePresentModes(s.VKSurface)
	if err != nil {
		return nil, errors.Wrapf(ErrSurfaceQuery, "present modes: %v", err)
	}
	return &SwapchainSupportDetails{
		Capabilities: *caps,
		Formats:      formats,
		PresentModes: modes,
	}, nil
}

// Destroy releases the surface
func (s *Surface) Destroy() {
	vk.DestroySurface(s.Instance.VKInstance, s.VKSurface, nil)
}
