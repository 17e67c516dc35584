package needle

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PreferredSurfaceFormat is picked whenever the surface offers it.
var PreferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatR8g8b8a8Srgb,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// DepthFormatCandidates lists depth formats in order of preference.
var DepthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// ChooseSurfaceFormat returns PreferredSurfaceFormat when present, otherwise
// the first supported format.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, errors.Wrap(ErrNoSupportedFormat, "surface offers no formats")
	}
	for _, f := range formats {
		if f.Format == PreferredSurfaceFormat.Format && f.ColorSpace == PreferredSurfaceFormat.ColorSpace {
			return vk.SurfaceFormat{Format: f.Format, ColorSpace: f.ColorSpace}, nil
		}
	}
	return vk.SurfaceFormat{Format: formats[0].Format, ColorSpace: formats[0].ColorSpace}, nil
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// implementation supports.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	if VKPresentModes(modes).Contains(vk.PresentModeMailbox) {
		return vk.PresentModeMailbox
	}
	return vk.PresentModeFifo
}

// ChooseExtent returns the surface's fixed extent, or the window extent
// clamped into the surface bounds when the surface lets the swapchain decide.
func ChooseExtent(window vk.Extent2D, caps vk.SurfaceCapabilities) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return vk.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height}
	}
	return vk.Extent2D{
		Width:  clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, capped by the
// maximum. A maximum of zero means unbounded.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi uint32) uint32 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// findSupportedFormat scans candidates in order and returns the first whose
// features for tiling include every bit in features.
func findSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags,
	properties func(vk.Format) vk.FormatProperties) (vk.Format, error) {

	for _, format := range candidates {
		props := properties(format)

		var supported vk.FormatFeatureFlags
		switch tiling {
		case vk.ImageTilingLinear:
			supported = props.LinearTilingFeatures
		case vk.ImageTilingOptimal:
			supported = props.OptimalTilingFeatures
		default:
			continue
		}
		if supported&features == features {
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.Wrapf(ErrNoSupportedFormat, "none of %d candidates", len(candidates))
}

// findMemoryTypeIndex returns the first memory type allowed by typeBits whose
// property flags include properties.
func findMemoryTypeIndex(types []vk.MemoryPropertyFlags, typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, bool) {
	for i, flags := range types {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint(i)) != 0 && flags&properties == properties {
			return uint32(i), true
		}
	}
	return 0, false
}

// Suitability collects the checks an accelerator must pass to be selected.
type Suitability struct {
	QueueFamilies       QueueFamilyIndices
	ExtensionsSupported bool
	SwapchainAdequate   bool
	SamplerAnisotropy   bool
}

// Suitable reports whether every check passed.
func (s Suitability) Suitable() bool {
	return s.QueueFamilies.IsComplete() &&
		s.ExtensionsSupported &&
		s.SwapchainAdequate &&
		s.SamplerAnisotropy
}

// Reason names the first failed check, for logging.
func (s Suitability) Reason() string {
	switch {
	case !s.QueueFamilies.IsComplete():
		return "queue families incomplete"
	case !s.ExtensionsSupported:
		return "missing device extensions"
	case !s.SwapchainAdequate:
		return "surface offers no formats or present modes"
	case !s.SamplerAnisotropy:
		return "no anisotropic sampling"
	}
	return ""
}

// selectionError explains why none of total accelerators qualified. When
// every accelerator passed all checks except queue family selection, the
// failure is reported as ErrQueueFamilyIncomplete.
func selectionError(rejected []Suitability, total int) error {
	if total > 0 && len(rejected) == total {
		familiesOnly := true
		for _, s := range rejected {
			if s.QueueFamilies.IsComplete() || !s.ExtensionsSupported || !s.SwapchainAdequate || !s.SamplerAnisotropy {
				familiesOnly = false
				break
			}
		}
		if familiesOnly {
			return errors.Wrapf(ErrQueueFamilyIncomplete, "no graphics and present families on %d accelerators", total)
		}
	}
	return errors.Wrapf(ErrNoSuitableAccelerator, "none of %d accelerators qualify", total)
}
