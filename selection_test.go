package needle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		want     uint32
	}{
		{"unbounded", 2, 0, 3},
		{"room for one more", 2, 3, 3},
		{"capped at max", 3, 3, 3},
		{"single buffered minimum", 1, 8, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.want, ChooseImageCount(caps))
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	srgb := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	f, err := ChooseSurfaceFormat([]vk.SurfaceFormat{unorm, srgb})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, f.Format)
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, f.ColorSpace)

	f, err = ChooseSurfaceFormat([]vk.SurfaceFormat{unorm})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f.Format)

	// right format, wrong color space
	f, err = ChooseSurfaceFormat([]vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceExtendedSrgbLinear},
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, f.Format)

	_, err = ChooseSurfaceFormat(nil)
	assert.ErrorIs(t, err, ErrNoSupportedFormat)
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	bounds := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}

	e := ChooseExtent(vk.Extent2D{Width: 800, Height: 600}, bounds)
	assert.Equal(t, uint32(800), e.Width)
	assert.Equal(t, uint32(600), e.Height)

	e = ChooseExtent(vk.Extent2D{Width: 4000, Height: 10}, bounds)
	assert.Equal(t, uint32(1920), e.Width)
	assert.Equal(t, uint32(100), e.Height)

	fixed := vk.SurfaceCapabilities{CurrentExtent: vk.Extent2D{Width: 1024, Height: 768}}
	e = ChooseExtent(vk.Extent2D{Width: 800, Height: 600}, fixed)
	assert.Equal(t, uint32(1024), e.Width)
	assert.Equal(t, uint32(768), e.Height)
}

func TestSwapchainChoicesForTypicalSurface(t *testing.T) {
	caps := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	f, err := ChooseSurfaceFormat(formats)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), ChooseImageCount(caps))
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, f.Format)
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo}))
}

func TestFindSupportedFormat(t *testing.T) {
	depth := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	props := map[vk.Format]vk.FormatProperties{
		vk.FormatD32Sfloat:       {LinearTilingFeatures: depth},
		vk.FormatD32SfloatS8Uint: {OptimalTilingFeatures: depth},
		vk.FormatD24UnormS8Uint:  {OptimalTilingFeatures: depth, LinearTilingFeatures: depth},
	}
	lookup := func(f vk.Format) vk.FormatProperties { return props[f] }

	f, err := findSupportedFormat(DepthFormatCandidates, vk.ImageTilingOptimal, depth, lookup)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32SfloatS8Uint, f)

	f, err = findSupportedFormat(DepthFormatCandidates, vk.ImageTilingLinear, depth, lookup)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32Sfloat, f)

	// drm format modifier tiling
	_, err = findSupportedFormat(DepthFormatCandidates, vk.ImageTiling(1000158000), depth, lookup)
	assert.ErrorIs(t, err, ErrNoSupportedFormat)

	_, err = findSupportedFormat(DepthFormatCandidates, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit), lookup)
	assert.ErrorIs(t, err, ErrNoSupportedFormat)
}

func TestFindMemoryTypeIndex(t *testing.T) {
	local := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	visible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	types := []vk.MemoryPropertyFlags{visible, local, local | visible}

	i, ok := findMemoryTypeIndex(types, 0b111, local)
	require.True(t, ok)
	assert.Equal(t, uint32(1), i)

	// type 1 excluded by the requirement mask
	i, ok = findMemoryTypeIndex(types, 0b101, local)
	require.True(t, ok)
	assert.Equal(t, uint32(2), i)

	_, ok = findMemoryTypeIndex(types, 0b001, local)
	assert.False(t, ok)
}

func TestSuitability(t *testing.T) {
	s := Suitability{
		QueueFamilies:       QueueFamilyIndices{Graphics: 0, Present: 1},
		ExtensionsSupported: true,
		SwapchainAdequate:   true,
		SamplerAnisotropy:   true,
	}
	assert.True(t, s.Suitable())
	assert.Empty(t, s.Reason())

	s.SamplerAnisotropy = false
	assert.False(t, s.Suitable())
	assert.Equal(t, "no anisotropic sampling", s.Reason())

	s.QueueFamilies.Present = NoQueueFamily
	assert.Equal(t, "queue families incomplete", s.Reason())
}

func family(index int, flags vk.QueueFlagBits, count uint32) *QueueFamily {
	return &QueueFamily{
		Index: index,
		VKQueueFamilyProperties: vk.QueueFamilyProperties{
			QueueFlags: vk.QueueFlags(flags),
			QueueCount: count,
		},
	}
}

func TestSelectQueueFamilies(t *testing.T) {
	presentOn := func(indices ...int) func(*QueueFamily) bool {
		return func(q *QueueFamily) bool {
			for _, i := range indices {
				if q.Index == i {
					return true
				}
			}
			return false
		}
	}

	families := QueueFamilySlice{
		family(0, vk.QueueComputeBit, 1),
		family(1, vk.QueueGraphicsBit, 1),
		family(2, vk.QueueTransferBit, 1),
		family(3, vk.QueueGraphicsBit|vk.QueueComputeBit, 1),
	}

	t.Run("prefers a family doing both", func(t *testing.T) {
		q := SelectQueueFamilies(families, presentOn(2, 3))
		assert.Equal(t, QueueFamilyIndices{Graphics: 3, Present: 3}, q)
		assert.True(t, q.Shared())
		assert.Equal(t, []int{3}, q.Unique())
	})

	t.Run("separate families", func(t *testing.T) {
		q := SelectQueueFamilies(families, presentOn(2))
		assert.Equal(t, QueueFamilyIndices{Graphics: 1, Present: 2}, q)
		assert.True(t, q.IsComplete())
		assert.False(t, q.Shared())
		assert.Equal(t, []int{1, 2}, q.Unique())
	})

	t.Run("no presentation", func(t *testing.T) {
		q := SelectQueueFamilies(families, presentOn())
		assert.Equal(t, 1, q.Graphics)
		assert.Equal(t, NoQueueFamily, q.Present)
		assert.False(t, q.IsComplete())
	})

	t.Run("families without queues are ignored", func(t *testing.T) {
		empty := QueueFamilySlice{family(0, vk.QueueGraphicsBit, 0), family(1, vk.QueueGraphicsBit, 2)}
		q := SelectQueueFamilies(empty, presentOn(0, 1))
		assert.Equal(t, QueueFamilyIndices{Graphics: 1, Present: 1}, q)
	})
}

func TestQueueFamilyFilterGraphics(t *testing.T) {
	families := QueueFamilySlice{
		family(0, vk.QueueComputeBit, 1),
		family(1, vk.QueueGraphicsBit, 1),
		family(2, vk.QueueGraphicsBit|vk.QueueTransferBit, 0),
	}

	graphics := families.FilterGraphics()
	require.Len(t, graphics, 2)
	assert.Equal(t, 1, graphics[0].Index)
	assert.Equal(t, 2, graphics[1].Index)

	// family 2 has no queues, so it is never selected even though it presents
	q := SelectQueueFamilies(families, func(q *QueueFamily) bool { return q.Index != 1 })
	assert.Equal(t, QueueFamilyIndices{Graphics: 1, Present: 0}, q)
}

func TestMissingExtensions(t *testing.T) {
	supported := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}

	assert.Empty(t, missing(supported, []string{"VK_KHR_surface"}))
	assert.Equal(t, []string{"VK_EXT_debug_report"},
		missing(supported, []string{"VK_KHR_surface", "VK_EXT_debug_report"}))
}

func TestSelectionError(t *testing.T) {
	noFamilies := Suitability{
		QueueFamilies:       QueueFamilyIndices{Graphics: 0, Present: NoQueueFamily},
		ExtensionsSupported: true,
		SwapchainAdequate:   true,
		SamplerAnisotropy:   true,
	}
	noAnisotropy := Suitability{
		QueueFamilies:       QueueFamilyIndices{Graphics: 0, Present: 0},
		ExtensionsSupported: true,
		SwapchainAdequate:   true,
	}

	err := selectionError([]Suitability{noFamilies, noFamilies}, 2)
	assert.ErrorIs(t, err, ErrQueueFamilyIncomplete)
	assert.True(t, IsFatal(err))

	assert.ErrorIs(t, selectionError([]Suitability{noFamilies, noAnisotropy}, 2), ErrNoSuitableAccelerator)

	// one accelerator failed its queries, so families were not the only reason
	assert.ErrorIs(t, selectionError([]Suitability{noFamilies}, 2), ErrNoSuitableAccelerator)
}
