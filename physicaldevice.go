package needle

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type VKPresentModes []vk.PresentMode

func (v VKPresentModes) Filter(f vk.PresentMode) VKPresentModes {
	ret := make(VKPresentModes, 0)
	for _, s := range v {
		if f == s {
			ret = append(ret, s)
		}
	}
	return ret
}

func (v VKPresentModes) Contains(f vk.PresentMode) bool {
	return len(v.Filter(f)) > 0
}

type VKSurfaceFormats []vk.SurfaceFormat

func (v VKSurfaceFormats) Filter(f func(f vk.SurfaceFormat) bool) VKSurfaceFormats {
	ret := make(VKSurfaceFormats, 0)
	for _, s := range v {
		if f(s) {
			ret = append(ret, s)
		}
	}
	return ret
}

// Deref copies the driver-owned values into every element.
func (v VKSurfaceFormats) Deref() {
	for i := range v {
		v[i].Deref()
	}
}

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) (VKPresentModes, error) {
	var count uint32
	err := wrapResult(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil), ErrSurfaceQuery, "surface present modes")
	if err != nil {
		return nil, err
	}

	f := make([]vk.PresentMode, count)
	err = wrapResult(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, f), ErrSurfaceQuery, "surface present modes")
	if err != nil {
		return nil, err
	}

	return f[:count], nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) (VKSurfaceFormats, error) {
	var count uint32
	err := wrapResult(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil), ErrSurfaceQuery, "surface formats")
	if err != nil {
		return nil, err
	}

	f := make(VKSurfaceFormats, count)
	err = wrapResult(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, f), ErrSurfaceQuery, "surface formats")
	if err != nil {
		return nil, err
	}
	f = f[:count]
	f.Deref()

	return f, nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := wrapResult(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps), ErrSurfaceQuery, "surface capabilities")
	if err != nil {
		return nil, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return &caps, nil
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	var queueFamilyCount uint32

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, nil)

	if queueFamilyCount == 0 {
		return nil
	}

	queues := make([]vk.QueueFamilyProperties, queueFamilyCount)

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, queues)

	ret := make(QueueFamilySlice, queueFamilyCount)
	for i, queue := range queues {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
		ret[i].VKQueueFamilyProperties.Deref()
	}

	return ret
}

type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
	EnabledFeatures   vk.PhysicalDeviceFeatures
}

// CreateLogicalDeviceWithOptions creates a device with one queue for each
// distinct family index in indices.
func (p *PhysicalDevice) CreateLogicalDeviceWithOptions(indices []int, options *CreateDeviceOptions) (*Device, error) {
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, index := range indices {
		if seen[index] {
			continue
		}
		seen[index] = true
		queueCreateInfos = append(queueCreateInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(index),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),
		PQueueCreateInfos:    queueCreateInfos,
	}

	if options != nil {
		deviceCreateInfo.PEnabledFeatures = []vk.PhysicalDeviceFeatures{options.EnabledFeatures}
		if options.EnabledExtensions != nil {
			extensions := safeStrings(append([]string(nil), options.EnabledExtensions...))
			deviceCreateInfo.EnabledExtensionCount = uint32(len(extensions))
			deviceCreateInfo.PpEnabledExtensionNames = extensions
		}
		if options.EnabledLayers != nil {
			layers := safeStrings(append([]string(nil), options.EnabledLayers...))
			deviceCreateInfo.EnabledLayerCount = uint32(len(layers))
			deviceCreateInfo.PpEnabledLayerNames = layers
		}
	}

	var ldevice vk.Device

	err := wrapResult(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice), ErrAllocation, "create device")
	if err != nil {
		return nil, err
	}

	return &Device{PhysicalDevice: p, VKDevice: ldevice}, nil
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var deviceFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &deviceFeatures)
	deviceFeatures.Deref()
	return deviceFeatures
}

// SupportsAnisotropy reports whether anisotropic sampling is available
func (p *PhysicalDevice) SupportsAnisotropy() bool {
	return p.VKPhysicalDeviceFeatures().SamplerAnisotropy == vk.True
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	memoryProperties.Deref()
	return memoryProperties
}

// MemoryTypes returns the property flags of every memory type, indexed by
// memory type index.
func (p *PhysicalDevice) MemoryTypes() []vk.MemoryPropertyFlags {
	mp := p.VKPhysicalDeviceMemoryProperties()

	ret := make([]vk.MemoryPropertyFlags, 0, mp.MemoryTypeCount)
	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		ret = append(ret, mt.PropertyFlags)
	}
	return ret
}

func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	index, ok := findMemoryTypeIndex(p.MemoryTypes(), memoryTypeBits, properties)
	if !ok {
		return 0, errors.Wrapf(ErrAllocation, "no memory type for bits %#x with properties %#x", memoryTypeBits, properties)
	}
	return index, nil
}

// FormatProperties returns the tiling and buffer features of format
func (p *PhysicalDevice) FormatProperties(format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(p.VKPhysicalDevice, format, &props)
	props.Deref()
	return props
}

func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	err := resultError(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)

	err = resultError(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, e := range ext[:count] {
		e.Deref()
		names = append(names, vk.ToString(e.ExtensionName[:]))
	}
	return names, nil
}

// SupportsExtensions reports whether every named device extension is available
func (p *PhysicalDevice) SupportsExtensions(required []string) (bool, error) {
	names, err := p.SupportedExtensions()
	if err != nil {
		return false, err
	}
	return len(missing(names, required)) == 0, nil
}
