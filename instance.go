package needle

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ValidationLayer is the layer enabled when validation is requested.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

const debugReportExtension = "VK_EXT_debug_report"

// EngineName and EngineVersion are reported to the driver in the application info.
var (
	EngineName    = "needle-core"
	EngineVersion = Version{Major: 0, Minor: 1, Patch: 0}
)

// Version is used to specify versions of components
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation
func (v *Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// App is used to provide information about this specific application to Vulkan
type App struct {
	// Name the name of the application
	Name string
	// Version the version of the application
	Version Version
	// APIVersion the expected minimum version of the Vulkan API, values
	// outside 1.0 - 1.3 fall back to 1.0
	APIVersion Version

	// EnabledLayers the enabled layers
	EnabledLayers []string

	// EnabledExtensions the enabled extensions
	EnabledExtensions []string
}

// NewApp returns application info targeting Vulkan 1.3.
func NewApp(name string, version Version) *App {
	return &App{
		Name:       name,
		Version:    version,
		APIVersion: Version{Major: 1, Minor: 3},
	}
}

// SupportedLayers returns a list of supported layers for use by Vulkan
// this may crash if Vulkan has not been initialized previously
func SupportedLayers() ([]string, error) {
	var instanceLayerLen uint32
	err := resultError(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, nil))
	if err != nil {
		return nil, err
	}
	instanceLayer := make([]vk.LayerProperties, instanceLayerLen)
	err = resultError(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, instanceLayer))
	if err != nil {
		return nil, err
	}
	layerNames := make([]string, 0, len(instanceLayer))
	for _, layer := range instanceLayer {
		layer.Deref()
		layerNames = append(layerNames, vk.ToString(layer.LayerName[:]))
	}
	return layerNames, nil
}

// SupportedExtensions returns a list of supported instance extensions
func SupportedExtensions() ([]string, error) {
	var instanceExtLen uint32
	err := resultError(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, nil))
	if err != nil {
		return nil, err
	}
	instanceExt := make([]vk.ExtensionProperties, instanceExtLen)
	err = resultError(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, instanceExt))
	if err != nil {
		return nil, err
	}
	extNames := make([]string, 0, len(instanceExt))
	for _, ext := range instanceExt {
		ext.Deref()
		extNames = append(extNames, vk.ToString(ext.ExtensionName[:]))
	}
	return extNames, nil
}

// EnableLayer enables a specific layer, failing if the loader does not
// provide it.
func (a *App) EnableLayer(layer string) error {
	layers, err := SupportedLayers()
	if err != nil {
		return errors.Wrap(err, "enumerate instance layers")
	}
	if !contains(layers, layer) {
		return errors.Wrapf(ErrValidationUnavailable, "layer '%s' not found", layer)
	}
	if !contains(a.EnabledLayers, layer) {
		a.EnabledLayers = append(a.EnabledLayers, layer)
	}
	return nil
}

// EnableExtension enables an extension for use by the application
func (a *App) EnableExtension(extension string) *App {
	if !contains(a.EnabledExtensions, extension) {
		a.EnabledExtensions = append(a.EnabledExtensions, extension)
	}
	return a
}

// EnableValidation enables the Khronos validation layer and the debug
// report extension.
func (a *App) EnableValidation() error {
	if err := a.EnableLayer(ValidationLayer); err != nil {
		return err
	}
	a.EnableExtension(debugReportExtension)
	return nil
}

// MissingExtensions returns the enabled extensions the loader does not provide.
func (a *App) MissingExtensions() ([]string, error) {
	supported, err := SupportedExtensions()
	if err != nil {
		return nil, err
	}
	return missing(supported, a.EnabledExtensions), nil
}

// apiVersion clamps APIVersion to a release the loader knows about.
func (a *App) apiVersion() Version {
	v := a.APIVersion
	if v.Major != 1 || v.Minor < 0 || v.Minor > 3 {
		return Version{Major: 1}
	}
	return Version{Major: v.Major, Minor: v.Minor}
}

// VKApplicationInfo creates a structure representing this application in a Vulkan friendly format
func (a *App) VKApplicationInfo() vk.ApplicationInfo {
	api := a.apiVersion()
	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         api.VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(EngineName),
		EngineVersion:      EngineVersion.VKVersion(),
	}
}

// CreateInstance creates the Vulkan instance
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.VKApplicationInfo()

	extensions := safeStrings(append([]string(nil), a.EnabledExtensions...))
	layers := safeStrings(append([]string(nil), a.EnabledLayers...))

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance := &Instance{}

	res := vk.CreateInstance(&createInfo, nil, &instance.VKInstance)
	if err := wrapResult(res, ErrInstanceCreation, "create instance"); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance.VKInstance); err != nil {
		vk.DestroyInstance(instance.VKInstance, nil)
		return nil, errors.Wrapf(ErrInstanceCreation, "init instance: %v", err)
	}

	return instance, nil
}

// Instance is an instance of the Vulkan subsystem
type Instance struct {
	// VKInstance is the native Vulkan instance object
	VKInstance vk.Instance
}

// PhysicalDevices returns a list of physical devices known to Vulkan
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var deviceCount uint32
	err := resultError(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, nil))
	if err != nil {
		return nil, err
	}

	if deviceCount == 0 {
		return nil, nil
	}

	devices := make([]vk.PhysicalDevice, deviceCount)
	err = resultError(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, devices))
	if err != nil {
		return nil, err
	}

	ret := make([]*PhysicalDevice, deviceCount)
	for n, device := range devices {
		ret[n] = &PhysicalDevice{VKPhysicalDevice: device}

		vk.GetPhysicalDeviceProperties(device, &ret[n].VKPhysicalDeviceProperties)
		ret[n].VKPhysicalDeviceProperties.Deref()
		ret[n].DeviceName = vk.ToString(ret[n].VKPhysicalDeviceProperties.DeviceName[:])
	}
	return ret, nil
}

// Destroy destroys the instance, every object created from it must already be gone.
func (i *Instance) Destroy() {
	vk.DestroyInstance(i.VKInstance, nil)
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

func missing(available, required []string) []string {
	var ret []string
	for _, r := range required {
		if !contains(available, r) {
			ret = append(ret, r)
		}
	}
	return ret
}
