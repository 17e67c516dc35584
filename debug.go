package needle

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// DebugReporter forwards validation layer reports to a logger.
type DebugReporter struct {
	Instance        *Instance
	VKDebugCallback vk.DebugReportCallback
}

// NewDebugReporter registers a debug report callback for warnings and
// errors on the given instance.
func NewDebugReporter(instance *Instance, logger *slog.Logger) (*DebugReporter, error) {
	var callback vk.DebugReportCallback
	res := vk.CreateDebugReportCallback(instance.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugCallback(logger),
	}, nil, &callback)
	if err := wrapResult(res, ErrInstanceCreation, "create debug report callback"); err != nil {
		return nil, err
	}
	return &DebugReporter{Instance: instance, VKDebugCallback: callback}, nil
}

// Destroy unregisters the callback
func (d *DebugReporter) Destroy() {
	vk.DestroyDebugReportCallback(d.Instance.VKInstance, d.VKDebugCallback, nil)
}

func debugCallback(logger *slog.Logger) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

		attrs := []any{
			slog.String("layer", pLayerPrefix),
			slog.Int("code", int(messageCode)),
		}
		switch {
		case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
			logger.Error(pMessage, attrs...)
		case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
			logger.Warn(pMessage, attrs...)
		case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
			logger.Warn(pMessage, append(attrs, slog.Bool("performance", true))...)
		default:
			logger.Debug(pMessage, attrs...)
		}
		return vk.Bool32(vk.False)
	}
}
