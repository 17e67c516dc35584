package needle

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Fatal conditions. A caller receiving one of these is expected to end the
// session.
var (
	ErrNoSuitableAccelerator = errors.New("no suitable accelerator")
	ErrQueueFamilyIncomplete = errors.New("queue family selection incomplete")
	ErrInstanceCreation      = errors.New("instance creation failed")
	ErrValidationUnavailable = errors.New("validation layer requested but not available")
	ErrNoSupportedFormat     = errors.New("no supported format")
	ErrAllocation            = errors.New("allocation failed")
	ErrImageCreation         = errors.New("image creation failed")
	ErrSurfaceQuery          = errors.New("surface query failed")
	ErrDeviceLost            = errors.New("device lost")
	ErrOutOfMemory           = errors.New("out of memory")
	ErrFormatMismatch        = errors.New("swapchain image or depth format has changed")
	ErrDriver                = errors.New("unexpected driver result")
)

// Recoverable presentation conditions. The frame orchestrator handles these
// itself by recreating the swapchain or by proceeding.
var (
	ErrOutOfDate  = errors.New("surface out of date")
	ErrSuboptimal = errors.New("surface suboptimal")
	ErrTimeout    = errors.New("timeout")
)

// Contract violations by the caller.
var (
	ErrFrameState = errors.New("operation not valid in current frame state")
	ErrShutdown   = errors.New("orchestrator has been shut down")

	// ErrInvalidPipeline reports an incomplete pipeline description or
	// malformed shader code.
	ErrInvalidPipeline = errors.New("invalid pipeline description")
)

// IsRecoverable reports whether err is one of the presentation conditions
// resolved by recreating the swapchain.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrOutOfDate) ||
		errors.Is(err, ErrSuboptimal) ||
		errors.Is(err, ErrTimeout)
}

// IsFatal reports whether err should terminate the session.
func IsFatal(err error) bool {
	return err != nil && !IsRecoverable(err) &&
		!errors.Is(err, ErrFrameState)
}

// resultError maps a driver result onto the closed error set. Results with
// no more specific condition wrap ErrDriver.
func resultError(res vk.Result) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return ErrSuboptimal
	case vk.ErrorOutOfDate:
		return ErrOutOfDate
	case vk.Timeout, vk.NotReady:
		return ErrTimeout
	case vk.ErrorDeviceLost, vk.ErrorSurfaceLost:
		return errors.Wrap(ErrDeviceLost, vk.Error(res).Error())
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory:
		return errors.Wrap(ErrOutOfMemory, vk.Error(res).Error())
	case vk.ErrorTooManyObjects:
		return errors.Wrap(ErrAllocation, vk.Error(res).Error())
	case vk.ErrorNativeWindowInUse:
		return errors.Wrap(ErrSurfaceQuery, vk.Error(res).Error())
	}
	return errors.Wrap(ErrDriver, vk.Error(res).Error())
}

// wrapResult wraps a failed driver call in the given condition, keeping the
// driver message for diagnostics.
func wrapResult(res vk.Result, kind error, msg string) error {
	if res == vk.Success {
		return nil
	}
	return errors.Wrapf(kind, "%s: %v", msg, vk.Error(res))
}
