package needle

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestResultError(t *testing.T) {
	assert.NoError(t, resultError(vk.Success))

	tests := []struct {
		res  vk.Result
		want error
	}{
		{vk.Suboptimal, ErrSuboptimal},
		{vk.ErrorOutOfDate, ErrOutOfDate},
		{vk.Timeout, ErrTimeout},
		{vk.NotReady, ErrTimeout},
		{vk.ErrorDeviceLost, ErrDeviceLost},
		{vk.ErrorSurfaceLost, ErrDeviceLost},
		{vk.ErrorOutOfHostMemory, ErrOutOfMemory},
		{vk.ErrorOutOfDeviceMemory, ErrOutOfMemory},
		{vk.ErrorTooManyObjects, ErrAllocation},
		{vk.ErrorNativeWindowInUse, ErrSurfaceQuery},
		{vk.ErrorInitializationFailed, ErrDriver},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, resultError(tt.res), tt.want, "result %d", tt.res)
	}

	err := resultError(vk.ErrorInitializationFailed)
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "unexpected driver result")
}

func TestUnmappedResultsAreNamed(t *testing.T) {
	named := []error{
		ErrNoSuitableAccelerator, ErrQueueFamilyIncomplete, ErrInstanceCreation,
		ErrValidationUnavailable, ErrNoSupportedFormat, ErrAllocation, ErrImageCreation,
		ErrSurfaceQuery, ErrDeviceLost, ErrOutOfMemory, ErrFormatMismatch, ErrDriver,
		ErrOutOfDate, ErrSuboptimal, ErrTimeout,
	}

	for _, res := range []vk.Result{vk.ErrorInitializationFailed, vk.ErrorNativeWindowInUse,
		vk.ErrorTooManyObjects, vk.ErrorFragmentedPool} {
		err := resultError(res)
		matched := false
		for _, sentinel := range named {
			if errors.Is(err, sentinel) {
				matched = true
				break
			}
		}
		assert.True(t, matched, "result %d escaped as %v", res, err)
	}
}

func TestErrorClasses(t *testing.T) {
	for _, err := range []error{ErrOutOfDate, ErrSuboptimal, ErrTimeout, errors.Wrap(ErrOutOfDate, "present")} {
		assert.True(t, IsRecoverable(err), "%v", err)
		assert.False(t, IsFatal(err), "%v", err)
	}

	for _, err := range []error{ErrDeviceLost, ErrOutOfMemory, ErrFormatMismatch, ErrNoSuitableAccelerator,
		resultError(vk.ErrorDeviceLost)} {
		assert.False(t, IsRecoverable(err), "%v", err)
		assert.True(t, IsFatal(err), "%v", err)
	}

	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.Wrap(ErrFrameState, "submit")))
}

func TestWrapResult(t *testing.T) {
	assert.NoError(t, wrapResult(vk.Success, ErrAllocation, "allocate"))

	err := wrapResult(vk.ErrorOutOfDeviceMemory, ErrAllocation, "allocate")
	assert.ErrorIs(t, err, ErrAllocation)
	assert.Contains(t, err.Error(), "allocate")

	err = wrapResult(vk.ErrorInitializationFailed, ErrImageCreation, "create render pass")
	assert.ErrorIs(t, err, ErrImageCreation)
	assert.True(t, IsFatal(err))
}
