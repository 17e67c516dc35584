package needle

import (
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// VKCreateFence creates a native fence, optionally already signaled so the
// first wait on it returns immediately.
func (d *Device) VKCreateFence(signaled bool) (vk.Fence, error) {
	var fence vk.Fence
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	err := wrapResult(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence), ErrAllocation, "create fence")
	if err != nil {
		return vk.NullFence, err
	}
	return fence, nil
}

func (d *Device) VKDestroyFence(f vk.Fence) {
	vk.DestroyFence(d.VKDevice, f, nil)
}

// WaitForFence blocks until f is signaled or timeout passes. A negative
// timeout waits forever.
func (d *Device) WaitForFence(f vk.Fence, timeout time.Duration) error {
	return resultError(vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f}, vk.True, timeoutNanos(timeout)))
}

// ResetFence returns f to the unsignaled state
func (d *Device) ResetFence(f vk.Fence) error {
	return resultError(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f}))
}

// timeoutNanos converts timeout for the driver, negative meaning no limit.
func timeoutNanos(timeout time.Duration) uint64 {
	if timeout < 0 {
		return vk.MaxUint64
	}
	return uint64(timeout.Nanoseconds())
}
