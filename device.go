package needle

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	return resultError(vk.DeviceWaitIdle(d.VKDevice))
}

// GetQueue returns queue 0 of the given family.
func (d *Device) GetQueue(familyIndex int) *Queue {
	var vkq vk.Queue

	vk.GetDeviceQueue(d.VKDevice, uint32(familyIndex), 0, &vkq)

	return &Queue{Device: d, FamilyIndex: familyIndex, VKQueue: vkq}
}

// Allocate allocates sizeInBytes of memory from the first memory type
// matching memoryTypeBits and memoryProperties.
func (d *Device) Allocate(sizeInBytes uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, memoryProperties)
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(sizeInBytes),
		MemoryTypeIndex: typeIndex,
	}

	var deviceMemory vk.DeviceMemory

	res := vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory)
	if res != vk.Success {
		return nil, errors.Wrapf(ErrAllocation, "allocate %d bytes: %v", sizeInBytes, vk.Error(res))
	}

	return &DeviceMemory{Device: d, VKDeviceMemory: deviceMemory, Size: sizeInBytes}, nil
}
