package needle

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make([]*QueueFamily, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics()
	})
}

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

// HasQueues reports whether the family exposes at least one queue
func (q *QueueFamily) HasQueues() bool {
	return q.VKQueueFamilyProperties.QueueCount > 0
}

func (q *QueueFamily) IsGraphics() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == vk.QueueFlags(vk.QueueGraphicsBit)
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Graphics: %v Queues: %d }", q.Index, q.IsGraphics(), q.VKQueueFamilyProperties.QueueCount)
}

// NoQueueFamily marks an unresolved family in QueueFamilyIndices.
const NoQueueFamily = -1

// QueueFamilyIndices is the outcome of queue family selection for one
// accelerator and surface.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

// IsComplete reports whether both a graphics and a present family were found.
func (q QueueFamilyIndices) IsComplete() bool {
	return q.Graphics != NoQueueFamily && q.Present != NoQueueFamily
}

// Shared reports whether graphics and presentation use the same family.
func (q QueueFamilyIndices) Shared() bool {
	return q.IsComplete() && q.Graphics == q.Present
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []int {
	if q.Shared() {
		return []int{q.Graphics}
	}
	return []int{q.Graphics, q.Present}
}

func (q QueueFamilyIndices) String() string {
	return fmt.Sprintf("{ Graphics: %d Present: %d }", q.Graphics, q.Present)
}

// SelectQueueFamilies picks a family for graphics and one for presentation.
// A single family able to do both is preferred; otherwise the first
// graphics family and the first presenting family are used. Families without
// queues are ignored.
func SelectQueueFamilies(families QueueFamilySlice, supportsPresent func(q *QueueFamily) bool) QueueFamilyIndices {
	indices := QueueFamilyIndices{Graphics: NoQueueFamily, Present: NoQueueFamily}

	usable := families.Filter(func(q *QueueFamily) bool {
		return q.HasQueues()
	})

	graphics := usable.FilterGraphics()
	for _, q := range graphics {
		if supportsPresent(q) {
			return QueueFamilyIndices{Graphics: q.Index, Present: q.Index}
		}
	}
	if len(graphics) > 0 {
		indices.Graphics = graphics[0].Index
	}

	for _, q := range usable {
		if supportsPresent(q) {
			indices.Present = q.Index
			break
		}
	}
	return indices
}
