package needle

import (
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Window is the host window the subsystem presents into. Window creation
// and input handling stay with the host.
type Window interface {
	// Extent returns the current framebuffer size in pixels
	Extent() (width, height uint32)
	// ResizePending reports whether the framebuffer changed size since the
	// last ResetResizePending.
	ResizePending() bool
	ResetResizePending()
	// RequiredInstanceExtensions lists the instance extensions surface
	// creation needs.
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// GLFWWindow adapts a GLFW window created with the NoAPI client hint.
type GLFWWindow struct {
	Window *glfw.Window

	resized bool
}

// NewGLFWWindow wraps window and tracks framebuffer resizes. It replaces any
// framebuffer size callback already installed.
func NewGLFWWindow(window *glfw.Window) *GLFWWindow {
	w := &GLFWWindow{Window: window}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized = true
	})
	return w
}

func (w *GLFWWindow) Extent() (uint32, uint32) {
	width, height := w.Window.GetFramebufferSize()
	if width < 0 || height < 0 {
		return 0, 0
	}
	return uint32(width), uint32(height)
}

func (w *GLFWWindow) ResizePending() bool {
	return w.resized
}

func (w *GLFWWindow) ResetResizePending() {
	w.resized = false
}

func (w *GLFWWindow) RequiredInstanceExtensions() []string {
	return w.Window.GetRequiredInstanceExtensions()
}

func (w *GLFWWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(surface), nil
}

// WaitEvents parks the calling thread until the host receives an event. It
// is what a host loop calls while the orchestrator waits for a non-zero
// framebuffer.
func (w *GLFWWindow) WaitEvents() {
	glfw.WaitEvents()
}

func windowExtent(w Window) vk.Extent2D {
	width, height := w.Extent()
	return vk.Extent2D{Width: width, Height: height}
}
