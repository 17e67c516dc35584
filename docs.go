/*
Package needle is the presentation layer of a Vulkan renderer: it brings up a device for a
window, keeps a swapchain matching the window, and runs the per frame acquire, record, submit
and present protocol so the host only has to record its draw commands.

Like most thin Vulkan wrappers it exposes the native structures on every object, prefixed with
'VK', so applications aren't limited by what this package provides.

Objects

	GraphicsContext	instance, validation callback, surface, accelerator, device, queues and command pool
	Surface		the window's drawable and its capability queries
	Swapchain	swap images, their color and depth views, framebuffers, render pass and frame slots
	FrameOrchestrator	the frame loop over a Swapchain it owns and rebuilds on resize
	Window		the host window, GLFWWindow adapts a GLFW window

Frames in flight

The host may record up to FramesInFlight frames ahead of the device. Each frame slot owns an
image-acquired semaphore, a render-finished semaphore and a fence that is created signaled, so
the first frame never waits. Each swap image remembers the slot that last rendered to it, and a
frame acquiring an image that is still in use waits for that slot first.

A host loop looks like this:

	for !window.ShouldClose() {
		frame, err := orchestrator.BeginFrame()
		if err != nil {
			return err
		}
		if frame == nil {
			glfw.WaitEvents() // minimized
			continue
		}
		if err := orchestrator.Submit(frame, record); err != nil {
			return err
		}
		if err := orchestrator.EndFrame(frame); err != nil {
			return err
		}
		glfw.PollEvents()
	}

Errors

Errors are drawn from a closed set of sentinels in errors.go and matched with errors.Is.
Out of date and suboptimal surfaces are handled inside the orchestrator; IsFatal tells the host
which of the remaining errors end the session. A change of color or depth format while
rebuilding the swapchain is fatal, since pipelines built for the old render pass would be
invalid.

Teardown is explicit: FrameOrchestrator.Shutdown, then any pipelines, then
GraphicsContext.Destroy.
*/
package needle
