package needle

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// FrameState is where the orchestrator is in the frame protocol.
type FrameState int

const (
	StateIdle FrameState = iota
	StateAcquiring
	StateRecording
	StateSubmitted
	StatePresenting
	// StateWaitingForResize is entered while the window has no area. No
	// swapchain is rebuilt until BeginFrame sees a non-zero extent.
	StateWaitingForResize
	// StateFailed is entered when a submission fails after the frame's fence
	// was reset. Only Shutdown is accepted from here.
	StateFailed
	StateShutdown
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	case StatePresenting:
		return "presenting"
	case StateWaitingForResize:
		return "waiting-for-resize"
	case StateFailed:
		return "failed"
	case StateShutdown:
		return "shutdown"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// maxAcquireAttempts bounds swapchain rebuilds within one BeginFrame.
const maxAcquireAttempts = 3

// Frame is what the host records into between BeginFrame and EndFrame.
type Frame struct {
	FrameIndex    int
	ImageIndex    uint32
	CommandBuffer *CommandBuffer
	RenderPass    vk.RenderPass
	Framebuffer   vk.Framebuffer
	Extent        vk.Extent2D
}

// RecordFunc records the host's commands for frame into cmd. The command
// buffer is already begun and is ended after RecordFunc returns.
type RecordFunc func(cmd *CommandBuffer, frame *Frame) error

// FrameOrchestrator drives the acquire, record, submit and present cycle
// over a swapchain it owns, rebuilding the swapchain on resize or when the
// surface goes out of date. It is not safe for concurrent use.
type FrameOrchestrator struct {
	driver  frameDriver
	window  Window
	logger  *slog.Logger
	timeout time.Duration

	swapchain      *Swapchain
	commandBuffers []*CommandBuffer

	state         FrameState
	frameIndex    int
	needsRecreate bool
	current       *Frame
	failure       error
}

// NewFrameOrchestrator allocates a command buffer per frame slot and builds
// the first swapchain. When the window is minimized the orchestrator starts
// in StateWaitingForResize.
func NewFrameOrchestrator(ctx *GraphicsContext, window Window, opts ...OrchestratorOption) (*FrameOrchestrator, error) {
	return newFrameOrchestrator(ctx, window, newOrchestratorOptions(ctx.Logger, opts))
}

func newFrameOrchestrator(driver frameDriver, window Window, o *orchestratorOptions) (*FrameOrchestrator, error) {
	f := &FrameOrchestrator{
		driver:  driver,
		window:  window,
		logger:  o.logger,
		timeout: o.acquireTimeout,
		state:   StateIdle,
	}

	buffers, err := driver.allocateCommandBuffers(FramesInFlight)
	if err != nil {
		return nil, err
	}
	f.commandBuffers = buffers

	if _, err := f.recreate(); err != nil {
		driver.freeCommandBuffers(buffers)
		return nil, err
	}

	return f, nil
}

// State returns the current protocol state
func (f *FrameOrchestrator) State() FrameState {
	return f.state
}

// Swapchain returns the live swapchain, nil while none could be built yet.
func (f *FrameOrchestrator) Swapchain() *Swapchain {
	return f.swapchain
}

// FrameIndex returns the frame slot the next BeginFrame uses.
func (f *FrameOrchestrator) FrameIndex() int {
	return f.frameIndex
}

// NotifyResized asks for the swapchain to be rebuilt before the next frame.
func (f *FrameOrchestrator) NotifyResized(extent vk.Extent2D) {
	if f.state == StateShutdown {
		return
	}
	f.logger.Debug("resize notified", slog.Int("width", int(extent.Width)), slog.Int("height", int(extent.Height)))
	f.needsRecreate = true
}

// BeginFrame waits for the current frame slot, acquires a swapchain image and
// returns the frame to record. It returns nil and no error while the window
// has no area; the host should process window events and call again.
func (f *FrameOrchestrator) BeginFrame() (*Frame, error) {
	switch f.state {
	case StateShutdown:
		return nil, ErrShutdown
	case StateFailed:
		return nil, f.failure
	case StateIdle, StateWaitingForResize:
	default:
		return nil, errors.Wrapf(ErrFrameState, "begin frame while %s", f.state)
	}

	var lastErr error
	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		if f.swapchain == nil || f.needsRecreate || f.window.ResizePending() {
			ready, err := f.recreate()
			if err != nil || !ready {
				return nil, err
			}
		}

		f.state = StateAcquiring
		slot := &f.swapchain.Frames[f.frameIndex]

		if err := f.driver.waitForFrame(slot, f.timeout); err != nil {
			f.state = StateIdle
			return nil, errors.Wrapf(err, "wait for frame %d", f.frameIndex)
		}

		imageIndex, err := f.driver.acquireNextImage(f.swapchain, slot, f.timeout)
		switch {
		case err == nil, errors.Is(err, ErrSuboptimal):
		case errors.Is(err, ErrOutOfDate), errors.Is(err, ErrTimeout):
			f.logger.Debug("acquire requires swapchain rebuild", slog.Any("err", err))
			f.needsRecreate = true
			f.state = StateIdle
			lastErr = err
			continue
		default:
			f.state = StateIdle
			return nil, errors.Wrap(err, "acquire next image")
		}

		if int(imageIndex) >= len(f.swapchain.Images) {
			f.state = StateIdle
			return nil, errors.Errorf("acquired image %d of %d", imageIndex, len(f.swapchain.Images))
		}

		image := &f.swapchain.Images[imageIndex]
		if image.InFlight != nil && image.InFlight != slot {
			if err := f.driver.waitForFrame(image.InFlight, f.timeout); err != nil {
				f.state = StateIdle
				return nil, errors.Wrapf(err, "wait for image %d", imageIndex)
			}
		}
		image.InFlight = slot

		f.current = &Frame{
			FrameIndex:    f.frameIndex,
			ImageIndex:    imageIndex,
			CommandBuffer: f.commandBuffers[f.frameIndex],
			RenderPass:    f.swapchain.RenderPass(),
			Framebuffer:   image.Framebuffer,
			Extent:        f.swapchain.Extent(),
		}
		f.state = StateRecording

		return f.current, nil
	}

	return nil, errors.Wrapf(lastErr, "no image after %d attempts", maxAcquireAttempts)
}

// Submit records frame through record and submits it to the graphics queue.
// When record fails nothing is submitted and Submit may be called again. A
// failed submission leaves the orchestrator in StateFailed.
func (f *FrameOrchestrator) Submit(frame *Frame, record RecordFunc) error {
	if err := f.expect(StateRecording, frame); err != nil {
		return err
	}

	slot := &f.swapchain.Frames[f.frameIndex]

	if err := f.driver.recordCommands(frame.CommandBuffer, frame, record); err != nil {
		return errors.Wrapf(err, "record frame %d", frame.FrameIndex)
	}

	if err := f.driver.resetFrame(slot); err != nil {
		return errors.Wrapf(err, "reset frame %d", frame.FrameIndex)
	}

	if err := f.driver.submit(frame.CommandBuffer, slot); err != nil {
		// The slot fence is unsignaled and nothing will signal it.
		f.failure = errors.Wrapf(err, "submit frame %d", frame.FrameIndex)
		f.current = nil
		f.state = StateFailed
		f.logger.Error("frame submission failed", slog.Any("err", err))
		return f.failure
	}

	f.state = StateSubmitted
	return nil
}

// EndFrame presents frame and moves on to the next frame slot. Out of date or
// suboptimal presentation, and pending resizes, rebuild the swapchain.
func (f *FrameOrchestrator) EndFrame(frame *Frame) error {
	if err := f.expect(StateSubmitted, frame); err != nil {
		return err
	}

	f.state = StatePresenting
	slot := &f.swapchain.Frames[f.frameIndex]

	err := f.driver.present(f.swapchain, slot, frame.ImageIndex)

	f.current = nil
	f.frameIndex = (f.frameIndex + 1) % FramesInFlight
	f.state = StateIdle

	switch {
	case err == nil:
	case IsRecoverable(err):
		f.logger.Debug("present requires swapchain rebuild", slog.Any("err", err))
		f.needsRecreate = true
	default:
		return errors.Wrap(err, "present")
	}

	if f.window.ResizePending() {
		f.needsRecreate = true
	}
	if f.needsRecreate {
		_, err := f.recreate()
		return err
	}
	return nil
}

// Shutdown waits for the device to go idle and releases the command buffers
// and swapchain. It must be the last call; later calls return ErrShutdown.
func (f *FrameOrchestrator) Shutdown() error {
	if f.state == StateShutdown {
		return ErrShutdown
	}
	f.state = StateShutdown
	f.current = nil

	err := f.driver.waitIdle()

	f.driver.freeCommandBuffers(f.commandBuffers)
	f.commandBuffers = nil

	if f.swapchain != nil {
		f.driver.destroySwapchain(f.swapchain)
		f.swapchain = nil
	}

	return err
}

func (f *FrameOrchestrator) expect(state FrameState, frame *Frame) error {
	if f.state == StateShutdown {
		return ErrShutdown
	}
	if f.state == StateFailed {
		return f.failure
	}
	if f.state != state {
		return errors.Wrapf(ErrFrameState, "expected %s, in %s", state, f.state)
	}
	if frame == nil || frame != f.current {
		return errors.Wrap(ErrFrameState, "frame is not the current frame")
	}
	return nil
}

// recreate rebuilds the swapchain for the current window extent. It reports
// false without error when the window has no area.
func (f *FrameOrchestrator) recreate() (bool, error) {
	extent := windowExtent(f.window)
	if extent.Width == 0 || extent.Height == 0 {
		if f.state != StateWaitingForResize {
			f.logger.Info("window has no area, waiting for resize")
		}
		f.state = StateWaitingForResize
		f.needsRecreate = true
		return false, nil
	}

	f.logger.Debug("rebuilding swapchain", slog.Int("width", int(extent.Width)), slog.Int("height", int(extent.Height)))

	if err := f.driver.waitIdle(); err != nil {
		return false, err
	}

	sc, err := f.driver.createSwapchain(extent, f.swapchain)
	if err != nil {
		return false, errors.Wrap(err, "recreate swapchain")
	}

	if f.swapchain != nil && !f.swapchain.CompareFormats(sc) {
		err := errors.Wrapf(ErrFormatMismatch, "color %d -> %d, depth %d -> %d",
			f.swapchain.Format, sc.Format, f.swapchain.DepthFormat, sc.DepthFormat)
		f.driver.destroySwapchain(sc)
		return false, err
	}

	old := f.swapchain
	f.swapchain = sc
	if old != nil {
		f.driver.destroySwapchain(old)
	}

	f.frameIndex = 0
	f.needsRecreate = false
	f.window.ResetResizePending()
	f.state = StateIdle

	f.logger.Info("swapchain ready",
		slog.Int("width", int(sc.Extent().Width)),
		slog.Int("height", int(sc.Extent().Height)),
		slog.Int("images", sc.ImageCount()))

	return true, nil
}
