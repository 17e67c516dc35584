package needle

import (
	"time"

	"golang.org/x/exp/slog"
)

// SwapchainExtension is the device extension every selected accelerator must support.
const SwapchainExtension = "VK_KHR_swapchain"

type contextOptions struct {
	validation       bool
	logger           *slog.Logger
	deviceExtensions []string
}

// ContextOption configures NewGraphicsContext
type ContextOption func(*contextOptions)

// WithValidation requests the Khronos validation layer. Context creation
// fails when the layer is not installed.
func WithValidation(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.validation = enabled
	}
}

// WithLogger sets the logger used by the context and the swapchains it builds.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(o *contextOptions) {
		o.logger = logger
	}
}

// WithDeviceExtensions requires additional device extensions on top of the
// swapchain extension, accelerators lacking them are skipped.
func WithDeviceExtensions(extensions ...string) ContextOption {
	return func(o *contextOptions) {
		o.deviceExtensions = append(o.deviceExtensions, extensions...)
	}
}

func newContextOptions(opts []ContextOption) *contextOptions {
	o := &contextOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if !contains(o.deviceExtensions, SwapchainExtension) {
		o.deviceExtensions = append([]string{SwapchainExtension}, o.deviceExtensions...)
	}
	return o
}

type orchestratorOptions struct {
	logger         *slog.Logger
	acquireTimeout time.Duration
}

// OrchestratorOption configures NewFrameOrchestrator
type OrchestratorOption func(*orchestratorOptions)

// WithOrchestratorLogger sets the orchestrator's logger, it defaults to the
// context's logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.logger = logger
	}
}

// WithAcquireTimeout bounds fence waits and image acquisition. The default,
// a negative duration, waits forever.
func WithAcquireTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.acquireTimeout = timeout
	}
}

func newOrchestratorOptions(logger *slog.Logger, opts []OrchestratorOption) *orchestratorOptions {
	o := &orchestratorOptions{logger: logger, acquireTimeout: -1}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
