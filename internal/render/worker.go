package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/ledforge/internal/event"
	"github.com/roach88/ledforge/internal/pixel"
)

// DefaultWaitTimeout bounds how long the idle loop sleeps before
// re-checking for shutdown.
const DefaultWaitTimeout = 100 * time.Millisecond

// RasterizeFunc turns one request into an image.
type RasterizeFunc func(pixels pixel.Buffer, width, height int, opts Options) (*image.RGBA, error)

// Worker rasterizes frames on a single background goroutine.
//
// Producers call RequestFrame from any goroutine. Requests land in a bounded
// drop-oldest queue; the worker pops them FIFO, rasterizes outside every
// lock and publishes event.FrameReady. A failing or panicking request is
// logged and skipped.
//
// Thread-safety model:
//   - RequestFrame, RequestPatternFrame and the setters: any goroutine
//   - Start and Stop: idempotent, any goroutine
type Worker struct {
	queue       *requestQueue
	events      event.Publisher
	logger      *slog.Logger
	waitTimeout time.Duration
	rasterize   RasterizeFunc

	mu      sync.Mutex // guards opts and pattern
	opts    Options
	pattern *pixel.Pattern

	rendered atomic.Uint64
	failed   atomic.Uint64

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithQueueCapacity sets the pending request limit.
func WithQueueCapacity(n int) WorkerOption {
	return func(w *Worker) {
		w.queue = newRequestQueue(n)
	}
}

// WithWaitTimeout sets the idle wakeup interval.
func WithWaitTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.waitTimeout = d
		}
	}
}

// WithOptions sets the initial rasterization options.
func WithOptions(o Options) WorkerOption {
	return func(w *Worker) {
		w.opts = o
	}
}

// WithPublisher sets where FrameReady and QueueChanged are sent.
func WithPublisher(p event.Publisher) WorkerOption {
	return func(w *Worker) {
		if p != nil {
			w.events = p
		}
	}
}

// WithLogger sets the worker's logger.
func WithLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRasterizer replaces Rasterize. Used by tests to inject slow or
// failing renders.
func WithRasterizer(fn RasterizeFunc) WorkerOption {
	return func(w *Worker) {
		if fn != nil {
			w.rasterize = fn
		}
	}
}

// NewWorker creates a stopped worker.
func NewWorker(opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:       newRequestQueue(DefaultQueueCapacity),
		events:      event.Discard,
		logger:      slog.Default(),
		waitTimeout: DefaultWaitTimeout,
		rasterize:   Rasterize,
		opts:        DefaultOptions(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the render goroutine. Later calls are no-ops, as is a call
// after Stop. Cancelling ctx stops the worker like Stop does.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		select {
		case <-w.stop:
			return
		default:
		}
		w.started.Store(true)
		go w.run(ctx)
	})
}

// Stop signals the goroutine and waits for it to exit. A request being
// rasterized finishes first; pending requests are discarded.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.queue.Close()
	})
	// Prevent a late Start from launching.
	w.startOnce.Do(func() {})
	if w.started.Load() {
		<-w.done
	}
}

// RequestFrame queues pixels for rendering. The buffer is copied, so the
// caller may keep mutating it. Returns false once the worker is stopped.
func (w *Worker) RequestFrame(frameIndex int, pixels pixel.Buffer, width, height int) bool {
	return w.enqueue(Request{
		FrameIndex: frameIndex,
		Pixels:     pixels.Clone(),
		Width:      width,
		Height:     height,
	})
}

// RequestPatternFrame queues frame frameIndex of the configured pattern,
// clamped to a valid index. Returns false when no pattern is set, the
// pattern has no frames, or the worker is stopped.
func (w *Worker) RequestPatternFrame(frameIndex int) bool {
	w.mu.Lock()
	p := w.pattern
	if p == nil {
		w.mu.Unlock()
		return false
	}
	f, ok := p.ClampFrame(frameIndex)
	if !ok {
		w.mu.Unlock()
		return false
	}
	req := Request{
		FrameIndex: f,
		Pixels:     p.Frames[f].Pixels.Clone(),
		Width:      p.Width,
		Height:     p.Height,
	}
	w.mu.Unlock()

	return w.enqueue(req)
}

func (w *Worker) enqueue(r Request) bool {
	evicted, ok := w.queue.Enqueue(r)
	if !ok {
		return false
	}
	if evicted {
		w.logger.Debug("render queue full, dropped oldest request",
			"frame", r.FrameIndex,
			"dropped_total", w.queue.Dropped(),
		)
	}
	w.publishQueue()
	return true
}

// SetPixelSize changes the LED edge length for subsequent renders.
func (w *Worker) SetPixelSize(size int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.PixelSize = size
}

// SetZoom changes the zoom factor for subsequent renders.
func (w *Worker) SetZoom(zoom float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.Zoom = zoom
}

// SetGridGap changes the spacing between LEDs for subsequent renders.
func (w *Worker) SetGridGap(gap int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.GridGap = gap
}

// SetPattern sets the pattern RequestPatternFrame reads from. The pattern
// is deep-copied.
func (w *Worker) SetPattern(p *pixel.Pattern) {
	var snap *pixel.Pattern
	if p != nil {
		snap = p.Clone()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pattern = snap
}

// Options returns the current rasterization options.
func (w *Worker) Options() Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts
}

// QueueLen returns the number of pending requests.
func (w *Worker) QueueLen() int {
	return w.queue.Len()
}

// Dropped returns how many requests were evicted before rendering.
func (w *Worker) Dropped() uint64 {
	return w.queue.Dropped()
}

// Rendered returns how many requests produced an image.
func (w *Worker) Rendered() uint64 {
	return w.rendered.Load()
}

// Failed returns how many requests failed to render.
func (w *Worker) Failed() uint64 {
	return w.failed.Load()
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	w.logger.Debug("render worker starting", "capacity", w.queue.capacity)

	timer := time.NewTimer(w.waitTimeout)
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			w.logger.Debug("render worker stopping")
			return
		case <-ctx.Done():
			w.logger.Debug("render worker stopping: context cancelled")
			w.queue.Close()
			return
		default:
		}

		if req, ok := w.queue.TryDequeue(); ok {
			w.publishQueue()
			w.process(req)
			continue
		}

		timer.Reset(w.waitTimeout)
		select {
		case <-w.stop:
		case <-ctx.Done():
		case <-w.queue.Wait():
		case <-timer.C:
		}
	}
}

// process renders one request. Failures are logged and counted; the loop
// always continues.
func (w *Worker) process(req Request) {
	w.mu.Lock()
	opts := w.opts
	w.mu.Unlock()

	img, err := w.safeRasterize(req, opts)
	if err != nil {
		w.failed.Add(1)
		w.logger.Error("render failed",
			"frame", req.FrameIndex,
			"width", req.Width,
			"height", req.Height,
			"error", err,
		)
		return
	}

	w.rendered.Add(1)
	w.events.Publish(event.FrameReady{Image: img, FrameIndex: req.FrameIndex})
}

func (w *Worker) safeRasterize(req Request, opts Options) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during rasterize: %v", r)
		}
	}()
	return w.rasterize(req.Pixels, req.Width, req.Height, opts)
}

func (w *Worker) publishQueue() {
	w.events.Publish(event.QueueChanged{Len: w.queue.Len(), Dropped: w.queue.Dropped()})
}
