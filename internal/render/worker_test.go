package render

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledforge/internal/event"
	"github.com/roach88/ledforge/internal/pixel"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
	ready  chan event.FrameReady
}

func newRecorder() *recorder {
	return &recorder{ready: make(chan event.FrameReady, 64)}
}

func (r *recorder) Publish(e event.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if fr, ok := e.(event.FrameReady); ok {
		r.ready <- fr
	}
}

func (r *recorder) maxQueueLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := 0
	for _, e := range r.events {
		if qc, ok := e.(event.QueueChanged); ok && qc.Len > m {
			m = qc.Len
		}
	}
	return m
}

func waitReady(t *testing.T, r *recorder) event.FrameReady {
	t.Helper()
	select {
	case fr := <-r.ready:
		return fr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for FrameReady")
		return event.FrameReady{}
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestWorker(t *testing.T, opts ...WorkerOption) (*Worker, *recorder) {
	t.Helper()
	rec := newRecorder()
	opts = append([]WorkerOption{
		WithPublisher(rec),
		WithLogger(quietLogger()),
		WithOptions(Options{PixelSize: 1, Zoom: 1}),
	}, opts...)
	w := NewWorker(opts...)
	t.Cleanup(w.Stop)
	return w, rec
}

func TestWorker_RendersRequest(t *testing.T) {
	w, rec := createTestWorker(t)
	w.Start(context.Background())

	px := pixel.Buffer{{R: 1}, {R: 2}, {R: 3}, {R: 4}}
	require.True(t, w.RequestFrame(7, px, 2, 2))

	fr := waitReady(t, rec)
	assert.Equal(t, 7, fr.FrameIndex)
	require.NotNil(t, fr.Image)
	assert.Equal(t, uint8(4), fr.Image.RGBAAt(1, 1).R)
	assert.Eventually(t, func() bool { return w.Rendered() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWorker_CopiesOnEnqueue(t *testing.T) {
	w, rec := createTestWorker(t)

	px := pixel.Filled(1, pixel.Pixel{R: 10})
	require.True(t, w.RequestFrame(0, px, 1, 1))
	px[0] = pixel.Pixel{R: 99}

	w.Start(context.Background())
	fr := waitReady(t, rec)
	assert.Equal(t, uint8(10), fr.Image.RGBAAt(0, 0).R)
}

func TestWorker_BoundedQueueDropsOldest(t *testing.T) {
	w, rec := createTestWorker(t)

	// Not started, so nothing drains.
	for i := 0; i < 30; i++ {
		require.True(t, w.RequestFrame(i, pixel.NewBuffer(1), 1, 1))
		assert.LessOrEqual(t, w.QueueLen(), DefaultQueueCapacity)
	}
	assert.Equal(t, DefaultQueueCapacity, w.QueueLen())
	assert.Equal(t, uint64(20), w.Dropped())
	assert.LessOrEqual(t, rec.maxQueueLen(), DefaultQueueCapacity)

	w.Start(context.Background())
	var got []int
	for i := 0; i < DefaultQueueCapacity; i++ {
		got = append(got, waitReady(t, rec).FrameIndex)
	}
	assert.Equal(t, []int{20, 21, 22, 23, 24, 25, 26, 27, 28, 29}, got)
}

func TestWorker_ContinuesAfterFailure(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	raster := func(px pixel.Buffer, w, h int, o Options) (*image.RGBA, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			return nil, errors.New("boom")
		case 2:
			panic("bad frame")
		}
		return Rasterize(px, w, h, o)
	}
	w, rec := createTestWorker(t, WithRasterizer(raster))

	for i := 0; i < 3; i++ {
		w.RequestFrame(i, pixel.NewBuffer(1), 1, 1)
	}
	w.Start(context.Background())

	fr := waitReady(t, rec)
	assert.Equal(t, 2, fr.FrameIndex)
	assert.Equal(t, uint64(2), w.Failed())
}

func TestWorker_MalformedRequestIsLoggedNotFatal(t *testing.T) {
	w, rec := createTestWorker(t)
	w.Start(context.Background())

	w.RequestFrame(0, pixel.NewBuffer(3), 2, 2)
	w.RequestFrame(1, pixel.NewBuffer(4), 2, 2)

	fr := waitReady(t, rec)
	assert.Equal(t, 1, fr.FrameIndex)
	assert.Equal(t, uint64(1), w.Failed())
}

func TestWorker_StopIsBoundedAndIdempotent(t *testing.T) {
	w, _ := createTestWorker(t, WithWaitTimeout(50*time.Millisecond))
	w.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	w.Stop()
	assert.Less(t, time.Since(start), time.Second)

	w.Stop()
	assert.False(t, w.RequestFrame(0, pixel.NewBuffer(1), 1, 1))
}

func TestWorker_StopWithoutStart(t *testing.T) {
	w, _ := createTestWorker(t)
	w.Stop()
	w.Start(context.Background())
	assert.False(t, w.started.Load())
}

func TestWorker_ContextCancelStops(t *testing.T) {
	w, _ := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit on cancel")
	}
	assert.False(t, w.RequestFrame(0, pixel.NewBuffer(1), 1, 1))
}

func TestWorker_InFlightRenderCompletesBeforeStop(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	raster := func(px pixel.Buffer, w, h int, o Options) (*image.RGBA, error) {
		close(entered)
		<-release
		return Rasterize(px, w, h, o)
	}
	w, rec := createTestWorker(t, WithRasterizer(raster))
	w.RequestFrame(5, pixel.NewBuffer(1), 1, 1)
	w.Start(context.Background())
	<-entered

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	close(release)

	fr := waitReady(t, rec)
	assert.Equal(t, 5, fr.FrameIndex)
	<-stopped
}

func TestWorker_RequestPatternFrame(t *testing.T) {
	w, rec := createTestWorker(t)
	assert.False(t, w.RequestPatternFrame(0), "no pattern yet")

	p, err := pixel.NewBlankPattern(2, 1, 2, pixel.DefaultDurationMS)
	require.NoError(t, err)
	p.Frames[1].Pixels[1] = pixel.Pixel{G: 77}
	w.SetPattern(p)
	p.Frames[1].Pixels[1] = pixel.Black

	require.True(t, w.RequestPatternFrame(99))
	w.Start(context.Background())

	fr := waitReady(t, rec)
	assert.Equal(t, 1, fr.FrameIndex, "index clamps to last frame")
	assert.Equal(t, uint8(77), fr.Image.RGBAAt(1, 0).G)
}

func TestWorker_Setters(t *testing.T) {
	w, rec := createTestWorker(t)
	w.SetPixelSize(3)
	w.SetZoom(2)
	w.SetGridGap(1)

	o := w.Options()
	assert.Equal(t, 3, o.PixelSize)
	assert.Equal(t, 2.0, o.Zoom)
	assert.Equal(t, 1, o.GridGap)

	w.Start(context.Background())
	w.RequestFrame(0, pixel.NewBuffer(2), 2, 1)
	fr := waitReady(t, rec)
	assert.Equal(t, 6+1+6, fr.Image.Bounds().Dx())
}
