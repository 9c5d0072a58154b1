// Package render rasterizes LED frames for display off the interactive
// goroutine.
//
// Rasterize is a pure function from a row-major pixel buffer to an RGBA
// image. Worker wraps it in a single background goroutine fed by a bounded
// queue that drops the oldest pending request when full, so a burst of
// preview requests never grows memory and the newest frame always wins.
//
// Lifecycle:
//
//	w := render.NewWorker(render.WithPublisher(bus))
//	w.Start(ctx)
//	defer w.Stop()
//	w.RequestFrame(i, pixels, width, height)
//
// Results arrive as event.FrameReady on the configured publisher.
package render
