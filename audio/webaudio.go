//go:build js
// +build js

package audio

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/gopherjs/gopherjs/js"
)

// WebAudio is the browser platform: an AudioContext for routing and
// HTMLAudioElement instances for playback.
type WebAudio struct {
	logger *log.Logger
}

// NewWebAudio creates the browser platform. A nil logger discards messages.
func NewWebAudio(logger *log.Logger) *WebAudio {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &WebAudio{logger: logger}
}

// NewContext creates an AudioContext, falling back to webkitAudioContext.
func (w *WebAudio) NewContext() (Context, error) {
	audioCtx := js.Global.Get("AudioContext")
	if audioCtx == nil || audioCtx == js.Undefined {
		audioCtx = js.Global.Get("webkitAudioContext")
	}
	if audioCtx == nil || audioCtx == js.Undefined {
		return nil, ErrNoAudioContext
	}

	var ctx *js.Object
	if err := catchJS(func() { ctx = audioCtx.New() }); err != nil {
		return nil, fmt.Errorf("create audio context: %w", err)
	}
	return &webContext{obj: ctx, logger: w.logger}, nil
}

// NewElement creates an Audio element for url.
func (w *WebAudio) NewElement(url string) (Element, error) {
	ctor := js.Global.Get("Audio")
	if ctor == nil || ctor == js.Undefined {
		return nil, fmt.Errorf("create element: Audio is not available")
	}
	var obj *js.Object
	if err := catchJS(func() { obj = ctor.New(url) }); err != nil {
		return nil, fmt.Errorf("create element: %w", err)
	}
	return &webElement{obj: obj, url: url, logger: w.logger}, nil
}

// catchJS runs fn and converts a thrown JavaScript exception into an error.
func catchJS(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(*js.Error); ok {
				err = jsErr
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}

// jsNode is implemented by every graph vertex backed by a JavaScript object.
type jsNode interface {
	jsObject() *js.Object
}

func connectJS(src *js.Object, dst Node) error {
	target, ok := dst.(jsNode)
	if !ok {
		return fmt.Errorf("connect: %T is not a Web Audio node", dst)
	}
	return catchJS(func() { src.Call("connect", target.jsObject()) })
}

type webContext struct {
	obj    *js.Object
	logger *log.Logger
}

func (c *webContext) State() ContextState {
	return ContextState(c.obj.Get("state").String())
}

// Resume waits for the promise returned by AudioContext.resume.
func (c *webContext) Resume(ctx context.Context) error {
	done := make(chan error, 1)
	err := catchJS(func() {
		promise := c.obj.Call("resume")
		promise.Call("then", func() {
			done <- nil
		}, func(reason *js.Object) {
			done <- fmt.Errorf("resume rejected: %s", reason.String())
		})
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *webContext) Destination() Node {
	return &webNode{obj: c.obj.Get("destination")}
}

func (c *webContext) CreateGain() (GainNode, error) {
	var gain *js.Object
	if err := catchJS(func() { gain = c.obj.Call("createGain") }); err != nil {
		return nil, err
	}
	return &webGain{webNode{obj: gain}}, nil
}

func (c *webContext) CreateStereoPanner() (PannerNode, bool) {
	if c.obj.Get("createStereoPanner") == js.Undefined {
		return nil, false
	}
	var panner *js.Object
	if err := catchJS(func() { panner = c.obj.Call("createStereoPanner") }); err != nil {
		c.logger.Printf("audio: create stereo panner: %v", err)
		return nil, false
	}
	return &webPanner{webNode{obj: panner}}, true
}

func (c *webContext) CreateMediaElementSource(el Element) (Node, error) {
	media, ok := el.(*webElement)
	if !ok {
		return nil, fmt.Errorf("media source: %T is not an Audio element", el)
	}
	var source *js.Object
	if err := catchJS(func() { source = c.obj.Call("createMediaElementSource", media.obj) }); err != nil {
		return nil, err
	}
	return &webNode{obj: source}, nil
}

func (c *webContext) Close() error {
	return catchJS(func() {
		promise := c.obj.Call("close")
		promise.Call("catch", func(reason *js.Object) {
			c.logger.Printf("audio: close context: %s", reason.String())
		})
	})
}

type webNode struct {
	obj *js.Object
}

func (n *webNode) jsObject() *js.Object { return n.obj }

func (n *webNode) Connect(dst Node) error {
	return connectJS(n.obj, dst)
}

type webGain struct {
	webNode
}

func (g *webGain) SetGain(level float64) {
	g.obj.Get("gain").Set("value", level)
}

func (g *webGain) Gain() float64 {
	return g.obj.Get("gain").Get("value").Float()
}

type webPanner struct {
	webNode
}

func (p *webPanner) SetPan(pan float64) {
	p.obj.Get("pan").Set("value", pan)
}

// webElement wraps an HTMLAudioElement.
type webElement struct {
	obj    *js.Object
	url    string
	logger *log.Logger
}

func (e *webElement) SetPreload(mode string)       { e.obj.Set("preload", mode) }
func (e *webElement) SetVolume(volume float64)     { e.obj.Set("volume", volume) }
func (e *webElement) SetPlaybackRate(rate float64) { e.obj.Set("playbackRate", rate) }
func (e *webElement) SetLoop(loop bool)            { e.obj.Set("loop", loop) }

func (e *webElement) Paused() bool         { return e.obj.Get("paused").Bool() }
func (e *webElement) Ended() bool          { return e.obj.Get("ended").Bool() }
func (e *webElement) CurrentTime() float64 { return e.obj.Get("currentTime").Float() }

// Play starts playback. Autoplay rejections arrive through the returned
// promise and are only logged.
func (e *webElement) Play() error {
	return catchJS(func() {
		promise := e.obj.Call("play")
		if promise == nil || promise == js.Undefined {
			return
		}
		promise.Call("catch", func(reason *js.Object) {
			e.logger.Printf("audio: play %s rejected: %s", e.url, reason.String())
		})
	})
}

func (e *webElement) Pause() error {
	return catchJS(func() { e.obj.Call("pause") })
}

func (e *webElement) SetCurrentTime(seconds float64) error {
	return catchJS(func() { e.obj.Set("currentTime", seconds) })
}

func (e *webElement) OnEnded(fn func()) { e.listen("ended", fn) }
func (e *webElement) OnPause(fn func()) { e.listen("pause", fn) }

// listen runs fn on its own goroutine so it may block on engine locks.
func (e *webElement) listen(event string, fn func()) {
	e.obj.Call("addEventListener", event, func() {
		go fn()
	})
}
