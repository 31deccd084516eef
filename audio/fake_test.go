package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// fakePlatform records every platform call. Element listeners are queued
// and only run on flush, the way a browser delivers media events after the
// current task.
type fakePlatform struct {
	mu       sync.Mutex
	ctx      *fakeContext
	ctxErr   error
	elemErr  error
	playErr  error
	elements []*fakeElement
	calls    []string
	pending  []func()
}

func newFakePlatform() *fakePlatform {
	p := &fakePlatform{}
	p.ctx = &fakeContext{
		platform: p,
		state:    StateSuspended,
		resumeTo: StateRunning,
		panning:  true,
		wrapped:  make(map[*fakeElement]bool),
	}
	return p
}

func (p *fakePlatform) NewContext() (Context, error) {
	if p.ctxErr != nil {
		return nil, p.ctxErr
	}
	return p.ctx, nil
}

func (p *fakePlatform) NewElement(url string) (Element, error) {
	if p.elemErr != nil {
		return nil, p.elemErr
	}
	el := &fakeElement{platform: p, url: url, paused: true, volume: 1, rate: 1, playErr: p.playErr}
	p.elements = append(p.elements, el)
	p.record("new %s", url)
	return el, nil
}

func (p *fakePlatform) record(format string, args ...interface{}) {
	p.mu.Lock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	p.mu.Unlock()
}

func (p *fakePlatform) queue(listeners []func()) {
	p.mu.Lock()
	p.pending = append(p.pending, listeners...)
	p.mu.Unlock()
}

// flush delivers queued events, including any they queue in turn.
func (p *fakePlatform) flush() {
	for {
		p.mu.Lock()
		pending := p.pending
		p.pending = nil
		p.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, fn := range pending {
			fn()
		}
	}
}

func (p *fakePlatform) last() *fakeElement {
	if len(p.elements) == 0 {
		return nil
	}
	return p.elements[len(p.elements)-1]
}

type fakeContext struct {
	platform  *fakePlatform
	state     ContextState
	resumeTo  ContextState
	resumeErr error
	resumes   int
	panning   bool
	gainErr   error
	gains     []*fakeGain
	panners   []*fakePanner
	wrapped   map[*fakeElement]bool
	edges     []string
	closed    int
}

func (c *fakeContext) State() ContextState { return c.state }

func (c *fakeContext) Resume(ctx context.Context) error {
	c.resumes++
	if c.resumeErr != nil {
		return c.resumeErr
	}
	c.state = c.resumeTo
	return ctx.Err()
}

func (c *fakeContext) Destination() Node {
	return &fakeNode{ctx: c, name: "destination"}
}

func (c *fakeContext) CreateGain() (GainNode, error) {
	if c.gainErr != nil {
		return nil, c.gainErr
	}
	g := &fakeGain{fakeNode: fakeNode{ctx: c, name: fmt.Sprintf("gain%d", len(c.gains))}, level: 1}
	c.gains = append(c.gains, g)
	return g, nil
}

func (c *fakeContext) CreateStereoPanner() (PannerNode, bool) {
	if !c.panning {
		return nil, false
	}
	p := &fakePanner{fakeNode: fakeNode{ctx: c, name: fmt.Sprintf("panner%d", len(c.panners))}}
	c.panners = append(c.panners, p)
	return p, true
}

func (c *fakeContext) CreateMediaElementSource(el Element) (Node, error) {
	media := el.(*fakeElement)
	if c.wrapped[media] {
		return nil, errors.New("InvalidStateError: element already connected")
	}
	c.wrapped[media] = true
	return &fakeNode{ctx: c, name: "source:" + media.url}, nil
}

func (c *fakeContext) Close() error {
	c.closed++
	c.state = StateClosed
	return nil
}

type named interface {
	nodeName() string
}

type fakeNode struct {
	ctx  *fakeContext
	name string
}

func (n *fakeNode) nodeName() string { return n.name }

func (n *fakeNode) Connect(dst Node) error {
	n.ctx.edges = append(n.ctx.edges, n.name+"->"+dst.(named).nodeName())
	return nil
}

type fakeGain struct {
	fakeNode
	level float64
}

func (g *fakeGain) SetGain(level float64) { g.level = level }
func (g *fakeGain) Gain() float64         { return g.level }

type fakePanner struct {
	fakeNode
	pan float64
}

func (p *fakePanner) SetPan(pan float64) { p.pan = pan }

type fakeElement struct {
	platform *fakePlatform
	url      string

	preload     string
	volume      float64
	rate        float64
	loop        bool
	paused      bool
	ended       bool
	currentTime float64

	playErr  error
	pauseErr error
	plays    int
	pauses   int

	onEnded []func()
	onPause []func()
}

func (e *fakeElement) SetPreload(mode string)       { e.preload = mode }
func (e *fakeElement) SetVolume(volume float64)     { e.volume = volume }
func (e *fakeElement) SetPlaybackRate(rate float64) { e.rate = rate }
func (e *fakeElement) SetLoop(loop bool)            { e.loop = loop }
func (e *fakeElement) Paused() bool                 { return e.paused }
func (e *fakeElement) Ended() bool                  { return e.ended }
func (e *fakeElement) CurrentTime() float64         { return e.currentTime }
func (e *fakeElement) OnEnded(fn func())            { e.onEnded = append(e.onEnded, fn) }
func (e *fakeElement) OnPause(fn func())            { e.onPause = append(e.onPause, fn) }

func (e *fakeElement) Play() error {
	e.plays++
	e.platform.record("play %s", e.url)
	if e.playErr != nil {
		return e.playErr
	}
	e.paused = false
	e.ended = false
	return nil
}

func (e *fakeElement) Pause() error {
	e.pauses++
	e.platform.record("pause %s", e.url)
	if e.pauseErr != nil {
		return e.pauseErr
	}
	if !e.paused {
		e.paused = true
		e.platform.queue(e.onPause)
	}
	return nil
}

func (e *fakeElement) SetCurrentTime(seconds float64) error {
	e.platform.record("seek %s %g", e.url, seconds)
	e.currentTime = seconds
	return nil
}

// advance simulates playback progress.
func (e *fakeElement) advance(seconds float64) {
	e.currentTime += seconds
}

// finish simulates the media reaching its end.
func (e *fakeElement) finish() {
	e.paused = true
	e.ended = true
	e.platform.queue(e.onPause)
	e.platform.queue(e.onEnded)
}
