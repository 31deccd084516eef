//go:build !js
// +build !js

package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	speakerSampleRate = beep.SampleRate(44100)
	speakerBuffer     = 100 * time.Millisecond
	resampleQuality   = 4
)

var (
	// ErrNoOutput is returned by Element.Play when no speaker is open.
	ErrNoOutput = errors.New("audio: no speaker output")
	// ErrClosed is returned when a closed speaker context is used.
	ErrClosed = errors.New("audio: speaker closed")
)

// speakerDevice is the process-wide beep speaker. beep cannot initialize
// it twice, so it is opened once and only cleared afterwards.
type speakerDevice struct {
	once sync.Once
	err  error

	init  func(rate beep.SampleRate, bufferSize int) error
	play  func(s ...beep.Streamer)
	clear func()
}

var defaultDevice = &speakerDevice{
	init:  speaker.Init,
	play:  speaker.Play,
	clear: speaker.Clear,
}

func (d *speakerDevice) open() error {
	d.once.Do(func() {
		d.err = d.init(speakerSampleRate, speakerSampleRate.N(speakerBuffer))
	})
	return d.err
}

// Speaker is the native platform, backed by the beep speaker. At most one
// context is open at a time; closing it frees the speaker for the next one.
type Speaker struct {
	// Origin is prepended to absolute paths ("/sounds/x.ogg") so they are
	// fetched over HTTP. Empty means they are read from disk.
	Origin string

	logger *log.Logger
	client *http.Client
	device *speakerDevice

	mu  sync.Mutex
	out *speakerContext
}

// NewSpeaker creates the native platform. A nil logger discards messages.
func NewSpeaker(logger *log.Logger) *Speaker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Speaker{
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
		device: defaultDevice,
	}
}

// NewContext opens the speaker. A second call returns the open context.
func (s *Speaker) NewContext() (Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		return s.out, nil
	}

	if err := s.device.open(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAudioContext, err)
	}
	out := &speakerContext{
		platform: s,
		rate:     speakerSampleRate,
		master:   &beep.Mixer{},
	}
	s.device.play(out.master)
	s.out = out
	return out, nil
}

// NewElement creates an element for url. Nothing is read until Play.
func (s *Speaker) NewElement(url string) (Element, error) {
	return &speakerElement{
		platform: s,
		url:      url,
		volume:   1,
		rate:     1,
		paused:   true,
	}, nil
}

func (s *Speaker) output() *speakerContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

func (s *Speaker) release(out *speakerContext) {
	s.mu.Lock()
	if s.out == out {
		s.out = nil
	}
	s.mu.Unlock()
}

// sink receives streams routed into a node.
type sink interface {
	attach(s beep.Streamer) error
}

type speakerContext struct {
	platform *Speaker
	rate     beep.SampleRate
	master   *beep.Mixer

	mu     sync.Mutex
	closed bool
}

func (c *speakerContext) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return StateClosed
	}
	return StateRunning
}

// Resume is a no-op: the speaker starts running.
func (c *speakerContext) Resume(ctx context.Context) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	return ctx.Err()
}

func (c *speakerContext) Destination() Node {
	return &speakerDestination{out: c}
}

func (c *speakerContext) CreateGain() (GainNode, error) {
	if c.State() == StateClosed {
		return nil, ErrClosed
	}
	mixer := &beep.Mixer{}
	return &speakerGain{
		mixer: mixer,
		gain:  &effects.Gain{Streamer: mixer},
		level: 1,
	}, nil
}

func (c *speakerContext) CreateStereoPanner() (PannerNode, bool) {
	return &speakerPanner{}, true
}

func (c *speakerContext) CreateMediaElementSource(el Element) (Node, error) {
	media, ok := el.(*speakerElement)
	if !ok {
		return nil, fmt.Errorf("media source: %T is not a speaker element", el)
	}
	media.mu.Lock()
	defer media.mu.Unlock()
	if media.wrapped {
		return nil, fmt.Errorf("media source: %s is already connected", media.url)
	}
	media.wrapped = true
	return &speakerSource{el: media}, nil
}

func (c *speakerContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	// The device stays open for the next context.
	c.platform.device.clear()
	c.platform.release(c)
	return nil
}

func (c *speakerContext) attach(s beep.Streamer) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	speaker.Lock()
	c.master.Add(s)
	speaker.Unlock()
	return nil
}

func asSink(dst Node) (sink, error) {
	target, ok := dst.(sink)
	if !ok {
		return nil, fmt.Errorf("connect: %T is not a speaker node", dst)
	}
	return target, nil
}

type speakerDestination struct {
	out *speakerContext
}

func (d *speakerDestination) Connect(Node) error {
	return fmt.Errorf("connect: destination has no outputs")
}

func (d *speakerDestination) attach(s beep.Streamer) error {
	return d.out.attach(s)
}

// speakerGain is a bus: a mixer scaled by a linear gain.
type speakerGain struct {
	mixer *beep.Mixer
	gain  *effects.Gain
	level float64
}

func (g *speakerGain) Connect(dst Node) error {
	target, err := asSink(dst)
	if err != nil {
		return err
	}
	return target.attach(g.gain)
}

func (g *speakerGain) SetGain(level float64) {
	speaker.Lock()
	g.level = level
	g.gain.Gain = level - 1
	speaker.Unlock()
}

func (g *speakerGain) Gain() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	return g.level
}

func (g *speakerGain) attach(s beep.Streamer) error {
	speaker.Lock()
	g.mixer.Add(s)
	speaker.Unlock()
	return nil
}

type speakerPanner struct {
	mu  sync.Mutex
	pan float64
	out sink
}

func (p *speakerPanner) Connect(dst Node) error {
	target, err := asSink(dst)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.out = target
	p.mu.Unlock()
	return nil
}

func (p *speakerPanner) SetPan(pan float64) {
	p.mu.Lock()
	p.pan = pan
	p.mu.Unlock()
}

func (p *speakerPanner) attach(s beep.Streamer) error {
	p.mu.Lock()
	out, pan := p.out, p.pan
	p.mu.Unlock()
	if out == nil {
		return fmt.Errorf("panner is not connected")
	}
	return out.attach(&effects.Pan{Streamer: s, Pan: pan})
}

type speakerSource struct {
	el *speakerElement
}

func (s *speakerSource) Connect(dst Node) error {
	target, err := asSink(dst)
	if err != nil {
		return err
	}
	s.el.mu.Lock()
	s.el.route = target
	s.el.mu.Unlock()
	return nil
}

// speakerElement decodes its source on first Play and streams it into its
// route, or straight into the speaker when it was never routed.
type speakerElement struct {
	platform *Speaker
	url      string

	mu         sync.Mutex
	preload    string
	volume     float64
	rate       float64
	loop       bool
	wrapped    bool
	route      sink
	loading    bool
	attached   bool
	generation int
	paused     bool
	ended      bool
	stream     beep.StreamSeekCloser
	format     beep.Format
	ctrl       *beep.Ctrl
	gain       *effects.Gain
	resampler  *beep.Resampler
	onEnded    []func()
	onPause    []func()
}

func (e *speakerElement) SetPreload(mode string) {
	e.mu.Lock()
	e.preload = mode
	e.mu.Unlock()
}

func (e *speakerElement) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
	if e.gain != nil {
		speaker.Lock()
		e.gain.Gain = volume - 1
		speaker.Unlock()
	}
}

func (e *speakerElement) SetPlaybackRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
	if e.resampler != nil {
		speaker.Lock()
		e.resampler.SetRatio(e.ratio())
		speaker.Unlock()
	}
}

// SetLoop applies from the next time the element is attached.
func (e *speakerElement) SetLoop(loop bool) {
	e.mu.Lock()
	e.loop = loop
	e.mu.Unlock()
}

func (e *speakerElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *speakerElement) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

func (e *speakerElement) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream == nil {
		return 0
	}
	speaker.Lock()
	pos := e.stream.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(pos).Seconds()
}

func (e *speakerElement) SetCurrentTime(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream == nil {
		return nil
	}
	pos := e.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if pos < 0 {
		pos = 0
	}
	if n := e.stream.Len(); pos > n {
		pos = n
	}
	speaker.Lock()
	err := e.stream.Seek(pos)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek %s: %w", e.url, err)
	}
	e.ended = false
	return nil
}

func (e *speakerElement) OnEnded(fn func()) {
	e.mu.Lock()
	e.onEnded = append(e.onEnded, fn)
	e.mu.Unlock()
}

func (e *speakerElement) OnPause(fn func()) {
	e.mu.Lock()
	e.onPause = append(e.onPause, fn)
	e.mu.Unlock()
}

// Play starts decoding on first use and resumes afterwards.
func (e *speakerElement) Play() error {
	out := e.platform.output()
	if out == nil {
		return ErrNoOutput
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false

	switch {
	case e.stream == nil:
		if !e.loading {
			e.loading = true
			go e.load(out)
		}
		return nil
	case e.attached:
		return nil
	}

	if e.ended {
		speaker.Lock()
		err := e.stream.Seek(0)
		speaker.Unlock()
		if err != nil {
			return fmt.Errorf("rewind %s: %w", e.url, err)
		}
		e.ended = false
	}
	return e.attachLocked(out)
}

// Pause detaches the stream from its route, keeping the position.
func (e *speakerElement) Pause() error {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return nil
	}
	e.paused = true
	if e.attached {
		speaker.Lock()
		e.ctrl.Streamer = nil
		speaker.Unlock()
		e.attached = false
		e.generation++
	}
	listeners := append([]func(){}, e.onPause...)
	e.mu.Unlock()

	go fire(listeners)
	return nil
}

func (e *speakerElement) load(out *speakerContext) {
	stream, format, err := e.platform.openStream(e.url)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.platform.logger.Printf("audio: load %s: %v", e.url, err)
		// Stopped at the start, like a media element with a bad source.
		// A later Play retries the load.
		if !e.paused {
			e.paused = true
			go fire(append([]func(){}, e.onPause...))
		}
		return
	}
	e.stream, e.format = stream, format
	if e.paused {
		return
	}
	if err := e.attachLocked(out); err != nil {
		e.platform.logger.Printf("audio: attach %s: %v", e.url, err)
	}
}

func (e *speakerElement) ratio() float64 {
	return e.rate * float64(e.format.SampleRate) / float64(speakerSampleRate)
}

// attachLocked builds the stream chain and hands it to the route.
func (e *speakerElement) attachLocked(out *speakerContext) error {
	var s beep.Streamer = e.stream
	if e.loop {
		s = beep.Loop(-1, e.stream)
	}
	e.resampler = beep.ResampleRatio(resampleQuality, e.ratio(), s)
	e.gain = &effects.Gain{Streamer: e.resampler, Gain: e.volume - 1}
	e.ctrl = &beep.Ctrl{Streamer: e.gain}
	generation := e.generation
	done := beep.Callback(func() {
		go e.finish(generation)
	})

	var target sink = out
	if e.route != nil {
		target = e.route
	}
	if err := target.attach(beep.Seq(e.ctrl, done)); err != nil {
		return err
	}
	e.attached = true
	return nil
}

// finish runs after the stream drains: the element reports a pause and
// then its end, like a media element reaching its end. A stream detached
// by Pause belongs to an older generation and is ignored.
func (e *speakerElement) finish(generation int) {
	e.mu.Lock()
	if generation != e.generation {
		e.mu.Unlock()
		return
	}
	e.generation++
	e.attached = false
	e.ended = true
	e.paused = true
	paused := append([]func(){}, e.onPause...)
	ended := append([]func(){}, e.onEnded...)
	e.mu.Unlock()

	fire(paused)
	fire(ended)
}

func fire(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}
