package audio

import (
	"context"
	"io"
	"log"
	"sync"
)

// Initial bus levels.
const (
	DefaultEffectsVolume  = 1.0
	DefaultMusicVolume    = 0.2
	DefaultAmbienceVolume = 1.0
)

// Bus names a volume bus.
type Bus int

const (
	BusEffects Bus = iota
	BusMusic
	BusAmbience
)

func (b Bus) String() string {
	switch b {
	case BusEffects:
		return "effects"
	case BusMusic:
		return "music"
	case BusAmbience:
		return "ambience"
	default:
		return "unknown"
	}
}

// ParseBus returns the bus called name.
func ParseBus(name string) (Bus, bool) {
	for _, b := range []Bus{BusEffects, BusMusic, BusAmbience} {
		if b.String() == name {
			return b, true
		}
	}
	return 0, false
}

// MusicState is the state of the music track.
type MusicState int

const (
	MusicIdle MusicState = iota
	MusicPlaying
	MusicPaused
)

func (s MusicState) String() string {
	switch s {
	case MusicPlaying:
		return "playing"
	case MusicPaused:
		return "paused"
	default:
		return "idle"
	}
}

// Config configures an Engine.
type Config struct {
	// SoundBaseURL is the prefix for relative sound names. Defaults to
	// DefaultSoundBaseURL.
	SoundBaseURL string
	// Logger receives swallowed platform failures. Nil discards them.
	Logger *log.Logger
}

// Status is a snapshot of the engine bookkeeping.
type Status struct {
	Context       ContextState // empty without an audio context
	ActiveEffects int
	Music         string
	MusicLooping  bool
	MusicState    MusicState
	Closed        bool
}

// Engine plays sound effects and music through three gain buses.
//
// Platform failures never reach the caller: each one is logged and the
// operation carries on, so a missing or blocked audio device only makes the
// game silent.
type Engine struct {
	mu       sync.Mutex
	platform Platform
	baseURL  string
	logger   *log.Logger

	ctx      Context
	effects  GainNode
	music    GainNode
	ambience GainNode

	activeEffects       map[Element]struct{}
	currentMusic        Element
	currentMusicName    string
	currentMusicLooping bool
	closed              bool
}

// New creates an engine on platform. Without an audio context the engine
// runs with default device routing and no bus control.
func New(platform Platform, cfg Config) *Engine {
	e := &Engine{
		platform:            platform,
		baseURL:             cfg.SoundBaseURL,
		logger:              cfg.Logger,
		activeEffects:       make(map[Element]struct{}),
		currentMusicLooping: true,
	}
	if e.baseURL == "" {
		e.baseURL = DefaultSoundBaseURL
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}

	ctx, err := platform.NewContext()
	if err != nil || ctx == nil {
		e.logger.Printf("audio: no audio context, running without buses: %v", err)
		return e
	}
	e.ctx = ctx
	e.effects = e.newBus(BusEffects, DefaultEffectsVolume)
	e.music = e.newBus(BusMusic, DefaultMusicVolume)
	e.ambience = e.newBus(BusAmbience, DefaultAmbienceVolume)
	return e
}

// newBus creates a gain node wired to the context output. It returns nil
// when the platform refuses, leaving that bus on default routing.
func (e *Engine) newBus(bus Bus, level float64) GainNode {
	gain, err := e.ctx.CreateGain()
	if err != nil {
		e.logger.Printf("audio: create %s bus: %v", bus, err)
		return nil
	}
	gain.SetGain(level)
	if err := gain.Connect(e.ctx.Destination()); err != nil {
		e.logger.Printf("audio: connect %s bus: %v", bus, err)
		return nil
	}
	return gain
}

// SoundBaseURL returns the prefix used for relative sound names.
func (e *Engine) SoundBaseURL() string {
	return e.baseURL
}

// Unlock resumes a suspended audio context. Browsers only honour this from
// a user gesture. It reports whether the context is running afterwards.
func (e *Engine) Unlock(ctx context.Context) bool {
	e.mu.Lock()
	ac := e.ctx
	e.mu.Unlock()
	if ac == nil {
		return false
	}

	if ac.State() != StateRunning {
		if err := ac.Resume(ctx); err != nil {
			e.logger.Printf("audio: resume context: %v", err)
		}
	}
	return ac.State() == StateRunning
}

// connectElement routes el through bus, with a stereo panner in between
// when the platform supports one. Without a context or bus the element
// keeps default device routing.
func (e *Engine) connectElement(el Element, bus GainNode, pan float64) error {
	if e.ctx == nil || bus == nil {
		return nil
	}

	source, err := e.ctx.CreateMediaElementSource(el)
	if err != nil {
		return err
	}
	if panner, ok := e.ctx.CreateStereoPanner(); ok {
		panner.SetPan(clamp(pan, -1, 1))
		if err := source.Connect(panner); err != nil {
			return err
		}
		return panner.Connect(bus)
	}
	return source.Connect(bus)
}

// PlaySound starts a sound effect. The instance is tracked until it ends or
// is stopped.
func (e *Engine) PlaySound(req SoundRequest) {
	url := SoundURL(req.Name, e.baseURL)
	if url == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	el, err := e.platform.NewElement(url)
	if err != nil {
		e.logger.Printf("audio: create element for %s: %v", url, err)
		return
	}
	el.SetPreload("auto")
	el.SetVolume(req.Gain())
	el.SetPlaybackRate(req.PlaybackRate())

	e.activeEffects[el] = struct{}{}
	el.OnEnded(func() {
		e.forgetEffect(el)
	})
	el.OnPause(func() {
		// Only a pause at the start (a stop) or after the end retires
		// the instance.
		if el.CurrentTime() == 0 || el.Ended() {
			e.forgetEffect(el)
		}
	})

	if err := e.connectElement(el, e.effects, req.StereoPan()); err != nil {
		e.logger.Printf("audio: route %s: %v", url, err)
		return
	}
	if err := el.Play(); err != nil {
		e.logger.Printf("audio: play %s: %v", url, err)
	}
}

func (e *Engine) forgetEffect(el Element) {
	e.mu.Lock()
	delete(e.activeEffects, el)
	e.mu.Unlock()
}

// PlayMusic starts a background track, replacing the current one. Asking
// for the track that is already set up only resumes it if paused.
func (e *Engine) PlayMusic(req MusicRequest) {
	url := SoundURL(req.Name, e.baseURL)
	if url == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	if e.currentMusic != nil && e.currentMusicName == req.Name && e.currentMusicLooping == req.Looping {
		if e.currentMusic.Paused() {
			if err := e.currentMusic.Play(); err != nil {
				e.logger.Printf("audio: resume music %s: %v", url, err)
			}
		}
		return
	}

	e.stopMusicLocked()

	el, err := e.platform.NewElement(url)
	if err != nil {
		e.logger.Printf("audio: create element for %s: %v", url, err)
		return
	}
	el.SetPreload("auto")
	el.SetLoop(req.Looping)
	el.SetVolume(1.0)

	if err := e.connectElement(el, e.music, 0); err != nil {
		e.logger.Printf("audio: route music %s: %v", url, err)
	} else if err := el.Play(); err != nil {
		e.logger.Printf("audio: play music %s: %v", url, err)
	}

	// Tracked even when playback failed: a repeat request resumes this
	// instance instead of creating another one.
	e.currentMusic = el
	e.currentMusicName = req.Name
	e.currentMusicLooping = req.Looping
}

// StopMusic stops the current track and forgets it.
func (e *Engine) StopMusic() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopMusicLocked()
}

func (e *Engine) stopMusicLocked() {
	if e.currentMusic == nil {
		return
	}
	if err := stopElement(e.currentMusic); err != nil {
		e.logger.Printf("audio: stop music %s: %v", e.currentMusicName, err)
	}
	e.currentMusic = nil
	e.currentMusicName = ""
	e.currentMusicLooping = true
}

// StopAll stops the music and every tracked sound effect.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAllLocked()
}

func (e *Engine) stopAllLocked() {
	e.stopMusicLocked()
	for el := range e.activeEffects {
		if err := stopElement(el); err != nil {
			e.logger.Printf("audio: stop effect: %v", err)
		}
	}
	e.activeEffects = make(map[Element]struct{})
}

// stopElement pauses el and rewinds it to the start.
func stopElement(el Element) error {
	if err := el.Pause(); err != nil {
		return err
	}
	return el.SetCurrentTime(0)
}

func (e *Engine) bus(b Bus) GainNode {
	switch b {
	case BusEffects:
		return e.effects
	case BusMusic:
		return e.music
	case BusAmbience:
		return e.ambience
	default:
		return nil
	}
}

// SetVolume sets the gain of bus, clamped to [0, 1].
func (e *Engine) SetVolume(b Bus, level float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gain := e.bus(b); gain != nil {
		gain.SetGain(clamp(orDefault(level, gain.Gain()), 0, 1))
	}
}

// Volume returns the gain of bus, or 0 when the bus does not exist.
func (e *Engine) Volume(b Bus) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gain := e.bus(b); gain != nil {
		return gain.Gain()
	}
	return 0
}

// Status returns a snapshot of the engine bookkeeping.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		ActiveEffects: len(e.activeEffects),
		Music:         e.currentMusicName,
		MusicLooping:  e.currentMusicLooping,
		Closed:        e.closed,
	}
	if e.ctx != nil {
		st.Context = e.ctx.State()
	}
	switch {
	case e.currentMusic == nil:
		st.MusicState = MusicIdle
	case e.currentMusic.Paused():
		st.MusicState = MusicPaused
	default:
		st.MusicState = MusicPlaying
	}
	return st
}

// Close stops everything and releases the audio context. The engine is
// inert afterwards. Close is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.stopAllLocked()
	e.closed = true

	ctx := e.ctx
	e.ctx = nil
	e.effects, e.music, e.ambience = nil, nil, nil
	if ctx == nil {
		return nil
	}
	return ctx.Close()
}
