package audio

import (
	"context"
	"errors"
)

// ErrNoAudioContext is returned by Platform.NewContext when the platform
// cannot produce an audio graph.
var ErrNoAudioContext = errors.New("audio: no audio context available")

// ContextState mirrors the AudioContext state strings.
type ContextState string

const (
	StateSuspended ContextState = "suspended"
	StateRunning   ContextState = "running"
	StateClosed    ContextState = "closed"
)

// Platform creates the audio primitives the engine drives.
type Platform interface {
	// NewContext returns an error when the platform has no audio support.
	NewContext() (Context, error)
	// NewElement creates a playable media element for url. Elements
	// must be usable without a context (default device routing).
	NewElement(url string) (Element, error)
}

// Context is an audio graph with a single final output.
type Context interface {
	State() ContextState
	// Resume asks the platform to leave the suspended state and waits
	// for its decision.
	Resume(ctx context.Context) error
	Destination() Node
	CreateGain() (GainNode, error)
	// CreateStereoPanner reports false when stereo panning is unsupported.
	CreateStereoPanner() (PannerNode, bool)
	// CreateMediaElementSource wraps el in a source node. An element can
	// only be wrapped once.
	CreateMediaElementSource(el Element) (Node, error)
	Close() error
}

// Node is a vertex in the audio graph.
type Node interface {
	Connect(dst Node) error
}

// GainNode scales everything routed through it.
type GainNode interface {
	Node
	SetGain(level float64)
	Gain() float64
}

// PannerNode places its input in the stereo field, -1 (left) to 1 (right).
type PannerNode interface {
	Node
	SetPan(pan float64)
}

// Element is a single playback instance.
//
// Listeners registered with OnEnded and OnPause are invoked asynchronously,
// never from inside a call made on the element or its context.
type Element interface {
	SetPreload(mode string)
	SetVolume(volume float64)
	SetPlaybackRate(rate float64)
	SetLoop(loop bool)
	// Play starts or resumes playback. Only synchronous failures are
	// returned; later rejections are absorbed by the backend.
	Play() error
	Pause() error
	Paused() bool
	Ended() bool
	CurrentTime() float64
	SetCurrentTime(seconds float64) error
	OnEnded(fn func())
	OnPause(fn func())
}
