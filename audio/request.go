package audio

import "math"

// Request defaults, on the 0-100 scales the game server uses.
const (
	DefaultSoundVolume = 100
	DefaultSoundPitch  = 100
	DefaultSoundPan    = 0
)

// Playback rate bounds for sound effects.
const (
	MinPlaybackRate = 0.5
	MaxPlaybackRate = 2.0
)

// SoundRequest asks for a one-shot sound effect.
type SoundRequest struct {
	Name   string
	Volume float64 // 0-100
	Pitch  float64 // 0-100, 100 is normal speed
	Pan    float64 // -100 (left) to 100 (right)
}

// NewSoundRequest returns a request for name with default volume, pitch and pan.
func NewSoundRequest(name string) SoundRequest {
	return SoundRequest{
		Name:   name,
		Volume: DefaultSoundVolume,
		Pitch:  DefaultSoundPitch,
		Pan:    DefaultSoundPan,
	}
}

// Gain returns the element volume in [0, 1].
func (r SoundRequest) Gain() float64 {
	return clamp(orDefault(r.Volume, DefaultSoundVolume)/100, 0, 1)
}

// PlaybackRate returns the element rate in [MinPlaybackRate, MaxPlaybackRate].
func (r SoundRequest) PlaybackRate() float64 {
	return clamp(orDefault(r.Pitch, DefaultSoundPitch)/100, MinPlaybackRate, MaxPlaybackRate)
}

// StereoPan returns the pan scaled to [-1, 1].
func (r SoundRequest) StereoPan() float64 {
	return clamp(orDefault(r.Pan, DefaultSoundPan)/100, -1, 1)
}

// MusicRequest asks for a background track.
type MusicRequest struct {
	Name    string
	Looping bool
}

// NewMusicRequest returns a looping request for name.
func NewMusicRequest(name string) MusicRequest {
	return MusicRequest{Name: name, Looping: true}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// orDefault replaces NaN, which no platform accepts as a volume or rate.
func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}
