package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PacketType identifies what a packet asks the engine to do.
type PacketType string

const (
	PacketPlaySound PacketType = "play_sound"
	PacketPlayMusic PacketType = "play_music"
	PacketStopMusic PacketType = "stop_music"
	PacketStopAll   PacketType = "stop_all"
)

// ErrUnknownPacket is returned by Dispatch for packet types it cannot route.
var ErrUnknownPacket = errors.New("unknown audio packet type")

// Packet is a sound or music command as sent by the game-event layer.
// Name has the aliases Sound (effects) and Music (tracks).
type Packet struct {
	Type    PacketType `json:"type,omitempty"`
	Name    string     `json:"name,omitempty"`
	Sound   string     `json:"sound,omitempty"`
	Music   string     `json:"music,omitempty"`
	Volume  *float64   `json:"volume,omitempty"`
	Pitch   *float64   `json:"pitch,omitempty"`
	Pan     *float64   `json:"pan,omitempty"`
	Looping *bool      `json:"looping,omitempty"`
}

// ParsePacket decodes a JSON packet.
func ParsePacket(data []byte) (Packet, error) {
	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return Packet{}, fmt.Errorf("decode audio packet: %w", err)
	}
	return p, nil
}

// UnmarshalJSON accepts numbers or numeric strings for volume, pitch and
// pan. A value that is neither counts as absent.
func (p *Packet) UnmarshalJSON(data []byte) error {
	type plain Packet
	var raw struct {
		plain
		Volume json.RawMessage `json:"volume"`
		Pitch  json.RawMessage `json:"pitch"`
		Pan    json.RawMessage `json:"pan"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Packet(raw.plain)
	p.Volume = looseNumber(raw.Volume)
	p.Pitch = looseNumber(raw.Pitch)
	p.Pan = looseNumber(raw.Pan)
	return nil
}

func looseNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// SoundRequest resolves the packet into an effect request.
func (p Packet) SoundRequest() SoundRequest {
	name := p.Name
	if name == "" {
		name = p.Sound
	}
	req := NewSoundRequest(name)
	if p.Volume != nil {
		req.Volume = *p.Volume
	}
	if p.Pitch != nil {
		req.Pitch = *p.Pitch
	}
	if p.Pan != nil {
		req.Pan = *p.Pan
	}
	return req
}

// MusicRequest resolves the packet into a track request.
func (p Packet) MusicRequest() MusicRequest {
	name := p.Name
	if name == "" {
		name = p.Music
	}
	req := NewMusicRequest(name)
	if p.Looping != nil {
		req.Looping = *p.Looping
	}
	return req
}

// Dispatch routes p to the matching engine operation. Short type names
// ("sound", "music") are accepted as well.
func (e *Engine) Dispatch(p Packet) error {
	switch p.Type {
	case PacketPlaySound, "sound":
		e.PlaySound(p.SoundRequest())
	case PacketPlayMusic, "music":
		e.PlayMusic(p.MusicRequest())
	case PacketStopMusic:
		e.StopMusic()
	case PacketStopAll:
		e.StopAll()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPacket, p.Type)
	}
	return nil
}
