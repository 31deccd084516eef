//go:build !js
// +build !js

package audio

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFormat = beep.Format{SampleRate: 22050, NumChannels: 2, Precision: 2}

// writeWAV writes samples frames of silence and returns the file path.
func writeWAV(t *testing.T, dir, name string, samples int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, wav.Encode(f, beep.Silence(samples), testFormat))
	return p
}

func TestSoundExt(t *testing.T) {
	tests := map[string]string{
		"./sounds/hit.ogg":                   ".ogg",
		"./sounds/HIT.WAV":                   ".wav",
		"https://cdn.example.com/a.mp3?v=3":  ".mp3",
		"https://cdn.example.com/a.oga#t=10": ".oga",
		"./sounds/noext":                     "",
		"./sounds.d/noext?x=y.mp3":           "",
	}
	for url, want := range tests {
		assert.Equal(t, want, soundExt(url), url)
	}
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, _, err := decode(".flac", io.NopCloser(strings.NewReader("fLaC")))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestOpenStream_LocalWAV(t *testing.T) {
	p := writeWAV(t, t.TempDir(), "hit.wav", 2205)

	s := NewSpeaker(nil)
	stream, format, err := s.openStream(p)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, testFormat.SampleRate, format.SampleRate)
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, 2205, stream.Len())
}

func TestOpenStream_MissingFile(t *testing.T) {
	s := NewSpeaker(nil)
	_, _, err := s.openStream(filepath.Join(t.TempDir(), "missing.wav"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenStream_CorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(p, []byte("not a wave file"), 0o644))

	s := NewSpeaker(nil)
	_, _, err := s.openStream(p)
	assert.Error(t, err)
}

func TestOpenStream_HTTP(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "theme.wav", 4410)
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	s := NewSpeaker(nil)
	stream, _, err := s.openStream(srv.URL + "/theme.wav?v=2")
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, 4410, stream.Len())

	_, _, err = s.openStream(srv.URL + "/missing.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenStream_OriginForRootedPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sounds"), 0o755))
	writeWAV(t, filepath.Join(dir, "sounds"), "click.wav", 100)
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	s := NewSpeaker(nil)
	s.Origin = srv.URL + "/"
	stream, _, err := s.openStream("/sounds/click.wav")
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, 100, stream.Len())
}

func TestSpeakerElement_PlayWithoutOutput(t *testing.T) {
	s := NewSpeaker(nil)
	el, err := s.NewElement("./sounds/hit.wav")
	require.NoError(t, err)

	assert.ErrorIs(t, el.Play(), ErrNoOutput)
	assert.True(t, el.Paused())
	assert.False(t, el.Ended())
	assert.Equal(t, 0.0, el.CurrentTime())
	assert.NoError(t, el.SetCurrentTime(0))
}

func TestSpeakerElement_PauseWhenIdle(t *testing.T) {
	s := NewSpeaker(nil)
	el, err := s.NewElement("./sounds/hit.wav")
	require.NoError(t, err)

	called := false
	el.OnPause(func() { called = true })
	require.NoError(t, el.Pause())
	assert.False(t, called)
}

func TestSpeakerContext_MediaSourceOnce(t *testing.T) {
	s := NewSpeaker(nil)
	out := &speakerContext{platform: s, rate: speakerSampleRate, master: &beep.Mixer{}}
	el, err := s.NewElement("./sounds/hit.wav")
	require.NoError(t, err)

	_, err = out.CreateMediaElementSource(el)
	require.NoError(t, err)
	_, err = out.CreateMediaElementSource(el)
	assert.Error(t, err)
}
