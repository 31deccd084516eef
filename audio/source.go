//go:build !js
// +build !js

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat is returned for sound files the speaker cannot decode.
var ErrUnsupportedFormat = errors.New("audio: unsupported sound format")

// openStream reads and decodes the sound at url.
func (s *Speaker) openStream(url string) (beep.StreamSeekCloser, beep.Format, error) {
	rc, err := s.open(url)
	if err != nil {
		return nil, beep.Format{}, err
	}
	stream, format, err := decode(soundExt(url), rc)
	if err != nil {
		rc.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", url, err)
	}
	return stream, format, nil
}

// open loads url into memory: a GET for http(s) URLs and for absolute
// paths when Origin is set, the file system otherwise. Elements are never
// closed by the engine, so nothing is left holding a descriptor.
func (s *Speaker) open(url string) (io.ReadCloser, error) {
	switch {
	case IsAbsoluteURL(url):
		return s.fetch(url)
	case strings.HasPrefix(url, "/") && s.Origin != "":
		return s.fetch(strings.TrimRight(s.Origin, "/") + url)
	}

	data, err := os.ReadFile(filepath.FromSlash(url))
	if err != nil {
		return nil, fmt.Errorf("open sound: %w", err)
	}
	return memFile{bytes.NewReader(data)}, nil
}

func (s *Speaker) fetch(url string) (io.ReadCloser, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch sound: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sound %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch sound %s: %w", url, err)
	}
	return memFile{bytes.NewReader(data)}, nil
}

// memFile is a seekable in-memory sound; decoders only Seek on io.Seekers.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// soundExt returns the lower-case extension of url, ignoring any query or
// fragment.
func soundExt(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return strings.ToLower(path.Ext(url))
}

func decode(ext string, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext {
	case ".wav":
		return wav.Decode(rc)
	case ".mp3":
		return mp3.Decode(rc)
	case ".ogg", ".oga":
		return vorbis.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
