//go:build js
// +build js

package main

import (
	"context"
	"log"

	"github.com/gopherjs/gopherjs/js"
	"github.com/simukka/tablesound/audio"
)

func main() {
	logger := log.New(consoleWriter{}, "", 0)

	// Expose the engine factory to page scripts
	js.Global.Set("createAudioEngine", func(options *js.Object) *js.Object {
		cfg := audio.Config{Logger: logger}
		if options != nil && options != js.Undefined {
			if base := options.Get("soundBaseUrl"); base != js.Undefined && base != nil {
				cfg.SoundBaseURL = base.String()
			}
		}
		return exposeEngine(audio.New(audio.NewWebAudio(logger), cfg), logger)
	})

	select {}
}

// exposeEngine wraps engine in the object page scripts call into.
func exposeEngine(engine *audio.Engine, logger *log.Logger) *js.Object {
	api := js.Global.Get("Object").New()
	api.Set("unlock", func() *js.Object {
		return newPromise(func(resolve func(interface{})) {
			resolve(engine.Unlock(context.Background()))
		})
	})
	api.Set("playSound", func(packet *js.Object) {
		engine.PlaySound(toPacket(packet, logger).SoundRequest())
	})
	api.Set("playMusic", func(packet *js.Object) {
		engine.PlayMusic(toPacket(packet, logger).MusicRequest())
	})
	api.Set("stopMusic", func() {
		engine.StopMusic()
	})
	api.Set("stopAll", func() {
		engine.StopAll()
	})
	api.Set("dispatch", func(packet *js.Object) bool {
		return engine.Dispatch(toPacket(packet, logger)) == nil
	})
	api.Set("setVolume", func(name string, level float64) {
		if bus, ok := audio.ParseBus(name); ok {
			engine.SetVolume(bus, level)
		}
	})
	api.Set("close", func() {
		if err := engine.Close(); err != nil {
			logger.Printf("audio: close: %v", err)
		}
	})
	return api
}

// toPacket converts a page-script packet object. Unknown shapes become an
// empty packet, which every operation ignores.
func toPacket(obj *js.Object, logger *log.Logger) audio.Packet {
	if obj == nil || obj == js.Undefined {
		return audio.Packet{}
	}
	data := js.Global.Get("JSON").Call("stringify", obj).String()
	p, err := audio.ParsePacket([]byte(data))
	if err != nil {
		logger.Printf("audio: dropping packet %s: %v", data, err)
		return audio.Packet{}
	}
	return p
}

// newPromise runs fn on a goroutine so it may block, settling a JS Promise.
func newPromise(fn func(resolve func(interface{}))) *js.Object {
	return js.Global.Get("Promise").New(func(resolve, reject *js.Object) {
		go fn(func(v interface{}) {
			resolve.Invoke(v)
		})
	})
}

// consoleWriter sends log output to console.debug.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	js.Global.Get("console").Call("debug", string(p))
	return len(p), nil
}
