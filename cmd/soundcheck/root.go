//go:build !js
// +build !js

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/simukka/tablesound/audio"
	"github.com/spf13/cobra"
)

var errNoDevice = errors.New("no audio output device")

var (
	cfgFile string
	cfg     Config
	v       = newViper()
	logger  = log.New(io.Discard, "", 0)
)

var rootCmd = &cobra.Command{
	Use:   "soundcheck",
	Short: "Play game sounds through the native audio engine",
	Long: `Play sound effects, music and recorded audio packets through the same
engine the browser client uses, backed by the system speaker.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./soundcheck.yaml)")
	flags.String("sound-base-url", audio.DefaultSoundBaseURL, "prefix for relative sound names")
	flags.String("origin", "", "host to fetch absolute /paths from")
	flags.Float64("effects-volume", audio.DefaultEffectsVolume, "effects bus level (0-1)")
	flags.Float64("music-volume", audio.DefaultMusicVolume, "music bus level (0-1)")
	flags.Float64("ambience-volume", audio.DefaultAmbienceVolume, "ambience bus level (0-1)")
	flags.BoolP("verbose", "v", false, "log audio failures to stderr")

	for key, flag := range map[string]string{
		"sound_base_url":  "sound-base-url",
		"origin":          "origin",
		"volume.effects":  "effects-volume",
		"volume.music":    "music-volume",
		"volume.ambience": "ambience-volume",
		"verbose":         "verbose",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	if cfg.Verbose {
		logger = log.New(os.Stderr, "soundcheck: ", log.Ltime|log.Lmicroseconds)
	}
	return nil
}

// newEngine opens the speaker and applies the configured bus levels.
func newEngine() (*audio.Engine, error) {
	sp := audio.NewSpeaker(logger)
	sp.Origin = cfg.Origin

	engine := audio.New(sp, audio.Config{
		SoundBaseURL: cfg.SoundBaseURL,
		Logger:       logger,
	})
	if engine.Status().Context != audio.StateRunning {
		_ = engine.Close()
		return nil, errNoDevice
	}
	cfg.apply(engine)
	return engine, nil
}

// waitEffects blocks until no sound effect is playing, ctx is done or
// timeout passes. A zero timeout only waits for ctx.
func waitEffects(ctx context.Context, engine *audio.Engine, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if engine.Status().ActiveEffects == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("sounds still playing after %s", timeout)
			}
			return nil
		case <-ticker.C:
		}
	}
}
