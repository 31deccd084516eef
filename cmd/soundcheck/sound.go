//go:build !js
// +build !js

package main

import (
	"fmt"
	"time"

	"github.com/simukka/tablesound/audio"
	"github.com/spf13/cobra"
)

var soundOpts struct {
	volume float64
	pitch  float64
	pan    float64
	wait   time.Duration
}

var soundCmd = &cobra.Command{
	Use:   "sound NAME",
	Short: "Play a sound effect",
	Long:  `Play one sound effect and wait for it to finish. NAME is resolved against the sound base URL unless it is an http(s) URL or starts with "/".`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSound,
}

func init() {
	flags := soundCmd.Flags()
	flags.Float64Var(&soundOpts.volume, "volume", audio.DefaultSoundVolume, "volume (0-100)")
	flags.Float64Var(&soundOpts.pitch, "pitch", audio.DefaultSoundPitch, "pitch (0-100, 100 is normal speed)")
	flags.Float64Var(&soundOpts.pan, "pan", audio.DefaultSoundPan, "pan (-100 left to 100 right)")
	flags.DurationVar(&soundOpts.wait, "wait", 10*time.Second, "give up waiting after this long")
	rootCmd.AddCommand(soundCmd)
}

func runSound(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	req := audio.SoundRequest{
		Name:   args[0],
		Volume: soundOpts.volume,
		Pitch:  soundOpts.pitch,
		Pan:    soundOpts.pan,
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (volume %.0f%%, rate %.2fx, pan %+.2f)\n",
		audio.SoundURL(req.Name, engine.SoundBaseURL()), req.Gain()*100, req.PlaybackRate(), req.StereoPan())

	engine.PlaySound(req)
	return waitEffects(cmd.Context(), engine, soundOpts.wait)
}
