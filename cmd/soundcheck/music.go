//go:build !js
// +build !js

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/simukka/tablesound/audio"
	"github.com/spf13/cobra"
)

var musicOpts struct {
	loop     bool
	duration time.Duration
}

var musicCmd = &cobra.Command{
	Use:   "music NAME",
	Short: "Play a music track",
	Long:  `Play a background track on the music bus until --duration passes, the track ends (with --loop=false) or the command is interrupted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMusic,
}

func init() {
	flags := musicCmd.Flags()
	flags.BoolVar(&musicOpts.loop, "loop", true, "loop the track")
	flags.DurationVar(&musicOpts.duration, "duration", 0, "stop after this long (0 plays until interrupted)")
	rootCmd.AddCommand(musicCmd)
}

func runMusic(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := cmd.Context()
	if musicOpts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, musicOpts.duration)
		defer cancel()
	}

	req := audio.MusicRequest{Name: args[0], Looping: musicOpts.loop}
	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (loop %t, music bus %.2f)\n",
		audio.SoundURL(req.Name, engine.SoundBaseURL()), req.Looping, engine.Volume(audio.BusMusic))
	engine.PlayMusic(req)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			engine.StopMusic()
			return nil
		case <-ticker.C:
			if engine.Status().MusicState != audio.MusicPlaying {
				return nil
			}
		}
	}
}
