//go:build !js
// +build !js

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/simukka/tablesound/audio"
	"github.com/spf13/cobra"
)

var replayOpts struct {
	interval time.Duration
	wait     time.Duration
}

var replayCmd = &cobra.Command{
	Use:   "replay [FILE]",
	Short: "Replay recorded audio packets",
	Long: `Read newline-delimited JSON audio packets from FILE (stdin when omitted)
and dispatch each one, for example:

  {"type":"play_music","music":"theme.ogg"}
  {"type":"play_sound","sound":"laser.wav","volume":60,"pan":-40}
  {"type":"stop_all"}

Blank lines and lines starting with # are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	flags := replayCmd.Flags()
	flags.DurationVar(&replayOpts.interval, "interval", 250*time.Millisecond, "delay between packets")
	flags.DurationVar(&replayOpts.wait, "wait", 10*time.Second, "wait this long for effects after the last packet")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening packets: %w", err)
		}
		defer f.Close()
		in = f
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := replayPackets(cmd.Context(), in, engine, replayOpts.interval)
	fmt.Fprintf(cmd.OutOrStdout(), "Dispatched %d packets, skipped %d\n", stats.dispatched, stats.skipped)
	if err != nil {
		return err
	}
	return waitEffects(cmd.Context(), engine, replayOpts.wait)
}

// dispatcher is the part of the engine replay drives.
type dispatcher interface {
	Dispatch(p audio.Packet) error
}

type replayStats struct {
	dispatched int
	skipped    int
}

// replayPackets dispatches each packet line read from r, sleeping interval
// between dispatches. Malformed lines and unknown packet types are logged
// and skipped.
func replayPackets(ctx context.Context, r io.Reader, d dispatcher, interval time.Duration) (replayStats, error) {
	var stats replayStats
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}

		p, err := audio.ParsePacket(data)
		if err == nil {
			err = d.Dispatch(p)
		}
		if err != nil {
			logger.Printf("line %d: %v", line, err)
			stats.skipped++
			continue
		}
		stats.dispatched++

		if interval > 0 {
			select {
			case <-ctx.Done():
				return stats, nil
			case <-time.After(interval):
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading packets: %w", err)
	}
	return stats, nil
}
