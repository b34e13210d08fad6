package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GeoffreyPlitt/debuggo"
	"golang.org/x/sync/errgroup"

	"golivereverb"
)

var debug = debuggo.Debug("livereverb:cmd")

// errStopped ends a session without reporting a failure
var errStopped = errors.New("stopped")

type stream interface {
	Start() error
	Stop() error
	Close() error
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: golivereverb <command> [flags]

commands:
  live     microphone -> reverb -> speakers through JACK (build with -tags jack)
  play     audio file -> reverb -> speakers through oto (build with -tags oto)
  render   audio file -> reverb -> WAV file

keys while running: g/G gain, w/W wet/dry, d/D decay, l/L delay length, q stop
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	mode := os.Args[1]

	cfg := golivereverb.DefaultConfig()
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	fs.IntVar(&cfg.SampleRate, "rate", cfg.SampleRate, "sample rate in Hz (render and play use the file's rate)")
	fs.IntVar(&cfg.BlockSize, "block", cfg.BlockSize, "samples per block")
	fs.Float64Var(&cfg.Gain, "gain", cfg.Gain, "output gain (0.1-5.0)")
	fs.Float64Var(&cfg.WetDry, "wet", cfg.WetDry, "wet/dry mix (0.0-1.0)")
	fs.Float64Var(&cfg.Decay, "decay", cfg.Decay, "feedback decay (0.0-0.95)")
	fs.IntVar(&cfg.DelayLength, "delay", cfg.DelayLength, "delay length in samples (515-44100)")
	inPath := fs.String("in", "", "input audio file (.wav, .flac, .mp3, .ogg)")
	outPath := fs.String("out", "", "output WAV file for render")
	loop := fs.Bool("loop", false, "repeat the input file when playing")
	clientName := fs.String("client", "golivereverb", "JACK client name")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode {
	case "live":
		err = runLive(ctx, cfg, *clientName)
	case "play":
		err = runPlay(ctx, cfg, *inPath, *loop)
	case "render":
		err = runRender(cfg, *inPath, *outPath)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "golivereverb: %v\n", err)
		os.Exit(1)
	}
}

func runLive(ctx context.Context, cfg golivereverb.Config, clientName string) error {
	bridge, err := cfg.NewBridge()
	if err != nil {
		return err
	}
	js, err := golivereverb.NewJackStream(bridge, clientName)
	if err != nil {
		return err
	}
	if rate := js.SampleRate(); rate != cfg.SampleRate {
		debug("JACK runs at %d Hz, requested %d Hz", rate, cfg.SampleRate)
	}
	return runSession(ctx, bridge, js, nil)
}

func runPlay(ctx context.Context, cfg golivereverb.Config, inPath string, loop bool) error {
	if inPath == "" {
		return errors.New("play needs -in")
	}
	clip, err := golivereverb.LoadClip(inPath)
	if err != nil {
		return err
	}
	cfg.SampleRate = clip.SampleRate
	bridge, err := cfg.NewBridge()
	if err != nil {
		return err
	}
	player, err := golivereverb.NewOtoStream(bridge, clip, loop)
	if err != nil {
		return err
	}
	return runSession(ctx, bridge, player, player.Done())
}

func runRender(cfg golivereverb.Config, inPath, outPath string) error {
	if inPath == "" || outPath == "" {
		return errors.New("render needs -in and -out")
	}
	clip, err := golivereverb.RenderFile(inPath, outPath, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%.2fs at %d Hz)\n", outPath, clip.Duration(), clip.SampleRate)
	return nil
}

// runSession starts s and keeps it running alongside the status logger, the
// control surface and the level meter until one of them stops, done is closed or
// ctx is cancelled. The stream is always stopped and closed before returning.
func runSession(ctx context.Context, bridge *golivereverb.AudioBridge, s stream, done <-chan struct{}) (err error) {
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if serr := s.Start(); serr != nil {
		return serr
	}
	debug("Stream started (block size %d)", bridge.BlockSize())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bridge.LogStatus(gctx) })

	controls := newControlSurface(bridge.Params(), os.Stdin)
	g.Go(func() error { return controls.Run(gctx) })

	meter := newLevelMeter(bridge, os.Stdout)
	g.Go(func() error { return meter.Run(gctx) })

	if done != nil {
		g.Go(func() error {
			select {
			case <-done:
				return errStopped
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err = g.Wait()
	if serr := s.Stop(); serr != nil {
		debug("Failed to stop stream: %v", serr)
	}

	stats := bridge.Stats()
	debug("Session ended: %d blocks, %d status events (%d dropped), %d delay swaps",
		stats.Blocks, stats.StatusEvents, stats.DroppedStatus, stats.DelaySwaps)

	if errors.Is(err, errStopped) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
