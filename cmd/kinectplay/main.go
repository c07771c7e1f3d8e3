// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"kinectplay/pkg/config"
	"kinectplay/pkg/encoder"
	"kinectplay/pkg/ffmpeg"
	"kinectplay/pkg/frame"
	"kinectplay/pkg/log"
	"kinectplay/pkg/playback"
	"kinectplay/pkg/system"
	"kinectplay/pkg/wincache"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string

	realtimeWait bool
	color        bool
	depth        bool
	ir           bool

	depthMin int
	depthMax int
	irMin    int
	irMax    int

	saveVideo string
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "kinectplay <recording.mkv>",
		Short:         "Play back multiplexed depth camera recordings",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0])
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", defaultConfigPath(), "configuration file")
	cmd.Flags().BoolVar(&f.realtimeWait, "realtime-wait", true, "pace delivery against the wall clock, skipping stale frames")
	cmd.Flags().BoolVar(&f.color, "color", true, "enable the color channel")
	cmd.Flags().BoolVar(&f.depth, "depth", true, "enable the depth channel")
	cmd.Flags().BoolVar(&f.ir, "ir", true, "enable the infrared channel")
	cmd.Flags().IntVar(&f.depthMin, "depth-min", -1, "lower depth window bound, -1 for auto")
	cmd.Flags().IntVar(&f.depthMax, "depth-max", -1, "upper depth window bound, -1 for auto")
	cmd.Flags().IntVar(&f.irMin, "ir-min", -1, "lower infrared window bound, -1 for auto")
	cmd.Flags().IntVar(&f.irMax, "ir-max", -1, "upper infrared window bound, -1 for auto")
	cmd.Flags().StringVar(&f.saveVideo, "save-video", "", "encode the composited view to this file")

	cmd.AddCommand(logsCmd())
	return cmd
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "env.yaml"
	}
	return filepath.Join(home, ".kinectplay", "env.yaml")
}

func run(ctx context.Context, f flags, videoPath string) error {
	env, err := config.LoadEnv(f.configPath)
	if err != nil {
		return err
	}
	if err := env.PrepareEnvironment(); err != nil {
		return err
	}

	// Interrupt is a normal termination path and must still run
	// full cleanup.
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// The logger outlives the playback loop so final entries flush.
	logCtx, cancelLog := context.WithCancel(context.Background())
	defer cancelLog()

	wg := &sync.WaitGroup{}
	logger := log.NewLogger(wg)
	logger.Start(logCtx)
	go logger.LogToStdout(logCtx)

	logDB := log.NewDB(env.LogDBPath, wg)
	if err := logDB.Init(logCtx); err != nil {
		return err
	}
	go logDB.SaveLogs(logCtx, logger)

	err = play(ctx, f, env, videoPath, logger)

	cancelLog()
	wg.Wait()
	return err
}

func play(
	ctx context.Context,
	f flags,
	env *config.Env,
	videoPath string,
	logger *log.Logger,
) error {
	var sess *playback.Session

	event := func(level log.Level) *log.Event {
		switch level {
		case log.LevelError:
			return logger.Error()
		case log.LevelWarning:
			return logger.Warn()
		case log.LevelDebug:
			return logger.Debug()
		}
		return logger.Info()
	}
	logf := func(level log.Level, format string, a ...interface{}) {
		e := event(level).Src("playback")
		if sess != nil {
			e = e.Session(sess.ID())
		}
		e.Msgf(format, a...)
	}

	prober := ffmpeg.NewFFprobe(env.FFprobeBin)
	layout, err := playback.ResolveStreams(ctx, prober.Probe, videoPath)
	if err != nil {
		return err
	}

	// Caller-supplied window bounds are validated before playback starts.
	depthWin, err := newAutoWindow(f.depthMin, f.depthMax)
	if err != nil {
		return fmt.Errorf("depth window: %w", err)
	}
	irWin, err := newAutoWindow(f.irMin, f.irMax)
	if err != nil {
		return fmt.Errorf("ir window: %w", err)
	}

	cache, err := wincache.Open(env.WindowCachePath)
	if err != nil {
		logf(log.LevelWarning, "window cache unavailable: %v", err)
		cache = nil
	} else {
		defer cache.Close()
		seedWindows(cache, videoPath, depthWin, irWin, logf)
	}

	sess = playback.NewSession(videoPath, layout, playback.Config{
		Color:        f.color,
		Depth:        f.depth,
		IR:           f.ir,
		RealtimeWait: f.realtimeWait,
	}, env.FFmpegBin, logf)

	status := system.New(func(level log.Level, format string, a ...interface{}) {
		event(level).Src("system").Msgf(format, a...)
	})

	playCtx, cancelPlay := context.WithCancel(ctx)
	defer cancelPlay()

	g, gCtx := errgroup.WithContext(playCtx)

	g.Go(func() error {
		status.StatusLoop(gCtx)
		return nil
	})

	// Unblock any pending pipe read on interrupt.
	g.Go(func() error {
		<-gCtx.Done()
		sess.Stop()
		return nil
	})

	startTime := time.Now()

	g.Go(func() error {
		// Cancel the helpers once the loop exits on its own.
		defer cancelPlay()
		defer sess.Stop()
		return playLoop(f, env, videoPath, layout, sess, depthWin, irWin, cache, logf)
	})

	err = g.Wait()
	logf(log.LevelInfo, "time taken: %v", time.Since(startTime).Round(time.Millisecond))

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func playLoop(
	f flags,
	env *config.Env,
	videoPath string,
	layout *playback.StreamLayout,
	sess *playback.Session,
	depthWin *autoWindow,
	irWin *autoWindow,
	cache *wincache.Cache,
	logf playback.LogFunc,
) error {
	if err := sess.Start(); err != nil {
		return err
	}

	var writer *encoder.Writer
	defer func() {
		if writer != nil {
			if err := writer.Close(); err != nil {
				logf(log.LevelError, "close encoder: %v", err)
			}
		}
	}()

	for !sess.Done() {
		tuple, err := sess.Next()
		if err != nil {
			return err
		}
		if tuple.Empty() {
			break
		}

		var depthBGR, irBGR *frame.BGR24
		if tuple.Depth != nil {
			win := depthWin.update(tuple.Depth, "depth", logf)
			depthBGR = frame.GrayToBGR(frame.Normalize(tuple.Depth, win))
		}
		if tuple.IR != nil {
			win := irWin.update(tuple.IR, "ir", logf)
			irBGR = frame.GrayToBGR(frame.Normalize(tuple.IR, win))
		}

		combined, err := frame.Compose(tuple.Color, depthBGR, irBGR)
		if err != nil {
			return err
		}

		if f.saveVideo != "" && writer == nil {
			writer, err = newWriter(f, env, layout, combined, logf)
			if err != nil {
				return err
			}
		}
		if writer != nil {
			if err := writer.WriteFrame(combined); err != nil {
				return err
			}
		}
	}

	saveWindows(cache, videoPath, depthWin, irWin, logf)

	logf(log.LevelInfo, "depth min: %v, max: %v", depthWin.extrema.Min, depthWin.extrema.Max)
	logf(log.LevelInfo, "ir min: %v, max: %v", irWin.extrema.Min, irWin.extrema.Max)
	return nil
}

// newWriter spawns the encode sink once the composite dimensions are
// known from the first frame.
func newWriter(
	f flags,
	env *config.Env,
	layout *playback.StreamLayout,
	combined *frame.BGR24,
	logf playback.LogFunc,
) (*encoder.Writer, error) {
	outDir := filepath.Dir(f.saveVideo)
	if free, err := system.DiskSpace(outDir); err == nil && free < 100*1000*1000 {
		logf(log.LevelWarning, "less than 100MB free in %v", outDir)
	}

	writer, err := encoder.NewWriter(encoder.Config{
		FFmpegBin: env.FFmpegBin,
		Path:      f.saveVideo,
		Width:     combined.Rect.Dx(),
		Height:    combined.Rect.Dy(),
		FrameRate: layout.FrameRate,
		Preset:    env.EncodePreset,
	}, ffmpeg.NewProcess, func(msg string) {
		logf(log.FFmpegLevel(env.LogLevel), "encoder: %v", msg)
	})
	if err != nil {
		return nil, err
	}

	logf(log.LevelInfo, "encoding to %v", f.saveVideo)
	return writer, nil
}

// autoWindow tracks the visualization window for one 16-bit channel.
// Explicit bounds are fixed, auto bounds follow the running extrema.
type autoWindow struct {
	win     frame.Window
	autoMin bool
	autoMax bool
	extrema *frame.Extrema
}

func newAutoWindow(minFlag int, maxFlag int) (*autoWindow, error) {
	aw := &autoWindow{
		autoMin: minFlag < 0,
		autoMax: maxFlag < 0,
		extrema: frame.NewExtrema(),
	}

	lower := minFlag
	if aw.autoMin {
		lower = 0
	}
	upper := maxFlag
	if aw.autoMax {
		upper = 65535
	}

	win, err := frame.NewWindow(lower, upper)
	if err != nil {
		return nil, err
	}
	aw.win = win
	return aw, nil
}

// applySeed copies the seeded extrema into the auto bounds, leaving
// explicit bounds untouched.
func (aw *autoWindow) applySeed() {
	w := aw.extrema.Window()
	if aw.autoMin && w.Lower < aw.win.Upper {
		aw.win.Lower = w.Lower
	}
	if aw.autoMax && w.Upper > aw.win.Lower {
		aw.win.Upper = w.Upper
	}
}

// update observes the frame and widens or narrows the auto bounds when
// new extrema are discovered. Early frames may clip until the true
// extrema have been seen.
func (aw *autoWindow) update(img *frame.Gray16, name string, logf playback.LogFunc) frame.Window {
	if !aw.autoMin && !aw.autoMax {
		return aw.win
	}

	if aw.extrema.Observe(img) {
		if aw.autoMin && int(aw.extrema.Min) < aw.win.Upper && aw.win.Lower != int(aw.extrema.Min) {
			aw.win.Lower = int(aw.extrema.Min)
			logf(log.LevelInfo, "%v min: %v", name, aw.win.Lower)
		}
		if aw.autoMax && int(aw.extrema.Max) > aw.win.Lower && aw.win.Upper != int(aw.extrema.Max) {
			aw.win.Upper = int(aw.extrema.Max)
			logf(log.LevelInfo, "%v max: %v", name, aw.win.Upper)
		}
	}
	return aw.win
}

func seedWindows(
	cache *wincache.Cache,
	videoPath string,
	depthWin *autoWindow,
	irWin *autoWindow,
	logf playback.LogFunc,
) {
	key, err := filepath.Abs(videoPath)
	if err != nil {
		key = videoPath
	}

	entry, found, err := cache.Get(key)
	if err != nil {
		logf(log.LevelWarning, "window cache read: %v", err)
		return
	}
	if !found {
		return
	}

	if depthWin.autoMin || depthWin.autoMax {
		depthWin.extrema.Seed(entry.DepthMin, entry.DepthMax)
		depthWin.applySeed()
	}
	if irWin.autoMin || irWin.autoMax {
		irWin.extrema.Seed(entry.IRMin, entry.IRMax)
		irWin.applySeed()
	}
	logf(log.LevelInfo, "seeded windows from cache")
}

func saveWindows(
	cache *wincache.Cache,
	videoPath string,
	depthWin *autoWindow,
	irWin *autoWindow,
	logf playback.LogFunc,
) {
	if cache == nil {
		return
	}
	if depthWin.extrema.Min > depthWin.extrema.Max && irWin.extrema.Min > irWin.extrema.Max {
		// Nothing observed.
		return
	}

	key, err := filepath.Abs(videoPath)
	if err != nil {
		key = videoPath
	}

	err = cache.Set(key, wincache.Entry{
		DepthMin: depthWin.extrema.Min,
		DepthMax: depthWin.extrema.Max,
		IRMin:    irWin.extrema.Min,
		IRMax:    irWin.extrema.Max,
	})
	if err != nil {
		logf(log.LevelWarning, "window cache write: %v", err)
	}
}

func logsCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLogs(cmd.Context(), dbPath, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "log database path")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	return cmd
}

func printLogs(ctx context.Context, dbPath string, limit int) error {
	if dbPath == "" {
		env, err := config.LoadEnv(defaultConfigPath())
		if err != nil {
			return err
		}
		dbPath = env.LogDBPath
	}

	ctx, cancel := context.WithCancel(ctx)
	wg := &sync.WaitGroup{}

	logDB := log.NewDB(dbPath, wg)
	if err := logDB.Init(ctx); err != nil {
		cancel()
		return err
	}

	logs, err := logDB.Query(log.Query{Limit: limit})

	cancel()
	wg.Wait()

	if err != nil {
		return err
	}

	for _, entry := range *logs {
		t := time.UnixMicro(int64(entry.Time)).Format(time.RFC3339)
		fmt.Printf("%v %v %v: %v\n", t, entry.Session, entry.Src, entry.Msg)
	}
	return nil
}
