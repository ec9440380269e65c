// cmd/fbodemo/main.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// fbodemo draws a text console through the batch engine, either to a
// window or, with -headless, to a recording device. Frames may be
// captured for inspection with fbocap.

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fbogfx/fbogfx/capture"
	"github.com/fbogfx/fbogfx/cvar"
	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/util"

	"github.com/apenwarr/fixconsole"
)

var (
	logLevel      = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir        = flag.String("logdir", "", "log file directory")
	configPath    = flag.String("config", "", "cvar config file (.json, .yaml or .toml); defaults to config.json in the user config directory")
	headless      = flag.Bool("headless", false, "render to an in-memory recording device rather than a window")
	numFrames     = flag.Int("frames", 0, "number of frames to render; 0 runs until the window is closed (60 when headless)")
	capturePath   = flag.String("capture", "", "write the rendered frames to this file")
	captureFrames = flag.Int("captureframes", 120, "maximum number of (most recent) frames to capture")
	width         = flag.Int("width", 1280, "window or target width")
	height        = flag.Int("height", 720, "window or target height")
	offscreen     = flag.Bool("fbo", false, "draw the console to a framebuffer object and then to the window")
	cpuprofile    = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile    = flag.String("memprofile", "", "write memory profile to this file")
)

func init() {
	// OpenGL and friends require that all calls be made from the primary
	// application thread, while by default, go allows the main thread to
	// run on different hardware threads over the course of
	// execution. Therefore, we must lock the main thread at startup time.
	runtime.LockOSThread()
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fbogfx", "config.json")
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	// Initialize the logging system first and foremost.
	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	} else {
		defer func() {
			if err := profiler.Cleanup(); err != nil {
				lg.Errorf("%v", err)
			}
		}()
	}

	reg := cvar.NewRegistry(lg)
	cvar.RegisterEngine(reg)

	if *configPath == "" {
		*configPath = defaultConfigPath()
	}
	if *configPath != "" {
		if _, err := os.Stat(*configPath); err == nil {
			if err := reg.LoadFile(*configPath); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", *configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			lg.Warnf("%s: %v", *configPath, err)
		}
	}

	// The command line's log level takes precedence over the config's.
	if !flagSet("loglevel") {
		if err := lg.SetLevel(reg.String(cvar.LogLevel)); err != nil {
			lg.Warnf("%v", err)
		}
	}

	d := newDemo(reg, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *configPath != "" {
		if ch, err := reg.Watch(ctx, *configPath); err != nil {
			lg.Warnf("%s: unable to watch: %v", *configPath, err)
		} else {
			d.configChanges = ch
		}
	}

	if *headless {
		n := *numFrames
		if n == 0 {
			n = 60
		}
		err = d.runHeadless(n)
	} else {
		err = d.runWindowed(*numFrames)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
	}

	stats, failures := d.totalStats()
	lg.Info("finished", "frames", d.frame, "failed", failures, "stats", stats)
	fmt.Printf("%d frames (%d failed): %s\n", d.frame, failures, stats.String())

	if *capturePath != "" {
		frames := d.capturedFrames()
		if err := capture.Save(*capturePath, frames); err != nil {
			lg.Errorf("%s: %v", *capturePath, err)
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Printf("%s: captured %d frames\n", *capturePath, len(frames))
		}
	}

	if err != nil {
		return 1
	}
	return 0
}
