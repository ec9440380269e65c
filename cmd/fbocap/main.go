// cmd/fbocap/main.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// fbocap inspects frame capture files written by fbodemo -capture: it
// summarizes them, optionally dumps frames in detail, and replays each
// frame into a recording device to check that it draws what it claims.

import (
	"flag"
	"fmt"
	"os"

	"github.com/fbogfx/fbogfx/capture"
	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/renderer"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"
	"golang.org/x/sync/errgroup"
)

var (
	logLevel = flag.String("loglevel", "warn", "logging level: debug, info, warn, error")
	dump     = flag.Bool("dump", false, "dump each frame's commands and first triangles")
	dumpTris = flag.Int("tris", 4, "number of triangles to dump per frame")
	frameIdx = flag.Int("frame", -1, "only process the frame with this index")
	replay   = flag.Bool("replay", true, "replay frames into a recording device and compare statistics")
	verbose  = flag.Bool("v", false, "print each replayed device call")
)

type file struct {
	path   string
	frames []capture.Frame
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}
	lg := log.NewWriter(os.Stderr, *logLevel)

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: fbocap [flags] capture-file...\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Captures may be large; decompress them in parallel.
	files := make([]file, flag.NArg())
	var eg errgroup.Group
	for i, path := range flag.Args() {
		eg.Go(func() error {
			frames, err := capture.Load(path)
			if err != nil {
				return err
			}
			files[i] = file{path: path, frames: frames}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	failed := false
	for _, f := range files {
		fmt.Printf("%s: %d frames\n", f.path, len(f.frames))
		for i, frame := range f.frames {
			if *frameIdx >= 0 && i != *frameIdx {
				continue
			}
			fmt.Printf("[%d] %s", i, frame.Summary())
			if *dump {
				dumpFrame(frame)
			}
			if *replay {
				if err := replayFrame(frame, lg); err != nil {
					fmt.Printf("  replay: %v\n", err)
					failed = true
				}
			}
		}
	}
	if failed {
		os.Exit(1)
	}
}

func dumpFrame(f capture.Frame) {
	godump.Dump(f.Commands)
	tris, err := f.Triangles()
	if err != nil {
		fmt.Printf("  %v\n", err)
		return
	}
	godump.Dump(tris[:min(len(tris), *dumpTris)])
}

func replayFrame(f capture.Frame, lg *log.Logger) error {
	rec := renderer.NewRecorder()
	stats, err := capture.Replay(f, rec)
	if err != nil {
		return err
	}
	if *verbose {
		for _, c := range rec.Calls {
			fmt.Printf("  %s\n", c.String())
		}
	}
	if stats != f.Stats {
		return fmt.Errorf("replay stats %s differ from captured %s", stats.String(), f.Stats.String())
	}
	lg.Debug("replayed", "stats", stats)
	return nil
}
