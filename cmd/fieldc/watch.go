package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// logOutput receives the log of watch mode.
var logOutput io.Writer = os.Stderr

// runWatch compiles files once, then again each time one of them is
// written, until ctx is done. Each input goes to its .c sibling.
func runWatch(ctx context.Context, files []string, opts options) int {
	logger := log.New(logOutput, "fieldc: ", log.LstdFlags)
	build := func(name string) {
		if err := compileTo(name, outputPath(name, "", 2), opts); err != nil {
			logger.Print(err)
			return
		}
		logger.Printf("compiled %s", name)
	}
	for _, f := range files {
		build(f)
	}
	if err := watch(ctx, files, build, logger); err != nil {
		logger.Print(err)
		return 1
	}
	return 0
}

// watch calls build with the name of each watched file that is written or
// recreated. Directories are watched rather than files so editors that
// save by renaming over the original keep being followed.
func watch(ctx context.Context, files []string, build func(name string), logger *log.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	wanted := make(map[string]string)
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		wanted[abs] = f
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	logger.Printf("watching %d file(s)", len(files))

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if name, ok := wanted[abs]; ok {
				build(name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Printf("watch: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}
