package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"requitec/common"
	"requitec/report"

	"github.com/fsnotify/fsnotify"
)

// settleTime is how long the watcher waits after a change before it
// rebuilds so that a burst of writes causes one build.
const settleTime = 150 * time.Millisecond

// isWatchedFile returns whether a change to the file at path should trigger a
// rebuild.
func isWatchedFile(path string) bool {
	return filepath.Ext(path) == common.SrcFileExt || filepath.Base(path) == common.ModuleFileName
}

// watchDirs returns the directories containing the given files without
// duplicates.
func watchDirs(paths []string) []string {
	seen := make(map[string]struct{})
	var dirs []string
	for _, path := range paths {
		dir := filepath.Dir(path)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// watch runs build once and then again whenever a watched file in one of the
// directories of paths changes.  It returns when the process is interrupted.
func watch(paths []string, build func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range watchDirs(paths) {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	build()
	report.ReportInfo("Watch", "waiting for changes")

	// the timer is only armed once a change arrives
	settle := time.NewTimer(settleTime)
	settle.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) && isWatchedFile(event.Name) {
				settle.Reset(settleTime)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			report.ReportStdError("Watch Error", err)
		case <-settle.C:
			build()
			report.ReportInfo("Watch", "waiting for changes")
		case <-interrupt:
			return nil
		}
	}
}
