//go:build !windows

// Package stderr redirects file descriptor 2 while the TUI owns the
// terminal. Audio libraries (ALSA, minimp3) write to it directly, which
// would corrupt the screen; their lines go to the logger instead.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

var (
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
	done       chan struct{}
)

// Start redirects stderr to logger. On failure the program can carry on
// with the terminal's stderr.
func Start(logger *zap.Logger) error {
	if started {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true
	done = make(chan struct{})

	go forward(r, logger.Named("stderr"), done)
	return nil
}

func forward(r *os.File, logger *zap.Logger, done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			logger.Warn(line)
		}
	}
}

// Stop restores stderr and waits for buffered lines to be logged.
func Stop() {
	if !started {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)

	// Closing the last write end lets the scanner drain and exit.
	pipeWrite.Close()
	<-done
	pipeRead.Close()
	started = false
}
