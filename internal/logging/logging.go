// Package logging sends the standard logger to a rotating file, keeping
// stdout free for the TUI and command output.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created in the config directory
const FileName = "energy.log"

// Setup points the standard logger at <dir>/energy.log. The returned
// closer flushes and closes the file.
func Setup(dir string) (io.Closer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("energy: ")
	return w, nil
}

// Discard silences the standard logger
func Discard() {
	log.SetOutput(io.Discard)
}
