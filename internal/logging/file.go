package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/instantshare/instantshare/internal/constants"
)

// LogFileName is the active log file inside the log directory.
const LogFileName = "instantshare.log"

// FileSink is a rotating log file.
type FileSink struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
}

// OpenFileSink creates dir if needed and returns a rotating file writer in it.
func OpenFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &FileSink{
		logger: &lumberjack.Logger{
			Filename:   filepath.Join(dir, LogFileName),
			MaxSize:    constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
			MaxAge:     constants.LogMaxAgeDays,
			Compress:   true,
		},
	}, nil
}

// Write implements io.Writer.
func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		return len(p), nil
	}
	return s.logger.Write(p)
}

// Path returns the active log file path, or "" once closed.
func (s *FileSink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		return ""
	}
	return s.logger.Filename
}

// Close flushes and closes the file. Later writes are discarded.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		return nil
	}
	err := s.logger.Close()
	s.logger = nil
	return err
}

var _ io.WriteCloser = (*FileSink)(nil)
