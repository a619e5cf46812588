package experiment

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a debug logger writing plain text to path, keeping
// stdout free for the progress display. An empty path discards all output.
// The returned close function releases the log file.
func NewLogger(path string) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	if path == "" {
		logger.SetOutput(io.Discard)
		return logger, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create debug log: %w", err)
	}
	logger.SetOutput(f)
	return logger, f.Close, nil
}
