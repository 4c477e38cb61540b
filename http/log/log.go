// Package log forwards the output of echo's internal logger to a slick logger.
package log

import (
	"strings"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/log"
)

type logwrapper struct {
	logger log.Logger
}

type logentry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func NewWrapper(logger log.Logger) *logwrapper {
	return &logwrapper{
		logger: logger,
	}
}

func (b *logwrapper) Write(p []byte) (int, error) {
	entry := logentry{}
	if err := json.Unmarshal(p, &entry); err != nil || len(entry.Message) == 0 {
		b.logger.Info().Log("%s", strings.TrimSpace(string(p)))
		return len(p), nil
	}

	var logger log.Logger

	switch strings.ToLower(entry.Level) {
	case "debug":
		logger = b.logger.Debug()
	case "warn":
		logger = b.logger.Warn()
	case "error", "fatal", "panic":
		logger = b.logger.Error()
	default:
		logger = b.logger.Info()
	}

	for _, line := range strings.Split(entry.Message, "\n") {
		if len(line) == 0 {
			continue
		}

		logger.Log("%s", line)
	}

	return len(p), nil
}
