package http

import (
	"fmt"

	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger adapts blocks.Logger to retryablehttp's LeveledLogger. Debug
// messages are only forwarded in debug mode.
type leveledLogger struct {
	logger blocks.Logger
	debug  bool
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.debug {
		l.logger.Debug(msg, toFields(keysAndValues))
	}
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
