package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process-wide logger. Development mode switches to the
// human-readable console encoder.
func New(development bool) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if development {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return log, nil
}
