package util

import (
	"os"

	"github.com/pitbox/race-intel-go/log"
	"github.com/pitbox/race-intel-go/pkg/config"
)

// SetupLogger builds the process logger from the resolved CLI config
// and installs it as the default.
func SetupLogger() (*log.Logger, error) {
	lvl, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	var l *log.Logger
	if config.LogFilter != "" {
		l, err = log.NewWithFilters(os.Stderr, lvl, config.LogFormat, config.LogFilter)
		if err != nil {
			return nil, err
		}
	} else {
		l = log.New(os.Stderr, lvl, config.LogFormat)
	}
	log.ResetDefault(l)
	return l, nil
}
