package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const _LOG_TIME_LAYOUT = "2006/01/02 15:04:05"

// InitLogger replaces the global zap logger.
//
// The console format prints time, level and message on one line followed by the fields.
func InitLogger(config LogConfig) error {
	var zap_config zap.Config
	if config.Format == "json" {
		zap_config = zap.NewProductionConfig()
	} else {
		zap_config = zap.NewDevelopmentConfig()
		zap_config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(_LOG_TIME_LAYOUT)
		zap_config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zap_config.EncoderConfig.CallerKey = ""
		zap_config.DisableStacktrace = true
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return eris.Wrap(err, "logging: parse log level")
	}
	zap_config.Level.SetLevel(level)

	logger, err := zap_config.Build()
	if err != nil {
		return eris.Wrap(err, "logging: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
