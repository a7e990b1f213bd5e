package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns the production JSON logger when production is set and a readable
// development logger otherwise. A non-empty level overrides the preset's level.
func NewLogger(production bool, level string) *zap.Logger {
	loggerConfig := zap.NewDevelopmentConfig()
	if production {
		loggerConfig = zap.NewProductionConfig()
	}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		atomic, err := zap.ParseAtomicLevel(level)
		if err != nil {
			panic(err)
		}
		loggerConfig.Level = atomic
	}

	logger, err := loggerConfig.Build()
	if nil != err {
		panic(err)
	}

	return logger.Named("depot")
}
