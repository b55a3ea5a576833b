package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger = zap.NewNop()
	// logLevel is shared by both cores so --debug and hot reloads can flip it.
	logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// setupLogging tees console output with a JSON log file under
// logs/errors. If the file cannot be created only the console is used.
func setupLogging(debug bool) {
	setDebugLogging(debug)

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), logLevel),
	}

	logDir := filepath.Join(baseDir, "logs", "errors")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Printf("could not create log directory: %v\n", err)
	} else {
		ts := time.Now().Format("20060102-150405")
		errPath := filepath.Join(logDir, fmt.Sprintf("error-%s.log", ts))
		if f, err := os.Create(errPath); err == nil {
			fileCfg := zap.NewProductionEncoderConfig()
			fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(f), logLevel))
		}
	}

	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
}

func setDebugLogging(enabled bool) {
	if enabled {
		logLevel.SetLevel(zap.DebugLevel)
	} else {
		logLevel.SetLevel(zap.InfoLevel)
	}
}

func logError(format string, v ...interface{}) {
	logger.Sugar().Errorf(format, v...)
}

func logDebug(format string, v ...interface{}) {
	logger.Sugar().Debugf(format, v...)
}
