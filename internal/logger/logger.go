package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.SugaredLogger

func init() {
	// Never nil at call sites, even before Init runs (tests, early startup).
	Log = zap.NewNop().Sugar()
}

// Init sets up the process-wide logger writing to the given file.
func Init(logFilePath string) error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logFilePath}
	cfg.ErrorOutputPaths = []string{logFilePath}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = l.Sugar()
	Log.Info("Logger initialized.")
	return nil
}
