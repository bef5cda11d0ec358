package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is a no-op until Init is called, so packages can log from tests without setup.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the process logger. "prod" selects JSON output; anything else gets the
// colored console encoder.
func Init(profile string) error {
	var cfg zap.Config

	if profile == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = profile == "prod"

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = l.Sugar()
	return nil
}

func Sync() {
	if Log == nil {
		return
	}

	_ = Log.Sync()
}
