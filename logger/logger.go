package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log - общий логгер приложения
var Log = logrus.New()

// InitLogger настраивает формат и уровень логирования
func InitLogger(level string) {
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		Log.WithField("level", level).Warn("unknown log level, falling back to info")
	}
	Log.SetLevel(lvl)
}
