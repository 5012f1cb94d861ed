package logger

import (
	"github.com/maxaizer/apply-archive/internal/config"
	log "github.com/sirupsen/logrus"
	"io"
	"os"
	"path/filepath"
)

const ErrorTypeField = "error_type"

const (
	ErrorTypeDb         = "db"
	ErrorTypeRemoteApi  = "remote_api"
	ErrorTypeLocalStore = "local_store"
	ErrorTypeUpload     = "upload"
)

var logFile *os.File

func Setup(cfg config.LoggerConfig) {
	SetupWithConsole(cfg, os.Stdout)
}

// SetupWithConsole is Setup with console output going to console instead of stdout.
func SetupWithConsole(cfg config.LoggerConfig, console io.Writer) {

	if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	var err error
	logFile, err = os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	multiWriter := io.MultiWriter(console, logFile)
	log.SetOutput(multiWriter)

	customFormatter := &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000 -0700",
	}
	log.SetFormatter(customFormatter)
	addPrometheusHook()

	log.SetLevel(Level(cfg.LogLevel))
}

// Level maps a configured level name onto logrus, defaulting to info.
func Level(level config.LogLevel) log.Level {
	switch level {
	case config.LevelInfo:
		return log.InfoLevel
	case config.LevelDebug:
		return log.DebugLevel
	case config.LevelWarning:
		return log.WarnLevel
	case config.LevelError:
		return log.ErrorLevel
	case config.LevelFatal:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func Cleanup() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

// RestBackend writes go-pkgz/rest middleware output through logrus at the given level.
type RestBackend struct {
	Level log.Level
}

func (b RestBackend) Logf(format string, args ...interface{}) {
	log.StandardLogger().Logf(b.Level, format, args...)
}
