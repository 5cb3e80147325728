package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

const serviceName = "blogFeed"

// Log is the process-wide logger. Every package logs through it so that
// entries share the service and env fields.
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Tests and tools don't go through main, so a development logger is set up
// on package load and replaced by Init once the config is known.
func init() {
	Init(false)
}

// Init (re)configures the global logger. Production logs are json so they can
// be shipped as is, development logs stay human readable.
func Init(isProd bool) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)
	if isProd {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	env := "dev"
	if isProd {
		env = "prod"
	}
	Log = logger.WithFields(logrus.Fields{"service": serviceName, "env": env})
}
