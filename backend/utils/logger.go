package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger builds the process-wide structured logger. Production logs JSON,
// development logs human-readable text at debug level.
func InitLogger(environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}

// MaskEmail hides most of the local part of an address so security logs never
// carry a full identity.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
