package worker

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var workerDebugEnabled = strings.EqualFold(os.Getenv("PDF2SLIDES_WORKER_DEBUG"), "1")

func debugLog(logger logrus.FieldLogger, format string, args ...interface{}) {
	if workerDebugEnabled && logger != nil {
		logger.Debugf(format, args...)
	}
}
