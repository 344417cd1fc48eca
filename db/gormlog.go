package db

import (
	"fmt"
	"strings"
	"time"

	"network/logger"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// zapWriter feeds gorm's log lines into the process logger.
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	logger.L.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), zap.String("component", "gorm"))
}

// newGormLogger reports slow queries and errors. A missing row is an
// expected outcome here, not something to log.
func newGormLogger() gormlogger.Interface {
	return gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
