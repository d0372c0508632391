package ghostwriter

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
)

// restyLogger adapts logging.Logger to resty.Logger.
type restyLogger struct {
	logger *logging.Logger
}

func newRestyLogger(l *logging.Logger) *restyLogger {
	return &restyLogger{logger: l.Named("resty")}
}

func (r *restyLogger) Errorf(format string, v ...interface{}) {
	r.logger.Error(context.Background(), fmt.Sprintf(format, v...))
}

func (r *restyLogger) Warnf(format string, v ...interface{}) {
	r.logger.Warn(context.Background(), fmt.Sprintf(format, v...))
}

func (r *restyLogger) Debugf(format string, v ...interface{}) {
	r.logger.Debug(context.Background(), fmt.Sprintf(format, v...))
}
