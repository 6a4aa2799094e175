package services

import (
	"context"
	"time"

	"github.com/yashrajoria/bistro-backend/common/logger"
	awspkg "github.com/yashrajoria/bistro-backend/pkg/aws"
	"go.uber.org/zap"
)

// recordValue ships one data point off the request path. A nil recorder is ignored.
func recordValue(ctx context.Context, m awspkg.MetricsRecorder, name string, value float64) {
	if m == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := m.RecordValue(bgCtx, name, value, map[string]string{"Service": "bistro"}); err != nil {
			logger.Warn(ctx, "Failed to record metric", zap.String("metric", name), zap.Error(err))
		}
	}()
}
