package service

import (
	"context"
	"errors"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/pkg/common"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Service AI 服務：在實際轉換器外加上隊列、斷路器與指標。
// 本身也是 provider.Transformer，不重試、不快取。
type Service struct {
	next    provider.Transformer
	queue   *queue.Manager
	breaker *gobreaker.CircuitBreaker
	metrics *monitoring.Metrics
}

// NewService 創建 AI 服務
func NewService(next provider.Transformer, q *queue.Manager, cfg config.BreakerConfig, metrics *monitoring.Metrics) *Service {
	s := &Service{
		next:    next,
		queue:   q,
		metrics: metrics,
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "transformer",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			common.LogWarn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(int(to))
		},
		// 只有服務不可用才計為失敗；呼叫端取消與本地隊列已滿不影響斷路器
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrQueueFull)
		},
	})

	return s
}

// Complete 實現 provider.Transformer
func (s *Service) Complete(ctx context.Context, prompt string, opts provider.Options) (string, error) {
	start := time.Now()

	out, err := s.breaker.Execute(func() (interface{}, error) {
		if s.queue == nil {
			return s.next.Complete(ctx, prompt, opts)
		}
		return s.queue.Submit(ctx, func(taskCtx context.Context) (string, error) {
			return s.next.Complete(taskCtx, prompt, opts)
		})
	})

	duration := time.Since(start)
	if err != nil {
		err = common.NewTransformerUnavailable(err)
		s.metrics.ObserveTransformer("unavailable", duration)
		common.LogAICall("complete", duration, err)
		return "", err
	}

	s.metrics.ObserveTransformer("success", duration)
	common.LogAICall("complete", duration, nil)
	return out.(string), nil
}

// State 目前斷路器狀態
func (s *Service) State() gobreaker.State {
	return s.breaker.State()
}

// QueueStatus 隊列狀態，未使用隊列時回傳 nil
func (s *Service) QueueStatus() *queue.Status {
	if s.queue == nil {
		return nil
	}
	return s.queue.GetQueueStatus()
}
