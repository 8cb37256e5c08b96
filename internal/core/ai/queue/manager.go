package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrQueueFull 隊列已滿
var ErrQueueFull = fmt.Errorf("queue is full")

// ErrClosed 隊列已關閉
var ErrClosed = fmt.Errorf("queue manager is closed")

// Task 由 worker 執行的單次工作
type Task func(ctx context.Context) (string, error)

// Request 隊列請求
type Request struct {
	Context context.Context
	Task    Task
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Content string
	Error   error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 隊列管理器，固定數量的 worker 消化對外 AI 請求
type Manager struct {
	cfg       config.QueueConfig
	queue     chan *Request
	done      chan struct{}
	processed int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器並啟動 worker
func NewManager(cfg config.QueueConfig) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}

	m := &Manager{
		cfg:   cfg,
		queue: make(chan *Request, cfg.MaxSize),
		done:  make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	return m
}

// Submit 將工作加入隊列並等待結果，每個工作只執行一次
func (m *Manager) Submit(ctx context.Context, task Task) (string, error) {
	resultCh, err := m.Enqueue(ctx, task)
	if err != nil {
		return "", err
	}

	select {
	case res := <-resultCh:
		return res.Content, res.Error
	case <-ctx.Done():
		return "", ctx.Err()
	case <-m.done:
		return "", ErrClosed
	}
}

// Enqueue 將工作加入隊列
func (m *Manager) Enqueue(ctx context.Context, task Task) (chan Result, error) {
	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	req := &Request{
		Context: ctx,
		Task:    task,
		Result:  make(chan Result, 1),
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.cfg.MaxSize),
		)
		return req.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrClosed
	default:
		return nil, ErrQueueFull
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			m.process(id, req)
		}
	}
}

func (m *Manager) process(id int, req *Request) {
	defer atomic.AddInt64(&m.processed, 1)

	// 呼叫端已放棄的工作不再送出
	if err := req.Context.Err(); err != nil {
		req.Result <- Result{Error: err}
		return
	}

	defer func() {
		if r := recover(); r != nil {
			common.LogError("Queue task panicked", zap.Int("worker", id), zap.Any("panic", r))
			req.Result <- Result{Error: fmt.Errorf("queue task panicked: %v", r)}
		}
	}()

	content, err := req.Task(req.Context)
	req.Result <- Result{Content: content, Error: err}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.cfg.MaxSize,
		Workers:        m.cfg.Workers,
	}
}

// Close 關閉隊列管理器並等待 worker 結束
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}
