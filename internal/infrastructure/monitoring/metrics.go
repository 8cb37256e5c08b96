package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics 應用程式指標，註冊在獨立的 Registry 上
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	aiRequests    *prometheus.CounterVec
	aiDuration    *prometheus.HistogramVec
	breakerState  prometheus.Gauge
	pageFetches   *prometheus.CounterVec
	pageCache     *prometheus.CounterVec
	imageSource   *prometheus.CounterVec
	recipeImports *prometheus.CounterVec
	recipeScales  *prometheus.CounterVec
	mealsComposed prometheus.Counter
}

// NewMetrics 建立並註冊所有指標
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "meal_planner",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "transformer_requests_total",
			Help:      "Text transformer calls by outcome",
		}, []string{"outcome"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "meal_planner",
			Name:      "transformer_duration_seconds",
			Help:      "Text transformer latency",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		}, []string{"outcome"}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "meal_planner",
			Name:      "transformer_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}),
		pageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "page_fetches_total",
			Help:      "Recipe page fetches by outcome",
		}, []string{"outcome"}),
		pageCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "page_cache_total",
			Help:      "Page cache lookups by result",
		}, []string{"result"}),
		imageSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "import_image_source_total",
			Help:      "Where the imported recipe image came from",
		}, []string{"source"}),
		recipeImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "recipe_imports_total",
			Help:      "Recipe imports by entry point and outcome",
		}, []string{"source", "outcome"}),
		recipeScales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "recipe_scales_total",
			Help:      "Scaling previews by outcome",
		}, []string{"outcome"}),
		mealsComposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "meals_composed_total",
			Help:      "Meals composed from selected recipes",
		}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.aiRequests, m.aiDuration, m.breakerState,
		m.pageFetches, m.pageCache, m.imageSource,
		m.recipeImports, m.recipeScales, m.mealsComposed,
	)
	return m
}

// 所有方法皆容許 nil 接收者，未注入指標時不做任何事

// ObserveHTTP 記錄一次 HTTP 請求
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveTransformer 記錄一次轉換器呼叫
func (m *Metrics) ObserveTransformer(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(outcome).Inc()
	m.aiDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetBreakerState 更新斷路器狀態
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.breakerState.Set(float64(state))
}

// PageFetch 記錄頁面抓取結果
func (m *Metrics) PageFetch(outcome string) {
	if m == nil {
		return
	}
	m.pageFetches.WithLabelValues(outcome).Inc()
}

// PageCache 記錄快取命中或未命中
func (m *Metrics) PageCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.pageCache.WithLabelValues(result).Inc()
}

// ImageSource 記錄圖片來源
func (m *Metrics) ImageSource(source string) {
	if m == nil {
		return
	}
	m.imageSource.WithLabelValues(source).Inc()
}

// RecipeImport 記錄匯入結果
func (m *Metrics) RecipeImport(source, outcome string) {
	if m == nil {
		return
	}
	m.recipeImports.WithLabelValues(source, outcome).Inc()
}

// RecipeScale 記錄換算結果
func (m *Metrics) RecipeScale(outcome string) {
	if m == nil {
		return
	}
	m.recipeScales.WithLabelValues(outcome).Inc()
}

// MealComposed 記錄組合餐點
func (m *Metrics) MealComposed() {
	if m == nil {
		return
	}
	m.mealsComposed.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
