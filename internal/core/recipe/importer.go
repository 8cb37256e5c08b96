package recipe

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/page"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ImageSearcher 以標題搜尋後備圖片
type ImageSearcher interface {
	FindImageFor(ctx context.Context, title string) (string, error)
}

// ImporterConfig 匯入流程設定
type ImporterConfig struct {
	FetchTimeout    time.Duration
	MaxContentChars int
	Completion      provider.Options
}

// Importer 匯入流程：抓頁面、找圖片、建立提示、呼叫轉換器、正規化
type Importer struct {
	transformer provider.Transformer
	fetcher     page.Fetcher
	searcher    ImageSearcher
	cfg         ImporterConfig
	metrics     *monitoring.Metrics
}

// NewImporter 創建匯入流程；fetcher、searcher 可為 nil
func NewImporter(transformer provider.Transformer, fetcher page.Fetcher, searcher ImageSearcher, cfg ImporterConfig, metrics *monitoring.Metrics) *Importer {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 6000
	}
	return &Importer{
		transformer: transformer,
		fetcher:     fetcher,
		searcher:    searcher,
		cfg:         cfg,
		metrics:     metrics,
	}
}

// ImportFromURL 由食譜網址匯入。頁面抓取失敗不會中止流程，
// 轉換器仍會收到網址並在沒有頁面內容的情況下擷取。
func (i *Importer) ImportFromURL(ctx context.Context, rawURL string) (Recipe, error) {
	sourceURL := strings.TrimSpace(rawURL)
	if !validHTTPURL(sourceURL) {
		return Recipe{}, common.NewInvalidArgument("invalid recipe url %q", rawURL)
	}

	content, candidate := i.fetchPage(ctx, sourceURL)

	prompt := BuildURLExtractionPrompt(sourceURL, content)
	rec, err := i.extractRecipe(ctx, prompt)
	if err != nil {
		i.metrics.RecipeImport("url", outcome(err))
		return Recipe{}, err
	}

	rec.SourceURL = sourceURL
	rec.Image = i.resolveImage(ctx, candidate, rec)

	i.metrics.RecipeImport("url", "success")
	common.LogInfo("食譜匯入完成",
		zap.String("source", "url"),
		zap.String("url", sourceURL),
		zap.String("title", rec.Title),
		zap.Bool("page_fetched", content != ""),
	)
	return rec, nil
}

// ImportFromText 由貼上的文字匯入；沒有頁面可找圖片
func (i *Importer) ImportFromText(ctx context.Context, text string) (Recipe, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Recipe{}, common.NewInvalidArgument("recipe text is empty")
	}

	prompt := BuildTextExtractionPrompt(text)
	rec, err := i.extractRecipe(ctx, prompt)
	if err != nil {
		i.metrics.RecipeImport("text", outcome(err))
		return Recipe{}, err
	}

	rec.Image = i.resolveImage(ctx, "", rec)

	i.metrics.RecipeImport("text", "success")
	common.LogInfo("食譜匯入完成",
		zap.String("source", "text"),
		zap.String("title", rec.Title),
	)
	return rec, nil
}

// fetchPage 抓取頁面並回傳供提示使用的內容與候選圖片；任何失敗都回傳空值
func (i *Importer) fetchPage(ctx context.Context, sourceURL string) (content string, candidate string) {
	if i.fetcher == nil {
		return "", ""
	}

	fetchCtx, cancel := context.WithTimeout(ctx, i.cfg.FetchTimeout)
	defer cancel()

	p, err := i.fetcher.Fetch(fetchCtx, sourceURL)
	if err != nil {
		i.metrics.PageFetch("failed")
		common.LogWarn("頁面抓取失敗，改以網址擷取",
			zap.String("url", sourceURL),
			zap.Error(err),
		)
		return "", ""
	}
	i.metrics.PageFetch("success")

	candidate = page.ExtractBestImage(p.HTML, p.BaseURL())
	content = common.Truncate(page.ExtractText(p.HTML), i.cfg.MaxContentChars)
	return content, candidate
}

func (i *Importer) extractRecipe(ctx context.Context, prompt string) (Recipe, error) {
	completion, err := i.transformer.Complete(ctx, prompt, i.cfg.Completion)
	if err != nil {
		return Recipe{}, err
	}

	raw, err := ParseCompletion(completion)
	if err != nil {
		return Recipe{}, err
	}

	rec, err := Normalize(raw)
	if err != nil {
		common.LogWarn("AI 回應缺少必要欄位", zap.Error(err))
		return Recipe{}, err
	}
	return rec, nil
}

// resolveImage 圖片優先序：頁面擷取、轉換器回報、標題搜尋、空字串
func (i *Importer) resolveImage(ctx context.Context, candidate string, rec Recipe) string {
	if candidate != "" {
		i.metrics.ImageSource("page")
		return candidate
	}
	if rec.Image != "" {
		i.metrics.ImageSource("transformer")
		return rec.Image
	}
	if i.searcher != nil {
		found, err := i.searcher.FindImageFor(ctx, rec.Title)
		if err != nil {
			common.LogWarn("後備圖片搜尋失敗", zap.String("title", rec.Title), zap.Error(err))
		} else if found != "" {
			i.metrics.ImageSource("search")
			return found
		}
	}
	i.metrics.ImageSource("none")
	return ""
}

func validHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// outcome 指標用的錯誤分類
func outcome(err error) string {
	var (
		parse       *common.ParseError
		unavailable *common.TransformerUnavailableError
		invalid     *common.InvalidArgumentError
	)
	switch {
	case err == nil:
		return "success"
	case common.IsValidationError(err):
		return "validation_error"
	case errors.As(err, &parse):
		return "parse_error"
	case errors.As(err, &unavailable):
		return "unavailable"
	case errors.As(err, &invalid):
		return "invalid_argument"
	default:
		return "error"
	}
}
