package image

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Service 後備圖片搜尋：以食譜標題向 Unsplash 搜尋照片
type Service struct {
	client  *resty.Client
	enabled bool
}

// searchResponse Unsplash /search/photos 回應（只取需要的欄位）
type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// NewService 創建圖片搜尋服務；未設定金鑰時停用
func NewService(cfg config.ImageSearchConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept-Version", "v1").
		SetHeader("Authorization", "Client-ID "+cfg.AccessKey)

	return &Service{
		client:  client,
		enabled: cfg.Enabled && cfg.AccessKey != "",
	}
}

// FindImageFor 依標題搜尋圖片，找不到或停用時回傳空字串
func (s *Service) FindImageFor(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if !s.enabled || title == "" {
		return "", nil
	}

	var result searchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":       title + " food",
			"per_page":    "1",
			"orientation": "landscape",
		}).
		SetResult(&result).
		Get("/search/photos")
	if err != nil {
		return "", fmt.Errorf("failed to search image: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("image search returned status %d", resp.StatusCode())
	}

	if len(result.Results) == 0 {
		common.LogDebug("No image found for title", zap.String("title", title))
		return "", nil
	}

	if u := result.Results[0].URLs.Regular; u != "" {
		return u, nil
	}
	return result.Results[0].URLs.Small, nil
}
