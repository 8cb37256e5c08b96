package provider

import (
	"context"
)

// Options 單次補全的模型參數
type Options struct {
	// Model 選擇品質/成本等級，空字串代表使用提供者預設模型
	Model string
	// Temperature 接近 0 用於擷取與換算
	Temperature float64
	// MaxTokens 限制回應長度
	MaxTokens int
}

// Transformer 文字轉換器：送出 prompt，取回模型的原始文字。
// 實作不得檢查回應的語意內容，每次呼叫至多一次對外請求。
type Transformer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// TransformerFunc 讓普通函式滿足 Transformer
type TransformerFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Complete 實現 Transformer 介面
func (f TransformerFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
