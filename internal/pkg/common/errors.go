package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrNotFound) 對包裝後的錯誤也成立
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Code == e.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 正規化後仍缺少必要欄位
type ValidationError struct {
	MissingFields []string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.MissingFields, ", ")
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(fields ...string) error {
	return &ValidationError{MissingFields: fields}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ParseError 模型輸出中找不到或無法解析 JSON 物件
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return "parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError 創建解析錯誤
func NewParseError(reason string, err error) error {
	return &ParseError{Reason: reason, Err: err}
}

// TransformerUnavailableError 呼叫文字轉換服務失敗（網路、非成功狀態、逾時）
type TransformerUnavailableError struct {
	Err error
}

func (e *TransformerUnavailableError) Error() string {
	return "transformer unavailable: " + e.Err.Error()
}

func (e *TransformerUnavailableError) Unwrap() error {
	return e.Err
}

// NewTransformerUnavailable 包裝傳輸層錯誤
func NewTransformerUnavailable(err error) error {
	var t *TransformerUnavailableError
	if errors.As(err, &t) {
		return err
	}
	return &TransformerUnavailableError{Err: err}
}

// InvalidArgumentError 前置條件不成立，呼叫端必須修正輸入
type InvalidArgumentError struct {
	Code    string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// NewInvalidArgument 創建參數錯誤
func NewInvalidArgument(format string, args ...interface{}) error {
	return &InvalidArgumentError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NewInsufficientSelection 組合餐點時選擇的食譜不足
func NewInsufficientSelection(got, want int) error {
	return &InvalidArgumentError{
		Code:    ErrCodeInsufficientSelection,
		Message: fmt.Sprintf("at least %d recipes are required to compose a meal, got %d", want, got),
	}
}

// IsInsufficientSelection 檢查是否為選擇不足錯誤
func IsInsufficientSelection(err error) bool {
	var e *InvalidArgumentError
	return errors.As(err, &e) && e.Code == ErrCodeInsufficientSelection
}

// PageFetchError 頁面抓取失敗；只在匯入流程內部被吸收
type PageFetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *PageFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func (e *PageFetchError) Unwrap() error {
	return e.Err
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest        = "INVALID_REQUEST"        // 400
	ErrCodeValidation            = "VALIDATION_ERROR"       // 400
	ErrCodeInvalidArgument       = "INVALID_ARGUMENT"       // 400
	ErrCodeInsufficientSelection = "INSUFFICIENT_SELECTION" // 400
	ErrCodeUnauthorized          = "UNAUTHORIZED"           // 401
	ErrCodeForbidden             = "FORBIDDEN"              // 403
	ErrCodeNotFound              = "NOT_FOUND"              // 404
	ErrCodeTooManyRequests       = "TOO_MANY_REQUESTS"      // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError          = "INTERNAL_ERROR"          // 500
	ErrCodeParse                  = "PARSE_ERROR"             // 502
	ErrCodeTransformerUnavailable = "TRANSFORMER_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout         = "GATEWAY_TIMEOUT"         // 504
)

// 預定義錯誤
var (
	ErrInvalidRequest = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "未授權的訪問", http.StatusUnauthorized, nil)
	ErrForbidden      = NewError(ErrCodeForbidden, "禁止訪問", http.StatusForbidden, nil)
	ErrNotFound       = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrInternalError  = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
)

// NewNotFound 指定資源不存在
func NewNotFound(kind, id string) error {
	return NewError(ErrCodeNotFound, fmt.Sprintf("%s %s not found", kind, id), http.StatusNotFound, nil)
}

// HTTPError 將錯誤對應到 HTTP 狀態碼與回應內容
func HTTPError(err error) (int, ErrorResponse) {
	var (
		validation  *ValidationError
		parse       *ParseError
		unavailable *TransformerUnavailableError
		invalid     *InvalidArgumentError
		custom      *CustomError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeValidation, Message: err.Error()}
	case errors.As(err, &invalid):
		return http.StatusBadRequest, ErrorResponse{Code: invalid.Code, Message: invalid.Message}
	case errors.As(err, &parse):
		return http.StatusBadGateway, ErrorResponse{Code: ErrCodeParse, Message: "無法解析 AI 回應", Details: err.Error()}
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Code: ErrCodeTransformerUnavailable, Message: "AI 服務暫時不可用", Details: err.Error()}
	case errors.As(err, &custom):
		return custom.Status, ErrorResponse{Code: custom.Code, Message: custom.Message}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: ErrCodeInternalError, Message: "服務器內部錯誤"}
	}
}
