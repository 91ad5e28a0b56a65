package common

import (
	"errors"
	"net/http"
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

	// category 為 true 的預定義錯誤代表整個錯誤代碼
	category bool
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 目標為預定義的類別錯誤（ErrNotFound 等）時以錯誤代碼比對；
// 其他具名錯誤只與自身相等
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok || !t.category {
		return false
	}
	return t.Code == e.Code
}

func newCategory(code string, message string, status int) *CustomError {
	e := NewError(code, message, status, nil)
	e.category = true
	return e
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

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StatusOf 取得錯誤對應的 HTTP 狀態碼
func StatusOf(err error) int {
	if IsValidationError(err) {
		return http.StatusBadRequest
	}
	var ce *CustomError
	if errors.As(err, &ce) && ce.Status != 0 {
		return ce.Status
	}
	return http.StatusInternalServerError
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"     // 400
	ErrCodeNotFound           = "NOT_FOUND"           // 404
	ErrCodeConflict           = "CONFLICT"            // 409
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"   // 429
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeUpstreamError      = "UPSTREAM_ERROR"      // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 畫面上顯示的錯誤訊息
const (
	MsgFetchFailed      = "Error fetching data"
	MsgSearchFailed     = "Error searching data"
	MsgSubmitFailed     = "Error submitting data"
	MsgDeleteFailed     = "Error deleting data"
	MsgFieldsRequired   = "Name, ingredients, and cuisine are required"
	MsgRecipeNotFound   = "Recipe not found"
	MsgSessionNotFound  = "Session not found"
	MsgTooManySessions  = "Too many sessions"
	MsgDuplicateRequest = "Request too frequent"
)

// 預定義錯誤
var (
	ErrInvalidRequest     = newCategory(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest)
	ErrNotFound           = newCategory(ErrCodeNotFound, "Resource not found", http.StatusNotFound)
	ErrConflict           = newCategory(ErrCodeConflict, "Conflict", http.StatusConflict)
	ErrTooManyRequests    = newCategory(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests)
	ErrInternalError      = newCategory(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError)
	ErrUpstream           = newCategory(ErrCodeUpstreamError, "Recipe API error", http.StatusBadGateway)
	ErrServiceUnavailable = newCategory(ErrCodeServiceUnavailable, "Service unavailable", http.StatusServiceUnavailable)
	ErrGatewayTimeout     = newCategory(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout)
)
