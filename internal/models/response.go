package models

// ApiResponse はすべてのエンドポイント共通のレスポンス形式です。
// 成功時: {statusCode, data, message, success: true}
// 失敗時: {statusCode, data: null, message, success: false}
type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// NewApiResponse は成功レスポンスを作成します。
func NewApiResponse(statusCode int, data any, message string) *ApiResponse {
	return &ApiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	}
}

// ApiError はHTTPステータスコード付きのアプリケーションエラーです。
// ハンドラーから返されたものは境界のミドルウェアで ApiResponse に変換されます。
type ApiError struct {
	StatusCode int
	Message    string
}

func (e *ApiError) Error() string {
	return e.Message
}

// NewApiError は新しいApiErrorを作成します。
func NewApiError(statusCode int, message string) *ApiError {
	return &ApiError{StatusCode: statusCode, Message: message}
}

// Response はエラーを共通レスポンス形式に変換します。
func (e *ApiError) Response() *ApiResponse {
	return &ApiResponse{
		StatusCode: e.StatusCode,
		Data:       nil,
		Message:    e.Message,
		Success:    false,
	}
}
