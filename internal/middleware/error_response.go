package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/junki/portfolio-api/internal/model"
)

// ErrorResponseBody はエラーレスポンスのJSONボディ。
// codeで機械的に判別し、categoryとactionで利用者への案内を示す。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse はAPIErrorを指定ステータスのJSONとして書き込む。
// ミドルウェアとハンドラーのすべてのエラー応答はここを通る。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	body := ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response",
			slog.String("code", apiErr.Code),
			slog.String("error", err.Error()),
		)
	}
}

// WriteInternalServerError はINTERNAL_ERRORの500レスポンスを書き込む。
// 原因はログだけに残し、レスポンスには含めない。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
