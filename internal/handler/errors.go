package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/junki/portfolio-api/internal/middleware"
	"github.com/junki/portfolio-api/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIError はAPIErrorをコードに対応するステータスで書き込む。
func writeAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusForCode(apiErr.Code), apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPレスポンスに変換する。
// APIError以外のエラーは詳細をログに記録し、500として扱う。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIError(w, apiErr)
		return
	}

	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// statusForCode はAPIErrorコードからHTTPステータスコードにマッピングする。
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeInvalidRequest, model.ErrCodeMissingFields, model.ErrCodeContentRequired:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeAdminRequired:
		return http.StatusForbidden
	case model.ErrCodeCommentNotFound, model.ErrCodeNotFound, model.ErrCodeUnknownProvider:
		return http.StatusNotFound
	case model.ErrCodeOAuthFailed:
		return http.StatusBadRequest
	case model.ErrCodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
