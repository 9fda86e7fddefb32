package handlers

import (
	"context"
	"errors"
	"net/http"

	"smartlist/internal/core/lists"
	"smartlist/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusClientClosedRequest 用戶端在回應前中斷連線
const StatusClientClosedRequest = 499

// RespondError 將錯誤轉為統一的 JSON 錯誤響應
func RespondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		common.LogError("Request failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func errorResponse(err error) (int, common.ErrorResponse) {
	if left, ok := common.IsQuotaExceeded(err); ok {
		return http.StatusPaymentRequired, common.ErrorResponse{
			Code:     common.ErrCodeQuotaExceeded,
			Message:  err.Error(),
			UsesLeft: &left,
		}
	}

	var custom *common.CustomError
	switch {
	case common.IsValidationError(err):
		return http.StatusBadRequest, common.ErrorResponse{Code: common.ErrCodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, lists.ErrListNotFound), errors.Is(err, lists.ErrItemNotFound):
		return http.StatusNotFound, common.ErrorResponse{Code: common.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, common.ErrorResponse{Code: common.ErrCodeRequestTimeout, Message: "request timeout"}
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, common.ErrorResponse{Code: common.ErrCodeClientClosed, Message: "client closed request"}
	case errors.As(err, &custom):
		return custom.Status, common.ErrorResponse{Code: custom.Code, Message: custom.Message}
	default:
		return http.StatusInternalServerError, common.ErrorResponse{Code: common.ErrCodeInternalError, Message: "internal server error"}
	}
}

// BindJSON 解析 JSON 請求體，失敗時回應 400
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		common.LogDebug("Invalid request body", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "invalid request body",
		})
		return false
	}
	return true
}
