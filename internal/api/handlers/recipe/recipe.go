package recipe

import (
	"net/http"

	"smartlist/internal/api/handlers"
	"smartlist/internal/api/middleware"
	"smartlist/internal/core/grocery"
	recipeService "smartlist/internal/core/recipe"
	"smartlist/internal/core/usage"
	"smartlist/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ParseRequest 食譜解析請求
type ParseRequest struct {
	RecipeText string `json:"recipe_text"`
}

// ParseResponse 食譜解析結果
type ParseResponse struct {
	Items []grocery.Item `json:"items"`
	Usage usage.Stats    `json:"usage"`
}

// PremiumRequest 付費狀態設定
type PremiumRequest struct {
	IsPremium *bool `json:"is_premium" binding:"required"`
}

// Handler 食譜相關處理器
type Handler struct {
	svc *recipeService.Service
}

// NewHandler 創建食譜處理器
func NewHandler(svc *recipeService.Service) *Handler {
	return &Handler{svc: svc}
}

// HandleParse 將食譜文字轉為購物項目
func (h *Handler) HandleParse(c *gin.Context) {
	var req ParseRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	items, err := h.svc.ParseRecipe(ctx, req.RecipeText)
	if err != nil {
		if left, ok := common.IsQuotaExceeded(err); ok {
			middleware.AnnotateParse(c, 0, left)
		}
		handlers.RespondError(c, err)
		return
	}

	stats := h.svc.Stats(ctx)
	middleware.AnnotateParse(c, len(items), stats.UsesLeft)
	common.LogDebug("Recipe parse request completed",
		zap.Int("items", len(items)),
		zap.String("request_id", requestid.Get(c)),
	)
	c.JSON(http.StatusOK, ParseResponse{
		Items: items,
		Usage: stats,
	})
}

// HandleUsage 回傳使用量統計
func (h *Handler) HandleUsage(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats(c.Request.Context()))
}

// HandleQuota 回傳配額檢查結果
func (h *Handler) HandleQuota(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CheckQuota(c.Request.Context()))
}

// HandleSetPremium 設定付費狀態並回傳最新統計
func (h *Handler) HandleSetPremium(c *gin.Context) {
	var req PremiumRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	h.svc.SetPremium(*req.IsPremium)
	c.JSON(http.StatusOK, h.svc.Stats(c.Request.Context()))
}
