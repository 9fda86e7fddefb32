package lists

import (
	"net/http"
	"strconv"

	"smartlist/internal/api/handlers"
	"smartlist/internal/api/middleware"
	"smartlist/internal/core/grocery"
	listService "smartlist/internal/core/lists"
	"smartlist/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// CreateRequest 新增清單
type CreateRequest struct {
	Name string `json:"name"`
}

// AddItemsRequest 新增項目；items 與 name 擇一
type AddItemsRequest struct {
	Items []grocery.Item `json:"items"`
	Name  string         `json:"name"`
}

// SetActiveRequest 設定目前清單
type SetActiveRequest struct {
	ListID string `json:"list_id" binding:"required"`
}

// Handler 購物清單處理器
type Handler struct {
	svc *listService.Service
}

// NewHandler 創建清單處理器
func NewHandler(svc *listService.Service) *Handler {
	return &Handler{svc: svc}
}

// HandleAll 全部清單
func (h *Handler) HandleAll(c *gin.Context) {
	all, err := h.svc.All(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": all})
}

// HandleGet 單一清單
func (h *Handler) HandleGet(c *gin.Context) {
	middleware.AnnotateList(c, c.Param("id"))
	l, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// HandleCreate 新增清單
func (h *Handler) HandleCreate(c *gin.Context) {
	var req CreateRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	l, err := h.svc.Create(c.Request.Context(), req.Name)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// HandleDelete 刪除清單
func (h *Handler) HandleDelete(c *gin.Context) {
	middleware.AnnotateList(c, c.Param("id"))
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleAddItems 新增項目
func (h *Handler) HandleAddItems(c *gin.Context) {
	middleware.AnnotateList(c, c.Param("id"))
	var req AddItemsRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if len(req.Items) == 0 {
		item, err := h.svc.AddItem(ctx, c.Param("id"), req.Name)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
		return
	}

	l, err := h.svc.AddItems(ctx, c.Param("id"), req.Items)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// HandleToggleItem 切換完成狀態
func (h *Handler) HandleToggleItem(c *gin.Context) {
	middleware.AnnotateList(c, c.Param("id"))
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	item, err := h.svc.ToggleItem(c.Request.Context(), c.Param("id"), itemID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// HandleDeleteItem 移除項目
func (h *Handler) HandleDeleteItem(c *gin.Context) {
	middleware.AnnotateList(c, c.Param("id"))
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteItem(c.Request.Context(), c.Param("id"), itemID); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleActive 目前清單
func (h *Handler) HandleActive(c *gin.Context) {
	l, err := h.svc.Active(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// HandleSetActive 設定目前清單
func (h *Handler) HandleSetActive(c *gin.Context) {
	var req SetActiveRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	middleware.AnnotateList(c, req.ListID)
	ctx := c.Request.Context()
	if err := h.svc.SetActive(ctx, req.ListID); err != nil {
		handlers.RespondError(c, err)
		return
	}
	h.HandleActive(c)
}

func parseItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("itemID"), 10, 64)
	if err != nil {
		handlers.RespondError(c, common.NewValidationError("item id must be an integer"))
		return 0, false
	}
	return id, true
}
