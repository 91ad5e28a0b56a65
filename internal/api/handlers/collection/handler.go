// Package collection 將畫面意圖（intent）轉為會話中食譜集合客戶端的操作
package collection

import (
	"context"
	"errors"
	"net/http"

	"recipe-manager/internal/core/collection"
	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/core/session"
	"recipe-manager/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 每個意圖都回傳會話目前的畫面狀態
type Response struct {
	SessionID string           `json:"session_id"`
	View      *collection.View `json:"view,omitempty"`
	Error     string           `json:"error,omitempty"`
	Code      string           `json:"code,omitempty"`
}

// SearchRequest 搜尋意圖
type SearchRequest struct {
	Query string `json:"query"`
}

// SubmitRequest 送出表單；欄位檢查由集合客戶端負責
type SubmitRequest struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Cuisine     string `json:"cuisine"`
}

// CuisineRequest 選擇料理篩選
type CuisineRequest struct {
	Cuisine string `json:"cuisine"`
}

// Handler 集合意圖處理程序
type Handler struct {
	sessions *session.Registry
}

// NewHandler 創建集合意圖處理程序
func NewHandler(sessions *session.Registry) *Handler {
	return &Handler{sessions: sessions}
}

// Mount 建立會話並載入集合
func (h *Handler) Mount(c *gin.Context) {
	s, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		writeError(c, "", err)
		return
	}
	view := s.Client.View()
	c.JSON(http.StatusCreated, Response{SessionID: s.ID, View: &view})
}

// Unmount 關閉會話
func (h *Handler) Unmount(c *gin.Context) {
	sid := c.Param("sid")
	if err := h.sessions.Close(sid); err != nil {
		writeError(c, sid, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// View 取得畫面狀態
func (h *Handler) View(c *gin.Context) {
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		return nil
	})
}

// Fetch 重新載入完整集合
func (h *Handler) Fetch(c *gin.Context) {
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		return client.Fetch(ctx)
	})
}

// Search 以查詢字串取代鏡像
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if !bind(c, &req) {
		return
	}
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		return client.Search(ctx, req.Query)
	})
}

// Submit 新增或更新（取決於是否正在編輯）
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if !bind(c, &req) {
		return
	}
	fields := recipe.Fields{Name: req.Name, Ingredients: req.Ingredients, Cuisine: req.Cuisine}
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		return client.Submit(ctx, fields)
	})
}

// Delete 刪除食譜
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		return client.Delete(ctx, id)
	})
}

// BeginEdit 開啟編輯視窗
func (h *Handler) BeginEdit(c *gin.Context) {
	id := c.Param("id")
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		_, err := client.BeginEdit(id)
		return err
	})
}

// ToggleFavorite 切換收藏
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		_, err := client.ToggleFavorite(id)
		return err
	})
}

// SelectCuisine 設定料理篩選
func (h *Handler) SelectCuisine(c *gin.Context) {
	var req CuisineRequest
	if !bind(c, &req) {
		return
	}
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		client.SelectCuisine(req.Cuisine)
		return nil
	})
}

// OpenModal 以新增模式開啟視窗
func (h *Handler) OpenModal(c *gin.Context) {
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		client.OpenModal()
		return nil
	})
}

// CloseModal 關閉視窗
func (h *Handler) CloseModal(c *gin.Context) {
	h.with(c, func(ctx context.Context, client *collection.Client) error {
		client.CloseModal()
		return nil
	})
}

// with 取出會話、執行意圖，並以畫面狀態回應
func (h *Handler) with(c *gin.Context, intent func(ctx context.Context, client *collection.Client) error) {
	sid := c.Param("sid")
	s, err := h.sessions.Get(sid)
	if err != nil {
		writeError(c, sid, err)
		return
	}

	err = intent(c.Request.Context(), s.Client)
	view := s.Client.View()
	if err != nil {
		common.LogDebug("Intent failed",
			zap.String("session_id", sid),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		resp := errorResponse(sid, err)
		resp.View = &view
		c.JSON(statusOf(err), resp)
		return
	}

	c.JSON(http.StatusOK, Response{SessionID: sid, View: &view})
}

func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			SessionID: c.Param("sid"),
			Error:     "Invalid request format",
			Code:      common.ErrCodeInvalidRequest,
		})
		return false
	}
	return true
}

func writeError(c *gin.Context, sid string, err error) {
	_ = c.Error(err)
	c.JSON(statusOf(err), errorResponse(sid, err))
}

func errorResponse(sid string, err error) Response {
	resp := Response{SessionID: sid, Error: err.Error(), Code: common.ErrCodeInternalError}
	var ce *common.CustomError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		resp.Code = common.ErrCodeGatewayTimeout
		resp.Error = common.ErrGatewayTimeout.Message
	case common.IsValidationError(err):
		resp.Code = common.ErrCodeInvalidRequest
	case errors.As(err, &ce):
		resp.Code = ce.Code
		resp.Error = ce.Message
	}
	return resp
}

func statusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return common.StatusOf(err)
}
