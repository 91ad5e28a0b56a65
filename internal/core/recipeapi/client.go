// Package recipeapi 封裝遠端食譜 API（REST 資源集合）的存取
package recipeapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Repository 食譜 API 的操作
type Repository interface {
	// List 取得完整集合，保留伺服器回傳的順序
	List(ctx context.Context) ([]recipe.Recipe, error)
	// Search 查詢語意完全由遠端決定
	Search(ctx context.Context, query string) ([]recipe.Recipe, error)
	Create(ctx context.Context, fields recipe.Fields) error
	Update(ctx context.Context, id string, fields recipe.Fields) error
	Delete(ctx context.Context, id string) error
}

type requestIDKey struct{}

// WithRequestID 將請求 ID 放入 context，轉送給食譜 API
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFrom 取出 context 中的請求 ID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Client 食譜 API 客戶端
type Client struct {
	client *resty.Client
}

var _ Repository = (*Client)(nil)

// NewClient 創建食譜 API 客戶端
func NewClient(cfg config.RecipeAPIConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{client: client}
}

// List 取得所有食譜
func (c *Client) List(ctx context.Context) ([]recipe.Recipe, error) {
	resp, err := c.do(ctx, http.MethodGet, "/", c.request(ctx))
	if err != nil {
		return nil, err
	}
	return decodeRecipes(resp)
}

// Search 以查詢字串取得符合的食譜，查詢字串原樣轉送
func (c *Client) Search(ctx context.Context, query string) ([]recipe.Recipe, error) {
	req := c.request(ctx).SetPathParam("query", query)
	resp, err := c.do(ctx, http.MethodGet, "/{query}", req)
	if err != nil {
		return nil, err
	}
	return decodeRecipes(resp)
}

// Create 新增食譜；回應內容不使用
func (c *Client) Create(ctx context.Context, fields recipe.Fields) error {
	_, err := c.do(ctx, http.MethodPost, "/", c.request(ctx).SetBody(fields))
	return err
}

// Update 更新指定食譜；回應內容不使用
func (c *Client) Update(ctx context.Context, id string, fields recipe.Fields) error {
	req := c.request(ctx).SetPathParam("id", id).SetBody(fields)
	_, err := c.do(ctx, http.MethodPut, "/{id}", req)
	return err
}

// Delete 刪除指定食譜
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/{id}", c.request(ctx).SetPathParam("id", id))
	return err
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if id := RequestIDFrom(ctx); id != "" {
		req.SetHeader("X-Request-ID", id)
	}
	return req
}

// do 發送請求，傳輸錯誤與非 2xx 狀態都轉為 CustomError
func (c *Client) do(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	start := time.Now()
	resp, err := req.Execute(method, path)
	duration := time.Since(start)

	if err != nil {
		err = common.NewError(common.ErrCodeUpstreamError, "Recipe API request failed", http.StatusBadGateway, err)
		common.LogUpstreamCall(method, path, 0, duration, err)
		return nil, err
	}

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		err = common.NewError(common.ErrCodeUpstreamError,
			fmt.Sprintf("Recipe API returned status %d", resp.StatusCode()),
			http.StatusBadGateway, nil)
		common.LogUpstreamCall(method, path, resp.StatusCode(), duration, err)
		common.LogDebug("Recipe API error body",
			zap.String("request_id", RequestIDFrom(ctx)),
			zap.String("body", common.Excerpt(resp.String(), 512)),
		)
		return nil, err
	}

	common.LogUpstreamCall(method, path, resp.StatusCode(), duration, nil)
	return resp, nil
}

func decodeRecipes(resp *resty.Response) ([]recipe.Recipe, error) {
	recipes := make([]recipe.Recipe, 0)
	body := resp.Body()
	if len(body) == 0 {
		return recipes, nil
	}
	if err := common.ParseJSONBytes(body, &recipes); err != nil {
		return nil, common.NewError(common.ErrCodeUpstreamError, "Recipe API returned an invalid body", http.StatusBadGateway, err)
	}
	if recipes == nil {
		recipes = make([]recipe.Recipe, 0)
	}
	return recipes, nil
}
