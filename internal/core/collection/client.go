// Package collection 維護遠端食譜集合在記憶體中的鏡像，以及表單、收藏、編輯草稿等畫面狀態。
//
// 所有狀態只能透過 Client 的方法修改。網路請求在鎖外執行，回應回來後才在鎖內套用，
// 因此同一個 Client 可被多個 goroutine 同時呼叫。Fetch 與 Search 共用一個世代計數，
// 較早發出但較晚回來的回應會被丟棄，不會覆蓋較新的鏡像。
//
// 收藏是加入當下從鏡像複製的快照，之後鏡像更新或刪除都不會回頭同步。
package collection

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/core/recipeapi"
	"recipe-manager/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrRecipeNotFound 指定的 ID 不在目前的鏡像中
	ErrRecipeNotFound = common.NewError(common.ErrCodeNotFound, common.MsgRecipeNotFound, http.StatusNotFound, nil)
	// ErrSuperseded 回應已被較新的 Fetch/Search 取代，未套用
	ErrSuperseded = common.NewError(common.ErrCodeConflict, "Response superseded by a newer request", http.StatusConflict, nil)
)

// ModalState 編輯視窗狀態
type ModalState string

const (
	ModalClosed ModalState = "closed"
	ModalCreate ModalState = "create"
	ModalEdit   ModalState = "edit"
)

// Client 食譜集合客戶端
type Client struct {
	api recipeapi.Repository

	mu              sync.Mutex
	mirror          []recipe.Recipe
	favorites       []recipe.Recipe
	favorited       map[string]bool
	draft           *recipe.Recipe
	form            recipe.Fields
	query           string
	selectedCuisine string
	errMsg          string
	modal           ModalState

	// generation 每次 Fetch/Search 發出時遞增
	generation uint64
	pending    int
}

// New 建立客戶端；初始鏡像為空，需呼叫 Fetch 載入
func New(api recipeapi.Repository) *Client {
	return &Client{
		api:       api,
		mirror:    make([]recipe.Recipe, 0),
		favorites: make([]recipe.Recipe, 0),
		favorited: make(map[string]bool),
		modal:     ModalClosed,
	}
}

// Fetch 取得完整集合並整批取代鏡像
func (c *Client) Fetch(ctx context.Context) error {
	gen := c.begin()
	recipes, err := c.api.List(ctx)
	return c.applyMirror(gen, recipes, err, "fetch", common.MsgFetchFailed)
}

// Search 將查詢原樣轉送給遠端，結果整批取代鏡像
func (c *Client) Search(ctx context.Context, query string) error {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()

	gen := c.begin()
	recipes, err := c.api.Search(ctx, query)
	return c.applyMirror(gen, recipes, err, "search", common.MsgSearchFailed)
}

func (c *Client) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.pending++
	return c.generation
}

func (c *Client) applyMirror(gen uint64, recipes []recipe.Recipe, err error, op, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--

	if gen != c.generation {
		common.LogDebug("Dropping superseded response",
			zap.String("op", op),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", c.generation),
		)
		return ErrSuperseded
	}

	if err != nil {
		common.LogError("Recipe collection "+op+" failed", zap.Error(err))
		c.errMsg = msg
		return err
	}

	c.mirror = recipe.Clone(recipes)
	c.errMsg = ""
	return nil
}

// Submit 依是否有編輯草稿決定新增或更新
func (c *Client) Submit(ctx context.Context, fields recipe.Fields) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	if draft != nil {
		return c.Update(ctx, draft.ID, fields)
	}
	return c.Create(ctx, fields)
}

// Create 新增食譜，成功後重新 Fetch
func (c *Client) Create(ctx context.Context, fields recipe.Fields) error {
	return c.write(ctx, fields, func() error {
		return c.api.Create(ctx, fields)
	})
}

// Update 更新指定食譜，成功後重新 Fetch
func (c *Client) Update(ctx context.Context, id string, fields recipe.Fields) error {
	return c.write(ctx, fields, func() error {
		return c.api.Update(ctx, id, fields)
	})
}

func (c *Client) write(ctx context.Context, fields recipe.Fields, send func() error) error {
	c.mu.Lock()
	c.form = fields
	if err := fields.Validate(); err != nil {
		c.errMsg = err.Error()
		c.mu.Unlock()
		return err
	}
	c.pending++
	c.mu.Unlock()

	err := send()

	c.mu.Lock()
	c.pending--
	if err != nil {
		c.errMsg = common.MsgSubmitFailed
		c.mu.Unlock()
		common.LogError("Recipe collection submit failed", zap.Error(err))
		return err
	}

	c.form = recipe.Fields{}
	c.draft = nil
	c.errMsg = ""
	c.modal = ModalClosed
	c.mu.Unlock()

	// 重新同步失敗只反映在錯誤訊息，寫入本身已成功
	if err := c.Fetch(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		common.LogWarn("Resync after submit failed", zap.Error(err))
	}
	return nil
}

// BeginEdit 從鏡像載入食譜到表單並開啟編輯視窗
func (c *Client) BeginEdit(id string) (recipe.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := recipe.Find(c.mirror, id)
	if !ok {
		common.LogWarn("Edit target not in collection", zap.String("recipe_id", id))
		c.errMsg = common.MsgRecipeNotFound
		return recipe.Recipe{}, ErrRecipeNotFound
	}

	c.draft = &r
	c.form = r.Fields()
	c.modal = ModalEdit
	return r, nil
}

// Delete 刪除成功後直接從鏡像移除，不重新 Fetch
func (c *Client) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()

	err := c.api.Delete(ctx, id)

	c.mu.Lock()
	c.pending--
	if err != nil {
		c.errMsg = common.MsgDeleteFailed
		c.mu.Unlock()
		common.LogError("Recipe collection delete failed", zap.String("recipe_id", id), zap.Error(err))
		return err
	}

	c.mirror = recipe.RemoveByID(c.mirror, id)
	c.errMsg = ""
	// 刪除前已發出的 Fetch/Search 可能仍帶著這筆記錄
	c.generation++
	c.mu.Unlock()
	return nil
}

// ToggleFavorite 切換收藏狀態，回傳切換後是否為收藏。
// 與 BeginEdit 相同，鏡像中找不到的 ID 會寫入錯誤訊息
func (c *Client) ToggleFavorite(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.favorited[id] {
		c.favorited[id] = false
		c.favorites = recipe.RemoveByID(c.favorites, id)
		return false, nil
	}

	r, ok := recipe.Find(c.mirror, id)
	if !ok {
		common.LogWarn("Favorite target not in collection", zap.String("recipe_id", id))
		c.errMsg = common.MsgRecipeNotFound
		return false, ErrRecipeNotFound
	}
	c.favorited[id] = true
	c.favorites = append(c.favorites, r)
	return true, nil
}

// SelectCuisine 設定料理篩選，空字串代表全部
func (c *Client) SelectCuisine(cuisine string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedCuisine = cuisine
}

// OpenModal 以新增模式開啟視窗；若留有編輯草稿則一併捨棄
func (c *Client) OpenModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft != nil {
		c.draft = nil
		c.form = recipe.Fields{}
	}
	c.modal = ModalCreate
}

// CloseModal 關閉視窗並捨棄草稿與表單
func (c *Client) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = nil
	c.form = recipe.Fields{}
	c.modal = ModalClosed
}

// View 畫面所需的唯讀快照
type View struct {
	Recipes         []recipe.Recipe `json:"recipes"`
	Displayed       []recipe.Recipe `json:"displayed"`
	Favorites       []recipe.Recipe `json:"favorites"`
	Favorited       map[string]bool `json:"favorited"`
	Cuisines        []string        `json:"cuisines"`
	SelectedCuisine string          `json:"selected_cuisine"`
	Query           string          `json:"query"`
	Error           string          `json:"error,omitempty"`
	Modal           ModalState      `json:"modal"`
	Draft           *recipe.Recipe  `json:"draft,omitempty"`
	Form            recipe.Fields   `json:"form"`
	Pending         bool            `json:"pending"`
}

// View 取得目前狀態的複本
func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	favorited := make(map[string]bool, len(c.favorited))
	for id, on := range c.favorited {
		if on {
			favorited[id] = true
		}
	}

	var draft *recipe.Recipe
	if c.draft != nil {
		d := *c.draft
		draft = &d
	}

	return View{
		Recipes:         recipe.Clone(c.mirror),
		Displayed:       recipe.FilterByCuisine(c.mirror, c.selectedCuisine),
		Favorites:       recipe.Clone(c.favorites),
		Favorited:       favorited,
		Cuisines:        recipe.Cuisines(c.mirror),
		SelectedCuisine: c.selectedCuisine,
		Query:           c.query,
		Error:           c.errMsg,
		Modal:           c.modal,
		Draft:           draft,
		Form:            c.form,
		Pending:         c.pending > 0,
	}
}
