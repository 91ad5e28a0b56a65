// Package recipe 定義食譜資料模型與純函式的篩選邏輯
package recipe

import (
	"recipe-manager/internal/pkg/common"
)

// Recipe 遠端食譜集合中的一筆記錄
type Recipe struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Cuisine     string `json:"cuisine"`
}

// Fields 新增或更新食譜時送出的欄位
type Fields struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Cuisine     string `json:"cuisine"`
}

// AllCuisines 代表「全部」的料理篩選值
const AllCuisines = ""

// Fields 取出可編輯的欄位
func (r Recipe) Fields() Fields {
	return Fields{
		Name:        r.Name,
		Ingredients: r.Ingredients,
		Cuisine:     r.Cuisine,
	}
}

// Validate 三個欄位都必須有值
func (f Fields) Validate() error {
	if f.Name == "" || f.Ingredients == "" || f.Cuisine == "" {
		return common.NewValidationError(common.MsgFieldsRequired)
	}
	return nil
}

// IsZero 是否為空白表單
func (f Fields) IsZero() bool {
	return f == Fields{}
}

// Find 依 ID 在列表中尋找食譜
func Find(recipes []Recipe, id string) (Recipe, bool) {
	for _, r := range recipes {
		if r.ID == id {
			return r, true
		}
	}
	return Recipe{}, false
}

// RemoveByID 移除所有符合 ID 的記錄，保留其餘順序
func RemoveByID(recipes []Recipe, id string) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// Cuisines 依首次出現順序回傳不重複的料理類別
func Cuisines(recipes []Recipe) []string {
	seen := make(map[string]struct{}, len(recipes))
	out := make([]string, 0)
	for _, r := range recipes {
		if _, ok := seen[r.Cuisine]; ok {
			continue
		}
		seen[r.Cuisine] = struct{}{}
		out = append(out, r.Cuisine)
	}
	return out
}

// FilterByCuisine 依料理類別篩選；AllCuisines 回傳全部
func FilterByCuisine(recipes []Recipe, cuisine string) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if cuisine == AllCuisines || r.Cuisine == cuisine {
			out = append(out, r)
		}
	}
	return out
}

// Clone 複製列表，避免外部修改內部狀態
func Clone(recipes []Recipe) []Recipe {
	out := make([]Recipe, len(recipes))
	copy(out, recipes)
	return out
}
