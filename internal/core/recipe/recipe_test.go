package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/pkg/common"
)

var sample = []Recipe{
	{ID: "1", Name: "Carbonara", Ingredients: "eggs, guanciale", Cuisine: "Italian"},
	{ID: "2", Name: "Lasagna", Ingredients: "pasta, ragu", Cuisine: "Italian"},
	{ID: "3", Name: "Tacos", Ingredients: "tortilla, beef", Cuisine: "Mexican"},
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		ok     bool
	}{
		{"complete", Fields{Name: "A", Ingredients: "x", Cuisine: "Thai"}, true},
		{"missing name", Fields{Ingredients: "x", Cuisine: "Thai"}, false},
		{"missing ingredients and cuisine", Fields{Name: "A"}, false},
		{"empty", Fields{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, common.IsValidationError(err))
			assert.Equal(t, "Name, ingredients, and cuisine are required", err.Error())
		})
	}
}

func TestCuisinesFirstOccurrenceOrder(t *testing.T) {
	assert.Equal(t, []string{"Italian", "Mexican"}, Cuisines(sample))
	assert.Empty(t, Cuisines(nil))
}

func TestFilterByCuisine(t *testing.T) {
	mexican := FilterByCuisine(sample, "Mexican")
	require.Len(t, mexican, 1)
	assert.Equal(t, "3", mexican[0].ID)

	assert.Equal(t, sample, FilterByCuisine(sample, AllCuisines))
	assert.Empty(t, FilterByCuisine(sample, "French"))
}

func TestFindAndRemove(t *testing.T) {
	r, ok := Find(sample, "2")
	require.True(t, ok)
	assert.Equal(t, "Lasagna", r.Name)

	_, ok = Find(sample, "42")
	assert.False(t, ok)

	dup := append(Clone(sample), sample[0])
	left := RemoveByID(dup, "1")
	assert.Equal(t, []Recipe{sample[1], sample[2]}, left)
}

func TestRecipeFields(t *testing.T) {
	f := sample[0].Fields()
	assert.Equal(t, Fields{Name: "Carbonara", Ingredients: "eggs, guanciale", Cuisine: "Italian"}, f)
	assert.False(t, f.IsZero())
	assert.True(t, Fields{}.IsZero())
}
