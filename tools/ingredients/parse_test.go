package ingredients_test

import (
	"testing"

	"github.com/effective-security/toolbelt/tools/ingredients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSON(t *testing.T) {
	tcases := []struct {
		name string
		text string
		exp  []ingredients.Ingredient
	}{
		{
			name: "fenced",
			text: "Here you go:\n```json\n[{\"quantity\":\"200\",\"unit\":\"g\",\"name\":\"spaghetti\"},{\"quantity\":\"\",\"unit\":\"\",\"name\":\"salt to taste\"}]\n```\nEnjoy!",
			exp: []ingredients.Ingredient{
				{Quantity: "200", Unit: "g", Name: "spaghetti"},
				{Name: "salt to taste"},
			},
		},
		{
			name: "bare array",
			text: `The ingredients are [{"quantity": "2", "unit": "", "name": "eggs"}] as requested.`,
			exp: []ingredients.Ingredient{
				{Quantity: "2", Name: "eggs"},
			},
		},
		{
			name: "numbers as quantity",
			text: `[{"quantity": 2, "unit": "cups", "name": "flour"}]`,
			exp: []ingredients.Ingredient{
				{Quantity: "2", Unit: "cups", Name: "flour"},
			},
		},
		{
			name: "values unchanged",
			text: `[{"quantity": " 1 ", "unit": "cup ", "name": " brown sugar, packed "}]`,
			exp: []ingredients.Ingredient{
				{Quantity: " 1 ", Unit: "cup ", Name: " brown sugar, packed "},
			},
		},
		{
			name: "object",
			text: `{"ingredients": [{"quantity": "1", "unit": "tbsp", "name": "butter"}]}`,
			exp: []ingredients.Ingredient{
				{Quantity: "1", Unit: "tbsp", Name: "butter"},
			},
		},
		{
			name: "duplicates are kept",
			text: `[{"name": "salt"}, {"name": "salt"}]`,
			exp: []ingredients.Ingredient{
				{Name: "salt"},
				{Name: "salt"},
			},
		},
		{
			name: "empty",
			text: `[]`,
			exp:  []ingredients.Ingredient{},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			res := ingredients.Parse(tc.text)
			assert.True(t, res.Success)
			assert.Empty(t, res.Warning)
			assert.Empty(t, res.Error)
			assert.Equal(t, tc.exp, res.Ingredients)
		})
	}
}

func TestParse_Fallback(t *testing.T) {
	text := "```\n- 2 cups flour\n* salt to taste\n1. 2 eggs\n1/2 tsp baking soda\n1 1/2 cups sugar\n200g butter\n\n3\n```"
	res := ingredients.Parse(text)
	assert.True(t, res.Success)
	assert.Equal(t, ingredients.WarningFallback, res.Warning)
	assert.Equal(t, []ingredients.Ingredient{
		{Quantity: "2", Unit: "cups", Name: "flour"},
		{Quantity: "", Unit: "", Name: "salt to taste"},
		{Quantity: "2", Unit: "", Name: "eggs"},
		{Quantity: "1/2", Unit: "tsp", Name: "baking soda"},
		{Quantity: "1 1/2", Unit: "cups", Name: "sugar"},
		{Quantity: "200", Unit: "g", Name: "butter"},
		{Quantity: "", Unit: "", Name: "3"},
	}, res.Ingredients)

	// broken JSON goes to the fallback as well
	res = ingredients.Parse(`{"ingredients": [{"name": "flour"`)
	assert.True(t, res.Success)
	assert.Equal(t, ingredients.WarningFallback, res.Warning)
	require.Len(t, res.Ingredients, 1)
	assert.Empty(t, res.Ingredients[0].Quantity)

	res = ingredients.Parse(`{"recipe": "none"}`)
	assert.Equal(t, ingredients.WarningFallback, res.Warning)

	res = ingredients.Parse("")
	assert.True(t, res.Success)
	assert.Empty(t, res.Ingredients)
}

func TestParseLines(t *testing.T) {
	tcases := []struct {
		line string
		exp  ingredients.Ingredient
	}{
		{"2 cups flour", ingredients.Ingredient{Quantity: "2", Unit: "cups", Name: "flour"}},
		{"salt to taste", ingredients.Ingredient{Name: "salt to taste"}},
		{"2 eggs", ingredients.Ingredient{Quantity: "2", Name: "eggs"}},
		{"1/2 tsp salt", ingredients.Ingredient{Quantity: "1/2", Unit: "tsp", Name: "salt"}},
		{"2-3 cloves garlic, minced", ingredients.Ingredient{Quantity: "2-3", Unit: "cloves", Name: "garlic, minced"}},
		{"1.5 l milk", ingredients.Ingredient{Quantity: "1.5", Unit: "l", Name: "milk"}},
		{"• fresh basil", ingredients.Ingredient{Name: "fresh basil"}},
	}
	for _, tc := range tcases {
		t.Run(tc.line, func(t *testing.T) {
			list := ingredients.ParseLines(tc.line)
			require.Len(t, list, 1)
			assert.Equal(t, tc.exp, list[0])
		})
	}
}

func TestResultString(t *testing.T) {
	res := &ingredients.Result{
		Success: true,
		Ingredients: []ingredients.Ingredient{
			{Quantity: "2", Unit: "cups", Name: "flour"},
			{Name: "salt to taste"},
		},
	}
	assert.Equal(t, "- 2 cups flour\n- salt to taste\n", res.String())
	assert.Contains(t, res.GetContent(), `"success":true`)
}
