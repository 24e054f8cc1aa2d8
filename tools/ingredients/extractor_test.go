package ingredients_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/mocks/mockllms"
	"github.com/effective-security/toolbelt/pkg/llms"
	"github.com/effective-security/toolbelt/tools/ingredients"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func reply(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content: content,
				GenerationInfo: map[string]any{
					"InputTokens":  int64(120),
					"OutputTokens": int64(30),
					"TotalTokens":  int64(150),
				},
			},
		},
	}
}

func TestExtractor(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	model.EXPECT().GetName().Return("gemini-test").AnyTimes()

	_, err := ingredients.NewExtractor(nil)
	assert.EqualError(t, err, "model is required")

	_, err = ingredients.NewExtractor(model, ingredients.WithPrompt("{{ .RecipeText "))
	assert.Error(t, err)

	e, err := ingredients.NewExtractor(model, ingredients.WithTimeout(time.Second))
	require.NoError(t, err)

	prompt, err := e.Prompt("  Mix 2 cups flour with 2 eggs.\n")
	require.NoError(t, err)
	assert.Contains(t, prompt, "RECIPE TEXT:\nMix 2 cups flour with 2 eggs.\n")
	assert.Contains(t, prompt, `"name": "salt to taste"`)

	t.Run("json", func(t *testing.T) {
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				require.Len(t, msgs, 2)
				assert.Equal(t, llms.RoleSystem, msgs[0].Role)
				assert.Contains(t, msgs[1].Text(), "Mix flour")
				return reply("```json\n[{\"quantity\": \"2\", \"unit\": \"cups\", \"name\": \"flour\"}]\n```"), nil
			})

		res := e.Extract(ctx, "Mix flour")
		assert.True(t, res.Success)
		assert.Empty(t, res.Warning)
		assert.Equal(t, []ingredients.Ingredient{{Quantity: "2", Unit: "cups", Name: "flour"}}, res.Ingredients)
	})

	t.Run("fallback", func(t *testing.T) {
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(reply("2 cups flour\nsalt to taste"), nil)

		res := e.Extract(ctx, "Mix flour")
		assert.True(t, res.Success)
		assert.Equal(t, ingredients.WarningFallback, res.Warning)
		assert.Len(t, res.Ingredients, 2)
	})

	t.Run("model error", func(t *testing.T) {
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("quota exceeded"))

		res := e.Extract(ctx, "Mix flour")
		assert.False(t, res.Success)
		assert.Equal(t, "ingredient extraction error: quota exceeded", res.Error)
		assert.Empty(t, res.Ingredients)
	})

	t.Run("empty reply", func(t *testing.T) {
		model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&llms.ContentResponse{}, nil)

		res := e.Extract(ctx, "Mix flour")
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "ingredient extraction error")
	})
}

func TestTool(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	model := mockllms.NewMockModel(ctrl)
	model.EXPECT().GetName().Return("gemini-test").AnyTimes()

	e, err := ingredients.NewExtractor(model)
	require.NoError(t, err)
	tool, err := ingredients.NewTool(e)
	require.NoError(t, err)
	assert.Equal(t, ingredients.ToolName, tool.Name())

	_, err = tool.Call(ctx, `{"recipe_text": ""}`)
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidInput))

	_, err = tool.Call(ctx, "no json")
	assert.True(t, errors.Is(err, chatmodel.ErrFailedUnmarshalInput))

	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(reply(`[{"quantity": "3", "unit": "", "name": "apples"}]`), nil)

	res, err := tool.Call(ctx, `{"recipe_text": "Peel 3 apples."}`)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"ingredients":[{"quantity":"3","unit":"","name":"apples"}]}`, res)
}
