package recipe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/tools/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipePage = `<!DOCTYPE html>
<html>
<head>
  <title> Classic Carbonara </title>
  <style>body { color: red; }</style>
  <script>var tracking = "abcdef";</script>
</head>
<body>
  <header>Site Header Menu</header>
  <nav>Home | Recipes | About</nav>
  <div class="ad-banner">Buy now and save</div>
  <div class="cookie-notice">We use cookies</div>
  <main>
    <h1>Carbonara</h1>
    <ul>
      <li>200 g spaghetti</li>
      <li>2 eggs</li>
      <li>salt to taste</li>
    </ul>
    <p>Boil the pasta.  Mix with eggs.</p>
    <p>ok</p>
    <!-- comment text -->
  </main>
  <footer>Copyright footer</footer>
</body>
</html>`

func TestClean(t *testing.T) {
	page, err := recipe.Clean(recipePage)
	require.NoError(t, err)
	assert.Equal(t, "Classic Carbonara", page.Title)
	assert.Equal(t, "Classic Carbonara\nCarbonara\n200 g spaghetti\n2 eggs\nsalt to taste\nBoil the pasta.\nMix with eggs.", page.Text)

	page, err = recipe.Clean("plain text without markup")
	require.NoError(t, err)
	assert.Empty(t, page.Title)
	assert.Equal(t, "plain text without markup", page.Text)
}

func TestScrapeTool(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, recipe.DefaultUserAgent, r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(recipePage))
	}))
	defer server.Close()

	s := recipe.NewScraper(&recipe.HTTPFetcher{Client: server.Client()}, time.Second)
	tool, err := recipe.NewTool(s)
	require.NoError(t, err)
	assert.Equal(t, recipe.ToolName, tool.Name())

	_, err = tool.Call(ctx, `{"url": "not a url"}`)
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidInput))

	res, err := tool.Run(ctx, &recipe.ScrapeRequest{URL: server.URL + "/carbonara"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, server.URL+"/carbonara", res.URL)
	assert.Equal(t, "Classic Carbonara", res.Title)
	assert.Contains(t, res.RecipeText, "200 g spaghetti")
	assert.NotContains(t, res.RecipeText, "cookies")
	assert.Equal(t, 17, res.WordCount)
	assert.Equal(t, len(res.RecipeText), res.CharacterCount)

	res, err = tool.Run(ctx, &recipe.ScrapeRequest{URL: server.URL + "/missing"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "scraping error: unexpected status: 404 Not Found", res.Error)
}

type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestScrapeTimeout(t *testing.T) {
	s := recipe.NewScraper(blockingFetcher{}, 10*time.Millisecond)
	res, err := s.Scrape(context.Background(), &recipe.ScrapeRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "scraping error: context deadline exceeded", res.Error)
}

func TestChromeFetcher(t *testing.T) {
	// uncomment to run with local Chrome
	t.Skip("skipping browser test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(recipePage))
	}))
	defer server.Close()

	f := &recipe.ChromeFetcher{SettleDelay: -1}
	doc, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, doc, "200 g spaghetti")
}
