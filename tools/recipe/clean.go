package recipe

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	skipElements = map[atom.Atom]bool{
		atom.Script:   true,
		atom.Style:    true,
		atom.Nav:      true,
		atom.Footer:   true,
		atom.Header:   true,
		atom.Noscript: true,
	}

	blockElements = map[atom.Atom]bool{
		atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
		atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
		atom.Figcaption: true, atom.Figure: true, atom.Form: true,
		atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
		atom.Hr: true, atom.Li: true, atom.Main: true, atom.Ol: true, atom.P: true,
		atom.Pre: true, atom.Section: true, atom.Table: true, atom.Td: true, atom.Th: true,
		atom.Title: true, atom.Tr: true, atom.Ul: true,
	}

	reNoise = regexp.MustCompile(`(?i)(ad|advertisement|sidebar|popup|modal|cookie|consent)`)
)

// Page is the readable content of HTML page
type Page struct {
	Title string
	Text  string
}

// Clean drops scripts, styles, navigation, footers, headers
// and the elements with ad-like classes,
// then returns the text chunks longer than two characters, one per line.
func Clean(doc string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}

	page := &Page{
		Title: findTitle(root),
	}

	var buf strings.Builder
	collectText(root, &buf)

	var chunks []string
	for _, line := range strings.Split(buf.String(), "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			phrase = strings.TrimSpace(phrase)
			if utf8.RuneCountInString(phrase) > 2 {
				chunks = append(chunks, phrase)
			}
		}
	}
	page.Text = strings.Join(chunks, "\n")
	return page, nil
}

func isNoise(n *html.Node) bool {
	if skipElements[n.DataAtom] {
		return true
	}
	for _, a := range n.Attr {
		if a.Key == "class" && reNoise.MatchString(a.Val) {
			return true
		}
	}
	return false
}

func collectText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if isNoise(n) {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
	if n.Type == html.ElementNode && blockElements[n.DataAtom] {
		buf.WriteByte('\n')
	}
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var buf strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				buf.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
