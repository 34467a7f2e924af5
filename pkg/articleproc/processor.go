// Package articleproc reduces encyclopedia HTML pages to the plain prose the date
// scanner reads: one paragraph per line, citations and markup removed.
package articleproc

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Info contains the cleaned prose and metadata.
type Info struct {
	Prose      string `json:"prose"`
	Paragraphs int    `json:"paragraphs"`
	WordCount  int    `json:"wordCount"`
	IsReliable bool   `json:"isReliable"`
}

// contentClasses mark the article body container on the encyclopedia sites we see pasted.
var contentClasses = []string{"mw-parser-output", "module-article-full_content", "article-content", "voce"}

var htmlTag = regexp.MustCompile(`(?i)<(p|div|html|body|article|span|br|h[1-6])[\s>/]`)

// LooksLikeHTML reports whether text appears to be markup rather than plain prose.
func LooksLikeHTML(text string) bool {
	return htmlTag.MatchString(text)
}

// Normalize returns text unchanged when it is plain prose and the extracted prose when
// it is HTML.
func Normalize(text string) (string, error) {
	if !LooksLikeHTML(text) {
		return text, nil
	}
	info, err := ExtractProse(strings.NewReader(text))
	if err != nil {
		return "", err
	}
	return info.Prose, nil
}

// ExtractProse parses the HTML and extracts main body paragraphs.
func ExtractProse(r io.Reader) (*Info, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var output []string
	var totalWords int

	// 1. Find the container which holds the actual article content
	content := findContent(doc)
	if content == nil {
		// Fallback to body if we can't find a known container
		content = findElement(doc, atom.Body)
	}

	if content != nil {
		// 2. Traverse children and extract prose
		// terminal sections usually precede structural noise like reference lists or navboxes.
		collectParagraphs(content, &output, &totalWords)
	}

	return &Info{
		Prose:      strings.Join(output, "\n"),
		Paragraphs: len(output),
		WordCount:  totalWords,
		IsReliable: totalWords > 20, // Arbitrary threshold for "actual content"
	}, nil
}

// collectParagraphs walks the direct children of n and descends into plain section
// wrappers. It returns true once a terminal section is reached.
func collectParagraphs(n *html.Node, output *[]string, words *int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}

		// Terminal containers (reference lists, navboxes) end the article
		if isStructuralNoise(c) {
			return true
		}

		// Stop at terminal headers (only if immediately followed by noise)
		if (c.DataAtom == atom.H2 || c.DataAtom == atom.H3) && isFollowedByStructuralNoise(c) {
			return true
		}

		switch c.DataAtom {
		case atom.P:
			text := cleanParagraph(c)
			if text != "" {
				*output = append(*output, text)
				*words += countWords(text)
			}
		case atom.Section, atom.Div, atom.Article:
			if collectParagraphs(c, output, words) {
				return true
			}
		}
	}
	return false
}

func findContent(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Div || n.DataAtom == atom.Article || n.DataAtom == atom.Section) {
		for _, a := range n.Attr {
			if a.Key != "class" {
				continue
			}
			for _, cls := range contentClasses {
				if hasClass(a.Val, cls) {
					return n
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findContent(c); res != nil {
			return res
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findElement(c, a); res != nil {
			return res
		}
	}
	return nil
}

func hasClass(attr, cls string) bool {
	for _, f := range strings.Fields(attr) {
		if f == cls {
			return true
		}
	}
	return false
}

// cleanParagraph flattens a paragraph to one line of text.
func cleanParagraph(p *html.Node) string {
	var b strings.Builder
	traverseParagraph(p, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func traverseParagraph(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}

	if n.Type == html.ElementNode {
		// Skip unwanted elements inside paragraphs
		// - <sup> for citations [1][2]
		// - <style>, <script>
		// - .mw-empty-elt
		if n.DataAtom == atom.Sup || n.DataAtom == atom.Style || n.DataAtom == atom.Script {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteString(" ")
			return
		}
		for _, a := range n.Attr {
			if a.Key == "class" && (strings.Contains(a.Val, "mw-empty-elt") || strings.Contains(a.Val, "reference")) {
				return
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		traverseParagraph(c, b)
	}
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func isStructuralNoise(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			val := strings.ToLower(a.Val)
			// Navigation boxes, reference lists, and bibliographies are almost always terminal.
			if strings.Contains(val, "reflist") ||
				strings.Contains(val, "references") ||
				strings.Contains(val, "navbox") ||
				strings.Contains(val, "bibliografia") ||
				strings.Contains(val, "asbox") || // Stub notice
				strings.Contains(val, "catlinks") {
				return true
			}
		}
	}
	return false
}

func isFollowedByStructuralNoise(n *html.Node) bool {
	// A header is terminal if it's followed immediately by noisy containers.
	// We allow for one empty text node or similar in between.
	limit := 1
	for next := n.NextSibling; next != nil && limit > 0; next = next.NextSibling {
		if next.Type == html.ElementNode {
			if isStructuralNoise(next) {
				return true
			}
			limit--
		}
	}
	return false
}
