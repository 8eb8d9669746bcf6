// Package htmlclean removes quoted replies and forwarded content from
// email HTML. It works on the parsed document, deleting whole subtrees,
// so malformed markup can never leave half a quote behind.
package htmlclean

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultQuoteClass is the marker Gmail puts on quoted replies.
const DefaultQuoteClass = "gmail_quote"

// parse loads html and remembers whether it was a full document or a
// fragment so render can return the same shape.
func parse(src string) (*goquery.Document, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, false, fmt.Errorf("parsing html: %w", err)
	}
	lower := strings.ToLower(src)
	full := strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
	return doc, full, nil
}

func render(doc *goquery.Document, full bool) (string, error) {
	var (
		out string
		err error
	)
	if full {
		out, err = goquery.OuterHtml(doc.Find("html"))
	} else {
		out, err = doc.Find("body").Html()
	}
	if err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// StripQuotedReplies removes every element carrying class, with its
// whole subtree. An empty class means DefaultQuoteClass.
func StripQuotedReplies(src, class string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	if class == "" {
		class = DefaultQuoteClass
	}

	doc, full, err := parse(src)
	if err != nil {
		return "", err
	}
	doc.Find("." + class).Remove()
	return render(doc, full)
}

// rule is one forwarded-content convention.
type rule struct {
	name  string
	apply func(doc *goquery.Document) int
}

// forwardRules run in order. Each returns how many nodes it removed.
var forwardRules = []rule{
	{"gmail", removeSelector(".gmail_quote, .gmail_quote_container, .gmail_attr")},
	{"cite", removeSelector(`blockquote[type="cite"]`)},
	{"outlook", truncateAtSelector("#appendonsend, #divRplyFwdMsg")},
	{"outlook-divider", truncateAtText(regexp.MustCompile(`-{2,}\s*Original Message\s*-{2,}`))},
	{"apple", removeAttribution(regexp.MustCompile(`(?is)^\s*On\s.+\swrote:\s*$`))},
	{"yahoo", removeSelector(`.yahoo_quoted, [id^="yahoo_quoted"]`)},
	{"thunderbird", removeSelector(".moz-cite-prefix, .moz-forward-container")},
	{"forward-divider", truncateAtText(regexp.MustCompile(`-{3,}\s*Forwarded message\s*-{3,}`))},
	{"empty", collapseEmpty},
}

// Result reports what StripForwarded did.
type Result struct {
	HTML    string
	Removed map[string]int
}

// StripForwarded removes quoted replies and forwarded blocks written by
// the common mail clients, then drops containers left empty.
func StripForwarded(src string) (Result, error) {
	res := Result{Removed: make(map[string]int)}
	if strings.TrimSpace(src) == "" {
		return res, nil
	}

	doc, full, err := parse(src)
	if err != nil {
		return res, err
	}

	for _, r := range forwardRules {
		if n := r.apply(doc); n > 0 {
			res.Removed[r.name] = n
		}
	}

	res.HTML, err = render(doc, full)
	return res, err
}

func removeSelector(sel string) func(*goquery.Document) int {
	return func(doc *goquery.Document) int {
		s := doc.Find(sel)
		n := s.Length()
		s.Remove()
		return n
	}
}

// truncateAfter removes n and everything that follows it in document
// order, stopping at the body. Text before n in the same parent is kept.
func truncateAfter(n *html.Node) int {
	removed := 0
	for cur := n; cur != nil && cur.Parent != nil && !isRoot(cur); cur = cur.Parent {
		for sib := cur.NextSibling; sib != nil; {
			next := sib.NextSibling
			cur.Parent.RemoveChild(sib)
			removed++
			sib = next
		}
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
		removed++
	}
	return removed
}

func isRoot(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "body" || n.Data == "html")
}

func truncateAtSelector(sel string) func(*goquery.Document) int {
	return func(doc *goquery.Document) int {
		first := doc.Find(sel).First()
		if first.Length() == 0 {
			return 0
		}
		if prev := first.Prev(); prev.Is("hr") {
			prev.Remove()
		}
		return truncateAfter(first.Get(0))
	}
}

// findText returns the first text node under root matching re.
func findText(root *html.Node, re *regexp.Regexp) *html.Node {
	if root.Type == html.TextNode && re.MatchString(root.Data) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findText(c, re); found != nil {
			return found
		}
	}
	return nil
}

func truncateAtText(re *regexp.Regexp) func(*goquery.Document) int {
	return func(doc *goquery.Document) int {
		body := doc.Find("body")
		if body.Length() == 0 {
			return 0
		}
		marker := findText(body.Get(0), re)
		if marker == nil {
			return 0
		}
		return truncateAfter(marker)
	}
}

// removeAttribution deletes the innermost element whose whole text is a
// reply attribution line, together with a blockquote right after it.
func removeAttribution(re *regexp.Regexp) func(*goquery.Document) int {
	return func(doc *goquery.Document) int {
		lines := doc.Find("body *").FilterFunction(func(_ int, s *goquery.Selection) bool {
			text := s.Text()
			if len(text) > 400 || !re.MatchString(text) {
				return false
			}
			return s.Children().FilterFunction(func(_ int, c *goquery.Selection) bool {
				return re.MatchString(c.Text())
			}).Length() == 0
		})

		n := 0
		lines.Each(func(_ int, s *goquery.Selection) {
			if next := s.Next(); next.Is("blockquote") {
				next.Remove()
				n++
			}
			s.Remove()
			n++
		})
		return n
	}
}

const keepSelector = "img, hr, table, video, audio, iframe, svg, object, input, canvas"

// collapseEmpty removes containers that hold no text and no media.
func collapseEmpty(doc *goquery.Document) int {
	empty := doc.Find("body div, body p, body span, body blockquote, body font, body section").
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(strings.ReplaceAll(s.Text(), "\u00a0", " "))
			return text == "" && s.Find(keepSelector).Length() == 0
		})
	n := empty.Length()
	empty.Remove()
	return n
}

// AppendFooter appends footer HTML at the end of the body.
func AppendFooter(src, footer string) (string, error) {
	if strings.TrimSpace(footer) == "" {
		return src, nil
	}

	doc, full, err := parse(src)
	if err != nil {
		return "", err
	}
	doc.Find("body").AppendHtml(footer)
	return render(doc, full)
}

// Stats is a size measurement of a document.
type Stats struct {
	Bytes  int
	Tokens int
}

// Measure reports the byte size of s and an approximate token count of
// one token per four characters, rounded up.
func Measure(s string) Stats {
	runes := utf8.RuneCountInString(s)
	return Stats{Bytes: len(s), Tokens: (runes + 3) / 4}
}

// Delta is the change between two measurements.
type Delta struct {
	Before Stats
	After  Stats
}

// SavedBytes is Before.Bytes - After.Bytes.
func (d Delta) SavedBytes() int { return d.Before.Bytes - d.After.Bytes }

// SavedTokens is Before.Tokens - After.Tokens.
func (d Delta) SavedTokens() int { return d.Before.Tokens - d.After.Tokens }

// Percent is the share of tokens removed, 0-100.
func (d Delta) Percent() float64 {
	if d.Before.Tokens == 0 {
		return 0
	}
	return float64(d.SavedTokens()) * 100 / float64(d.Before.Tokens)
}
