package htmlclean

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, div, tr, li, h1, h2, h3, h4, h5, h6, blockquote, pre, table, hr"

// ToText converts email HTML to plain text for a terminal: block
// elements become line breaks, list items get a bullet, and links keep
// their target when it differs from the label.
func ToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style, head, title").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").PrependHtml("• ")
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		label := strings.TrimSpace(s.Text())
		if href != "" && !strings.HasPrefix(href, "mailto:") && label != href {
			s.AppendHtml(" &lt;" + href + "&gt;")
		}
	})
	doc.Find(blockSelector).AppendHtml("\n")

	return tidy(doc.Find("body").Text())
}

// tidy trims trailing space on each line and collapses runs of blank
// lines to one.
func tidy(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(strings.Join(strings.Fields(line), " "), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
