package provider

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// brReplacer is the first cleanup pass: HTML line breaks become newlines
// before tags are stripped, so paragraph structure survives.
var brReplacer = strings.NewReplacer(
	"<br>", "\n",
	"<br/>", "\n",
	"<br />", "\n",
)

// cleanDescription converts an HTML description into plain text: line
// breaks are substituted first, then remaining tags are stripped.
func cleanDescription(html string) string {
	if html == "" {
		return ""
	}

	replaced := brReplacer.Replace(html)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(replaced))
	if err != nil {
		// Fall back to the substituted text rather than dropping the
		// description.
		return strings.TrimSpace(replaced)
	}
	return strings.TrimSpace(doc.Text())
}
