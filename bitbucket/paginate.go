package bitbucket

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Next-control locations, most specific first. Mirrors the row locator
// chain: the markup names change between layout versions.
var nextSelectors = []string{
	`a[rel="next"]`,
	`a[data-testid*="next"]`,
	`a[aria-label*="next"]`,
	`a[aria-label*="Next"]`,
	`.pagination a.next`,
}

// nextPageURL finds an enabled next-page control and resolves its href
// against the current page URL. Returns false when pagination is done.
func nextPageURL(doc *goquery.Document, currentURL string) (string, bool) {
	link := findNextControl(doc)
	if link == nil {
		return "", false
	}

	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" || href == "#" {
		return "", false
	}

	base, err := url.Parse(currentURL)
	if err != nil {
		return "", false
	}
	target, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(target).String(), true
}

func findNextControl(doc *goquery.Document) *goquery.Selection {
	for _, sel := range nextSelectors {
		var found *goquery.Selection
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if controlDisabled(s) {
				return true
			}
			found = s
			return false
		})
		if found != nil {
			return found
		}
	}

	// Fall back on anchor text when no structural selector matched.
	var found *goquery.Selection
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if (text == "next" || text == "next page" || text == ">") && !controlDisabled(s) {
			found = s
			return false
		}
		return true
	})
	return found
}

func controlDisabled(s *goquery.Selection) bool {
	if _, ok := s.Attr("disabled"); ok {
		return true
	}
	if v, ok := s.Attr("aria-disabled"); ok && strings.EqualFold(v, "true") {
		return true
	}
	class, _ := s.Attr("class")
	return strings.Contains(strings.ToLower(class), "disabled")
}
