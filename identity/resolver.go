// Package identity discovers the current user's id on the hosted page.
// The page does not expose it through any stable contract, so the
// resolver probes several locations in order and takes the first value
// that looks like a UUID.
package identity

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no probe yields a UUID-shaped user id.
var ErrNotFound = errors.New("current user id not found")

const uuidShape = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

// Inline-script JSON shapes, most specific first.
var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"user"\s*:\s*\{[^{}]*"uuid"\s*:\s*"(` + uuidShape + `)"`),
	regexp.MustCompile(`"uuid"\s*:\s*"(` + uuidShape + `)"`),
	regexp.MustCompile(`window\.\w+\s*=\s*\{[^{}]*"uuid"\s*:\s*"(` + uuidShape + `)"`),
	regexp.MustCompile(`"currentUser"\s*:\s*\{[^{}]*"uuid"\s*:\s*"(` + uuidShape + `)"`),
}

var profileHrefPattern = regexp.MustCompile(`/(?:users|profile)/(` + uuidShape + `)`)

var dataAttributes = []string{
	"data-current-user-uuid",
	"data-user-uuid",
	"data-current-user-id",
	"data-user-id",
}

// ResolveCurrentUserID probes the document for the logged-in user's
// UUID. Probes run in order; the first match wins and no further
// probes are tried.
func ResolveCurrentUserID(doc *goquery.Document) (string, error) {
	probes := []func(*goquery.Document) string{
		fromInlineScripts,
		fromDataAttributes,
		fromProfileAnchors,
		fromUserObjectScript,
		fromMetaTags,
	}
	for _, probe := range probes {
		if id := probe(doc); id != "" {
			return id, nil
		}
	}
	return "", ErrNotFound
}

// IsValidUserID reports whether a value has the expected UUID shape.
// Consumers re-check ids at their own boundary before building URLs
// from them.
func IsValidUserID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// fromInlineScripts matches same-origin inline script bodies against
// the known JSON shapes that carry the user uuid.
func fromInlineScripts(doc *goquery.Document) string {
	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, external := s.Attr("src"); external {
			return true
		}
		body := s.Text()
		for _, p := range scriptPatterns {
			if m := p.FindStringSubmatch(body); m != nil && IsValidUserID(m[1]) {
				found = m[1]
				return false
			}
		}
		return true
	})
	return found
}

func fromDataAttributes(doc *goquery.Document) string {
	for _, attr := range dataAttributes {
		var found string
		doc.Find("[" + attr + "]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if v, ok := s.Attr(attr); ok && IsValidUserID(strings.TrimSpace(v)) {
				found = strings.TrimSpace(v)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func fromProfileAnchors(doc *goquery.Document) string {
	var found string
	doc.Find(`a[href*="/users/"], a[href*="/profile/"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		if m := profileHrefPattern.FindStringSubmatch(href); m != nil && IsValidUserID(m[1]) {
			found = m[1]
			return false
		}
		return true
	})
	return found
}

// fromUserObjectScript reads the well-known embedded user object, a
// JSON script tag some layouts render for the client bootstrap.
func fromUserObjectScript(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		if !strings.Contains(strings.ToLower(id), "user") {
			return true
		}
		var payload struct {
			UUID string `json:"uuid"`
			User struct {
				UUID string `json:"uuid"`
			} `json:"user"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		for _, v := range []string{payload.UUID, payload.User.UUID} {
			if IsValidUserID(v) {
				found = v
				return false
			}
		}
		return true
	})
	return found
}

func fromMetaTags(doc *goquery.Document) string {
	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		property, _ := s.Attr("property")
		if !strings.Contains(strings.ToLower(name+property), "user") {
			return true
		}
		if content, ok := s.Attr("content"); ok && IsValidUserID(strings.TrimSpace(content)) {
			found = strings.TrimSpace(content)
			return false
		}
		return true
	})
	return found
}
