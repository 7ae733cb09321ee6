// Package sanitize scrubs rich-text HTML coming from the club catalog
// before it reaches any renderer. Upstream descriptions are authored in
// a third-party CMS and must be treated as hostile.
package sanitize

import (
	"regexp"
	"strings"
)

// Elements removed wholesale, content included.
var blockedTags = []string{"script", "iframe", "object", "embed", "form"}

var (
	pairedRes []*regexp.Regexp
	orphanRes []*regexp.Regexp

	reInputTag  = regexp.MustCompile(`(?i)<input\b[^>]*/?>`)
	reEventAttr = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	reJSURL     = regexp.MustCompile(`(?i)\s+(href|src)\s*=\s*("\s*javascript:[^"]*"|'\s*javascript:[^']*'|javascript:[^\s>]*)`)
	reDataURL   = regexp.MustCompile(`(?i)\s+(href|src)\s*=\s*("\s*data:[^"]*"|'\s*data:[^']*'|data:[^\s>]*)`)
	reDataImage = regexp.MustCompile(`(?i)data:image/`)
)

func init() {
	// RE2 has no backreferences, so each blocked tag gets its own pattern.
	for _, tag := range blockedTags {
		pairedRes = append(pairedRes, regexp.MustCompile(`(?is)<`+tag+`\b[^>]*>.*?</`+tag+`\s*>`))
		orphanRes = append(orphanRes, regexp.MustCompile(`(?i)</?`+tag+`\b[^>]*>`))
	}
}

// HTML strips script-capable elements, inline event handlers, and
// javascript:/non-image data: URLs. Everything else passes through.
func HTML(s string) string {
	if s == "" || !strings.Contains(s, "<") {
		return s
	}
	for _, re := range pairedRes {
		s = re.ReplaceAllString(s, "")
	}
	// Unpaired open/close tags left behind by malformed markup.
	for _, re := range orphanRes {
		s = re.ReplaceAllString(s, "")
	}
	s = reInputTag.ReplaceAllString(s, "")
	s = reEventAttr.ReplaceAllString(s, "")
	s = reJSURL.ReplaceAllString(s, "")
	s = reDataURL.ReplaceAllStringFunc(s, func(m string) string {
		if reDataImage.MatchString(m) {
			return m
		}
		return ""
	})
	return s
}
