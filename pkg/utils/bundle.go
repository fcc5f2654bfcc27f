package utils

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"siteops/internal/domain"
)

var bundlePatterns = map[string]*regexp.Regexp{
	"js":  regexp.MustCompile(`assets/index-[^"]+\.js`),
	"css": regexp.MustCompile(`assets/index-[^"]+\.css`),
}

// FindBundle returns the first assets/index-*.<ext> path referenced by page.
// Only "js" and "css" are known.
func FindBundle(page, ext string) (string, bool) {
	re, ok := bundlePatterns[ext]
	if !ok {
		return "", false
	}
	m := re.FindString(page)
	return m, m != ""
}

// HasRootElement reports whether page contains the SPA mount point.
func HasRootElement(page string) bool {
	if strings.Contains(page, `id="root"`) {
		return true
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return false
	}

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == "root" {
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	return walk(doc)
}

// CountTokens checks each feature token against text, ignoring case.
func CountTokens(text string, features []domain.Feature) ([]domain.CheckResult, int) {
	lower := strings.ToLower(text)
	results := make([]domain.CheckResult, 0, len(features))
	found := 0
	for _, f := range features {
		ok := strings.Contains(lower, strings.ToLower(f.Token))
		if ok {
			found++
		}
		results = append(results, domain.CheckResult{Feature: f, Found: ok})
	}
	return results, found
}
