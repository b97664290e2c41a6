package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ignoredPrefixes are href prefixes that never lead to a crawlable page.
var ignoredPrefixes = []string{
	"#",
	"javascript:",
	"mailto:",
	"tel:",
	"data:",
	"ftp:",
	"file:",
	"sms:",
	"skype:",
	"whatsapp:",
	"viber:",
	"intent:",
	"geo:",
	"magnet:",
	"bitcoin:",
	"spotify:",
	"steam:",
}

// ExtractLinks returns the absolute URLs of every anchor in doc that resolves to base's host.
// Relative hrefs are resolved against base and fragments are dropped. The result has no
// duplicates; its order follows the document but callers should not rely on it.
func ExtractLinks(doc *goquery.Document, base *url.URL) []string {
	if doc == nil || base == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := ResolveLink(base, href)
		if !ok {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}

// ResolveLink resolves one href against base and reports whether it stays on base's host.
// Host names are compared exactly, without case folding; ports are not part of the comparison.
func ResolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || hasIgnoredPrefix(href) {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Hostname() != base.Hostname() {
		return "", false
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String(), true
}

func hasIgnoredPrefix(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range ignoredPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
