package parser

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ListSelectors tokenizes every <style> element in document order and returns the identifier
// tokens that appear outside declaration blocks, which are the names a stylesheet selects on
// (element names, class names, pseudo-classes, at-rule keywords). Identifiers inside {}, (),
// [] and function arguments are property names and values and are skipped.
//
// Unless includeDuplicates is set, only the first occurrence of each identifier is kept.
func ListSelectors(doc *goquery.Document, includeDuplicates bool) []string {
	if doc == nil {
		return nil
	}

	var idents []string
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		idents = append(idents, styleIdents(s.Text())...)
	})

	if includeDuplicates {
		return idents
	}
	return unique(idents)
}

// styleIdents collects top-level identifiers. Malformed input such as an unterminated string
// yields a bad token and lexing carries on with the next line.
func styleIdents(text string) []string {
	var out []string
	depth := 0
	l := css.NewLexer(parse.NewInputString(text))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return out
		case css.IdentToken:
			if depth == 0 {
				out = append(out, string(data))
			}
		case css.FunctionToken, css.LeftBraceToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightBraceToken, css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		}
	}
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
