// Package models defines data structures for the scraper.
package models

// Record is one piece of content pulled out of a page by an extraction pattern.
type Record struct {
	Content string `csv:"content" json:"content"`
}

// PatternKind selects how a pattern string is interpreted.
type PatternKind int

const (
	// PatternCSS interprets the expression as a CSS selector.
	PatternCSS PatternKind = iota
	// PatternRegex interprets the expression as a regular expression.
	PatternRegex
)

func (k PatternKind) String() string {
	switch k {
	case PatternCSS:
		return "css"
	case PatternRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// Pattern is a caller-supplied extraction pattern.
type Pattern struct {
	Kind PatternKind
	Expr string
}

// CSS builds a CSS selector pattern.
func CSS(expr string) Pattern {
	return Pattern{Kind: PatternCSS, Expr: expr}
}

// Regex builds a regular expression pattern.
func Regex(expr string) Pattern {
	return Pattern{Kind: PatternRegex, Expr: expr}
}

func (p Pattern) String() string {
	return p.Kind.String() + ":" + p.Expr
}
