// Package parser turns fetched HTML into links, stylesheet identifiers, and element text.
package parser

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument parses an HTML body.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
