package extractor

import (
	"fmt"

	"github.com/aluiziolira/go-site-scraper/models"
)

// PatternError reports a selector or regular expression that failed to compile.
type PatternError struct {
	Pattern models.Pattern
	Err     error
}

func (e PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Pattern.Kind, e.Pattern.Expr, e.Err)
}

func (e PatternError) Unwrap() error {
	return e.Err
}
