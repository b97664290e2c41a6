package pipeline

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var fileNameReplacer = strings.NewReplacer(":", "_", "/", "_")

// PageStore writes full page bodies into a download directory, one file per URL.
type PageStore struct {
	dir string
}

// NewPageStore creates a store rooted at dir. The directory is created on the first save.
func NewPageStore(dir string) *PageStore {
	return &PageStore{dir: dir}
}

// Save writes body to the file named after rawURL, replacing any previous copy.
func (ps *PageStore) Save(rawURL string, body []byte) (string, error) {
	if err := os.MkdirAll(ps.dir, 0o755); err != nil {
		return "", WriteError{Path: ps.dir, Op: "create directory", Err: err}
	}
	target := filepath.Join(ps.dir, PageFileName(rawURL))
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return "", WriteError{Path: target, Op: "write", Err: err}
	}
	return target, nil
}

// PageFileName derives a flat file name from a URL: colons and slashes become underscores,
// followed by "_file." and the extension of the URL path, or "html" when it has none.
func PageFileName(rawURL string) string {
	ext := "html"
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.TrimPrefix(path.Ext(u.Path), "."); e != "" {
			ext = e
		}
	}
	return fileNameReplacer.Replace(rawURL) + "_file." + ext
}
