// Package document holds the parsed HTML of the site page, locates the image
// and video blocks that reference prepared assets, and rewrites them in place.
//
// A document is parsed once per run. Every pass mutates the same tree, and
// the caller compares Render output before and after to decide whether the
// file needs writing.
package document

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html"

	"github.com/lostlessvisuals/localprep/internal/errors"
)

// Document is a parsed HTML page.
type Document struct {
	// Path is the file the document was loaded from, if any.
	Path string
	root *html.Node
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.NewDocumentError("failed to parse HTML", err)
	}
	return &Document{root: root}, nil
}

// Load parses the HTML file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("failed to open document", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Dir returns the directory references in the document are relative to.
func (d *Document) Dir() string {
	if d.Path == "" {
		return "."
	}
	return filepath.Dir(d.Path)
}

// Root returns the document node.
func (d *Document) Root() Element {
	return Element{node: d.root}
}

// Render serializes the whole tree.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, errors.NewDocumentError("failed to render HTML", err)
	}
	return buf.Bytes(), nil
}
