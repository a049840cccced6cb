// Package datadoc reads stream documents, the per-entity data a template
// is rendered with.
package datadoc

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/pkg/pages"
)

// Document is one stream document. The feature it belongs to is stored
// under "__.name".
type Document map[string]interface{}

func (d Document) props() pages.TemplateProps {
	return pages.TemplateProps{Document: d}
}

// FeatureName returns the document's feature.
func (d Document) FeatureName() string { return d.props().FeatureName() }

// EntityID returns the document's entity id.
func (d Document) EntityID() string { return d.props().EntityID() }

// Locale returns the document's locale, or "en".
func (d Document) Locale() string { return d.props().Locale() }

// Slug returns the document's slug, or "".
func (d Document) Slug() string {
	slug, _ := d["slug"].(string)
	return slug
}

// Props wraps the document in template props for a generation run.
func (d Document) Props(mode string) pages.TemplateProps {
	return pages.TemplateProps{
		Document: d,
		Meta:     pages.TemplateMeta{Mode: mode},
	}
}

// ForFeature returns a document that only names the feature. Static
// templates are rendered once with it.
func ForFeature(name string) Document {
	return Document{"__": map[string]interface{}{"name": name}}
}

// Decode reads concatenated or newline-delimited JSON values from r. Each
// value is a document or an array of documents.
func Decode(r io.Reader) ([]Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var docs []Document
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return docs, nil
			}
			return nil, errors.WrapIO(err, errors.ErrCodeInvalidJSON, "invalid stream document")
		}

		decoded, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, decoded...)
	}
}

func decodeValue(raw json.RawMessage) ([]Document, error) {
	trimmed := strings.TrimSpace(string(raw))
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	if strings.HasPrefix(trimmed, "[") {
		var docs []Document
		if err := dec.Decode(&docs); err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeInvalidJSON, "stream documents must be objects")
		}
		return docs, nil
	}

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidJSON, "stream document must be an object")
	}
	return []Document{doc}, nil
}

// LocalLoader reads documents from the JSON fixture files of a folder.
type LocalLoader struct {
	dir string
}

// NewLocalLoader creates a loader for dir
func NewLocalLoader(dir string) *LocalLoader {
	return &LocalLoader{dir: dir}
}

// All returns the documents of every *.json file in the folder, in file
// name order. A missing folder has no documents.
func (l *LocalLoader) All() ([]Document, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to list local data").WithFile(l.dir)
	}
	sort.Strings(matches)

	var docs []Document
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read local data").WithFile(path)
		}
		fileDocs, err := Decode(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, errors.ErrCodeInvalidJSON, "invalid local data").WithFile(path)
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// FindBySlug returns the first document with slug in locale.
func (l *LocalLoader) FindBySlug(slug, locale string) (Document, bool, error) {
	docs, err := l.All()
	if err != nil {
		return nil, false, err
	}
	for _, doc := range docs {
		if doc.Slug() == slug && doc.Locale() == locale {
			return doc, true, nil
		}
	}
	return nil, false, nil
}
