package runconfig

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is one configuration document and the path it was read from.
// The path decides its category.
type Document struct {
	Path string
	Doc  *Map
}

// LoadFile reads a YAML mapping. An empty file yields an empty Map.
func LoadFile(path string) (*Map, error) {
	//nolint:gosec // config paths come from the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Map, error) {
	m := NewMap()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal renders m in block style with two-space indentation, keys in
// insertion order.
func Marshal(m *Map) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes m to path, truncating unless appending. Appended
// documents are concatenated without a separator, so repeated appends of
// distinct keys read back as one mapping.
func WriteFile(path string, m *Map, appendTo bool) (err error) {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendTo {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	//nolint:gosec // config paths come from the caller
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = f.Write(data)
	return err
}

// ReadDocuments loads each path as a Document.
func ReadDocuments(paths ...string) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		m, err := LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", p, err)
		}
		docs = append(docs, Document{Path: p, Doc: m})
	}
	return docs, nil
}
