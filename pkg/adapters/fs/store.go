// Package fs implements the authoritative content store: one document file
// per id under a per-collection directory, plus the YAML codec and the
// filesystem watcher.
package fs

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitsuhiko/yamldb/pkg/core"
)

// DefaultExtension is the filename extension for document files.
const DefaultExtension = ".yml"

// Store holds documents as individual files under per-collection directories
// rooted at Root. The files are the authoritative state; the index database
// is derived from them.
type Store struct {
	Root      string
	Extension string
	codec     core.Codec
	logger    *slog.Logger
}

// NewStore creates a content store rooted at root. A nil codec defaults to
// the YAML serializer; a nil logger discards debug output.
func NewStore(root, extension string, codec core.Codec, logger *slog.Logger) *Store {
	if extension == "" {
		extension = DefaultExtension
	}
	if codec == nil {
		codec = NewYAMLSerializer()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		Root:      root,
		Extension: extension,
		codec:     codec,
		logger:    logger,
	}
}

// Codec returns the document codec the store decodes with.
func (s *Store) Codec() core.Codec {
	return s.codec
}

// Dir returns the directory holding a collection's document files.
func (s *Store) Dir(collection string) string {
	return filepath.Join(s.Root, collection)
}

func (s *Store) filename(collection, id string) string {
	return filepath.Join(s.Root, collection, id+s.Extension)
}

// Write persists encoded document bytes for id, creating the collection
// directory if needed, and returns the lower-case hex SHA-1 of the bytes
// written. An existing file for the same id is replaced.
func (s *Store) Write(ctx context.Context, collection, id string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir(collection), 0o755); err != nil {
		return "", fmt.Errorf("failed to create collection directory: %w", err)
	}

	filename := s.filename(collection, id)
	s.logger.Debug("writing document", "collection", collection, "id", id, "path", filename)

	if err := writeFileAtomic(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document %s: %w", id, err)
	}

	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Read loads and decodes the document for id, injecting its "_id" field.
// A missing file yields (nil, nil); a decode failure is an error.
func (s *Store) Read(ctx context.Context, collection, id string) (*core.Document, error) {
	data, err := os.ReadFile(s.filename(collection, id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}

	doc, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	doc.SetID(id)
	return doc, nil
}

// Remove deletes the document file for id. It returns false, not an error,
// when the file did not exist.
func (s *Store) Remove(ctx context.Context, collection, id string) (bool, error) {
	err := os.Remove(s.filename(collection, id))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to remove document %s: %w", id, err)
	}
	s.logger.Debug("removed document", "collection", collection, "id", id)
	return true, nil
}

// ListIDs enumerates the document ids present in a collection directory,
// derived from filenames, in unspecified order. A missing directory is an
// empty collection.
func (s *Store) ListIDs(ctx context.Context, collection string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, s.Extension) {
			continue
		}
		if strings.HasPrefix(name, TempFilePrefix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, s.Extension))
	}
	return ids, nil
}

// HashOf computes the streaming SHA-1 of the current on-disk bytes for id
// without decoding them. Used for staleness comparison against the index.
func (s *Store) HashOf(ctx context.Context, collection, id string) (string, error) {
	f, err := os.Open(s.filename(collection, id))
	if err != nil {
		return "", fmt.Errorf("failed to open document %s: %w", id, err)
	}
	defer f.Close()

	d := sha1.New()
	if _, err := io.Copy(d, f); err != nil {
		return "", fmt.Errorf("failed to hash document %s: %w", id, err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
