// Package store persists named collections of schemaless documents.
//
// A collection is always read and written as a whole: Load returns every
// document and Save replaces every document. Callers that mutate a
// collection must hold the collection's lock (see Locker) across the
// load-mutate-save cycle, otherwise concurrent writers lose updates.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// Document is one record as it sits on disk. Field presence and types are
// not guaranteed on read; see package schema.
type Document map[string]any

// Store loads and saves whole collections.
type Store interface {
	// Load returns every document in the collection. A collection that has
	// never been saved yields an empty slice and no error.
	Load(ctx context.Context, name string) ([]Document, error)
	// Save overwrites the collection with docs.
	Save(ctx context.Context, name string, docs []Document) error
}

var validName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}

// decodeDocuments parses a JSON array of objects. Numbers stay json.Number so
// int64 ids round-trip exactly. Entries that are not objects are dropped.
func decodeDocuments(data []byte) ([]Document, error) {
	docs := []Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return docs, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			docs = append(docs, Document(m))
		}
	}
	return docs, nil
}

func encodeDocuments(docs []Document) ([]byte, error) {
	if docs == nil {
		docs = []Document{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	return append(data, '\n'), nil
}
