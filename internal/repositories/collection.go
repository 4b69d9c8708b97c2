package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"joints/internal/models"
	"joints/internal/observability"
	"joints/internal/store"
)

// normalizeFunc brings raw documents into canonical shape and reports whether
// anything changed.
type normalizeFunc func(docs []store.Document) ([]store.Document, bool)

// collection runs whole-collection read and read-modify-write cycles for one
// named collection, decoding documents into T.
type collection[T any] struct {
	name      string
	store     store.Store
	locker    store.Locker
	normalize normalizeFunc
	log       *observability.RepoLogger
}

func newCollection[T any](name string, st store.Store, locker store.Locker, normalize normalizeFunc) *collection[T] {
	return &collection[T]{
		name:      name,
		store:     st,
		locker:    locker,
		normalize: normalize,
		log:       observability.NewRepoLogger(name),
	}
}

// load returns the normalized collection without taking the lock. When the
// stored copy needed a fix-up, the fix-up is written back under the lock
// before the records are returned.
func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	docs, err := c.store.Load(ctx, c.name)
	if err != nil {
		c.log.LogError(ctx, err, "load")
		return nil, err
	}

	docs, changed := c.normalize(docs)
	if !changed {
		return decodeAll[T](c.name, docs)
	}

	var items []T
	err = c.mutate(ctx, func(current []T) ([]T, error) {
		items = current
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// mutate locks the collection, loads and normalizes it, applies fn and saves
// the result. If fn fails nothing of its work is saved, though a pending
// normalization fix-up still is.
func (c *collection[T]) mutate(ctx context.Context, fn func(items []T) ([]T, error)) error {
	waitStart := time.Now()
	unlock, err := c.locker.Lock(ctx, c.name)
	if err != nil {
		err = models.NewStorageError("lock", c.name, err)
		c.log.LogError(ctx, err, "lock")
		return err
	}
	defer unlock()
	observability.LockWait.WithLabelValues(c.name).Observe(time.Since(waitStart).Seconds())

	docs, err := c.store.Load(ctx, c.name)
	if err != nil {
		c.log.LogError(ctx, err, "load")
		return err
	}

	docs, changed := c.normalize(docs)
	if changed {
		observability.NormalizationFixups.WithLabelValues(c.name).Inc()
		c.log.LogNormalize(ctx)
	}

	items, err := decodeAll[T](c.name, docs)
	if err != nil {
		return err
	}

	items, fnErr := fn(items)
	if fnErr != nil {
		if changed {
			if err := c.save(ctx, docs); err != nil {
				return err
			}
		}
		return fnErr
	}

	out, err := encodeAll(c.name, items)
	if err != nil {
		return err
	}
	// Run the encoded records through the normalizer as well so nil slices
	// are written as empty arrays.
	out, _ = c.normalize(out)
	return c.save(ctx, out)
}

func (c *collection[T]) save(ctx context.Context, docs []store.Document) error {
	if err := c.store.Save(ctx, c.name, docs); err != nil {
		c.log.LogError(ctx, err, "save")
		return err
	}
	return nil
}

func decodeAll[T any](name string, docs []store.Document) ([]T, error) {
	data, err := json.Marshal(docs)
	if err != nil {
		return nil, models.NewStorageError("decode", name, err)
	}
	items := make([]T, 0, len(docs))
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, models.NewStorageError("decode", name, fmt.Errorf("malformed record: %w", err))
	}
	return items, nil
}

func encodeAll[T any](name string, items []T) ([]store.Document, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, models.NewStorageError("encode", name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	docs := []store.Document{}
	if err := dec.Decode(&docs); err != nil {
		return nil, models.NewStorageError("encode", name, err)
	}
	return docs, nil
}
