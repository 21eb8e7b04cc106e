package paperless

import (
	"context"
	"iter"
)

// crud implements the list, read and write operations shared by the simple
// Paperless resources. T is the entity, Q the list query, W the create or
// replace body and P the partial update body.
type crud[T, Q, W, P any] struct {
	transport *Transport
	// collection path, e.g. /api/tags/
	path string
	// item path template with an {id} placeholder
	item string
}

func newCrud[T, Q, W, P any](t *Transport, path string) crud[T, Q, W, P] {
	return crud[T, Q, W, P]{
		transport: t,
		path:      path,
		item:      path + "{id}/",
	}
}

// List returns a single page. query may be nil.
func (c *crud[T, Q, W, P]) List(ctx context.Context, query *Q) (*Page[T], error) {
	var page Page[T]
	if err := c.transport.Request(ctx, listRequest(c.path, query), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Iterate lazily walks every page matching query.
func (c *crud[T, Q, W, P]) Iterate(ctx context.Context, query *Q) iter.Seq2[T, error] {
	return Iterate[T](ctx, c.transport, listRequest(c.path, query))
}

// ListAll collects every item matching query.
func (c *crud[T, Q, W, P]) ListAll(ctx context.Context, query *Q) ([]T, error) {
	return ListAll[T](ctx, c.transport, listRequest(c.path, query))
}

// Retrieve returns the item with the given id.
func (c *crud[T, Q, W, P]) Retrieve(ctx context.Context, id int) (*T, error) {
	path, err := idPath(c.item, id)
	if err != nil {
		return nil, err
	}
	var item T
	if err := c.transport.Get(ctx, path, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create adds a new item.
func (c *crud[T, Q, W, P]) Create(ctx context.Context, body *W) (*T, error) {
	var item T
	if err := c.transport.Post(ctx, c.path, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the item with the given id.
func (c *crud[T, Q, W, P]) Update(ctx context.Context, id int, body *W) (*T, error) {
	path, err := idPath(c.item, id)
	if err != nil {
		return nil, err
	}
	var item T
	if err := c.transport.Put(ctx, path, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// PartialUpdate changes only the fields set in patch.
func (c *crud[T, Q, W, P]) PartialUpdate(ctx context.Context, id int, patch *P) (*T, error) {
	path, err := idPath(c.item, id)
	if err != nil {
		return nil, err
	}
	var item T
	if err := c.transport.Patch(ctx, path, patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes the item with the given id.
func (c *crud[T, Q, W, P]) Remove(ctx context.Context, id int) error {
	path, err := idPath(c.item, id)
	if err != nil {
		return err
	}
	return c.transport.Delete(ctx, path, nil)
}
