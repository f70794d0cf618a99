package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/contractor-desk/contractor-desk/internal/shared"
)

// Entities proxies the four REST calls of one record collection.
type Entities[R any, D any] struct {
	conn     *Conn
	resource string
}

// NewEntities binds the collection at /{resource} to conn.
func NewEntities[R any, D any](conn *Conn, resource string) *Entities[R, D] {
	return &Entities[R, D]{conn: conn, resource: resource}
}

// Resource returns the collection path segment.
func (e *Entities[R, D]) Resource() string {
	return e.resource
}

// List fetches the whole collection.
func (e *Entities[R, D]) List(ctx context.Context) ([]R, error) {
	raw, err := e.conn.do(ctx, call{resource: e.resource, op: "list", method: http.MethodGet, path: "/" + e.resource})
	if err != nil {
		return nil, err
	}
	records, shape, ok := decodeList[R](raw)
	if !ok {
		e.conn.client.logger.Warn("unrecognised list payload", slog.String("resource", e.resource), slog.Int("bytes", len(raw)))
	} else {
		e.conn.client.logger.Debug("list payload", slog.String("resource", e.resource), slog.String("shape", shape.String()), slog.Int("count", len(records)))
	}
	return records, nil
}

// Create posts a draft and returns the stored record.
func (e *Entities[R, D]) Create(ctx context.Context, draft D) (R, error) {
	raw, err := e.conn.do(ctx, call{resource: e.resource, op: "create", method: http.MethodPost, path: "/" + e.resource, body: draft})
	if err != nil {
		var zero R
		return zero, err
	}
	return e.decode("create", raw)
}

// Update replaces the record identified by id.
func (e *Entities[R, D]) Update(ctx context.Context, id string, draft D) (R, error) {
	raw, err := e.conn.do(ctx, call{resource: e.resource, op: "update", method: http.MethodPut, path: e.itemPath(id), body: draft})
	if err != nil {
		var zero R
		return zero, err
	}
	return e.decode("update", raw)
}

// Delete removes the record identified by id.
func (e *Entities[R, D]) Delete(ctx context.Context, id string) error {
	_, err := e.conn.do(ctx, call{resource: e.resource, op: "delete", method: http.MethodDelete, path: e.itemPath(id)})
	return err
}

func (e *Entities[R, D]) itemPath(id string) string {
	return "/" + e.resource + "/" + url.PathEscape(id)
}

func (e *Entities[R, D]) decode(op string, raw []byte) (R, error) {
	record, err := decodeOne[R](raw)
	if err != nil {
		return record, &shared.ServerError{
			Op:      fmt.Sprintf("%s.%s", e.resource, op),
			Status:  http.StatusOK,
			Message: "malformed response: " + err.Error(),
		}
	}
	return record, nil
}
