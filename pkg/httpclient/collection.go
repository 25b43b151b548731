package httpclient

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
)

// Collection is a read-only view over a JSON document addressed with gjson paths
// (for example "users.0.name" or "items.#.id").
type Collection struct {
	raw  []byte
	root gjson.Result
}

// NewCollection validates data as JSON and wraps it. Invalid input yields an empty collection and an
// error wrapping ErrDecode.
func NewCollection(data []byte) (*Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return &Collection{}, fmt.Errorf("%w: invalid json", ErrDecode)
	}
	raw := bytes.Clone(trimmed)
	return &Collection{raw: raw, root: gjson.ParseBytes(raw)}, nil
}

// Get returns the value at path. Use Exists on the result to tell a missing path from a null value.
func (c *Collection) Get(path string) gjson.Result {
	if len(c.raw) == 0 {
		return gjson.Result{}
	}
	return c.root.Get(path)
}

func (c *Collection) Has(path string) bool {
	return c.Get(path).Exists()
}

// Count returns the number of top-level entries: object keys, list items, or 1 for a scalar.
func (c *Collection) Count() int {
	switch {
	case len(c.raw) == 0 || c.root.Type == gjson.Null:
		return 0
	case c.root.IsObject():
		return len(c.root.Map())
	case c.root.IsArray():
		return len(c.root.Array())
	default:
		return 1
	}
}

// Keys returns top-level object keys in sorted order, or list indexes for a list.
func (c *Collection) Keys() []string {
	var keys []string
	c.ForEach(func(key string, _ gjson.Result) bool {
		keys = append(keys, key)
		return true
	})
	if c.root.IsObject() {
		sort.Strings(keys)
	}
	return keys
}

// ForEach visits top-level entries in document order until fn returns false.
func (c *Collection) ForEach(fn func(key string, value gjson.Result) bool) {
	if len(c.raw) == 0 {
		return
	}
	if !c.root.IsObject() && !c.root.IsArray() {
		fn("0", c.root)
		return
	}
	i := 0
	c.root.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if c.root.IsArray() {
			key = fmt.Sprint(i)
		}
		i++
		return fn(key, v)
	})
}

// All returns the collection as a mapping with the same rules as Response.ToArray.
func (c *Collection) All() map[string]any {
	if len(c.raw) == 0 {
		return map[string]any{}
	}
	return toMapping(c.root.Value())
}

// JSON returns the wrapped document, or "{}" for an empty collection.
func (c *Collection) JSON() string {
	if len(c.raw) == 0 {
		return "{}"
	}
	return c.root.Raw
}
