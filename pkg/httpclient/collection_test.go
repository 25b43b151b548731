package httpclient

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

func TestCollectionPaths(t *testing.T) {
	col, err := NewCollection([]byte(`{"feed":{"title":"Top"},"items":[{"id":1},{"id":2},{"id":3}]}`))
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	if col.Get("feed.title").String() != "Top" {
		t.Fatalf("unexpected title %q", col.Get("feed.title").String())
	}
	if col.Get("items.#").Int() != 3 {
		t.Fatalf("expected 3 items")
	}
	if col.Get("items.#.id").Raw != "[1,2,3]" {
		t.Fatalf("unexpected ids %s", col.Get("items.#.id").Raw)
	}
	if !col.Has("items.0.id") || col.Has("items.9.id") {
		t.Fatalf("unexpected Has results")
	}
	if col.Count() != 2 {
		t.Fatalf("expected 2 top-level keys, got %d", col.Count())
	}
	if !reflect.DeepEqual(col.Keys(), []string{"feed", "items"}) {
		t.Fatalf("unexpected keys %v", col.Keys())
	}
}

func TestCollectionListAndScalar(t *testing.T) {
	list, err := NewCollection([]byte(`["a","b"]`))
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	var seen []string
	list.ForEach(func(key string, v gjson.Result) bool {
		seen = append(seen, key+"="+v.String())
		return true
	})
	if !reflect.DeepEqual(seen, []string{"0=a", "1=b"}) {
		t.Fatalf("unexpected iteration %v", seen)
	}
	if !reflect.DeepEqual(list.All(), map[string]any{"0": "a", "1": "b"}) {
		t.Fatalf("unexpected All %v", list.All())
	}

	scalar, err := NewCollection([]byte(` "x" `))
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	if scalar.Count() != 1 || scalar.JSON() != `"x"` {
		t.Fatalf("unexpected scalar collection %d %s", scalar.Count(), scalar.JSON())
	}
}

func TestCollectionForEachStops(t *testing.T) {
	col, _ := NewCollection([]byte(`[1,2,3,4]`))
	var n int
	col.ForEach(func(string, gjson.Result) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Fatalf("expected iteration to stop after 2, got %d", n)
	}
}

func TestCollectionInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "{oops"} {
		col, err := NewCollection([]byte(in))
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("NewCollection(%q) expected ErrDecode, got %v", in, err)
		}
		if col.Count() != 0 || col.JSON() != "{}" || len(col.All()) != 0 || col.Has("a") {
			t.Fatalf("NewCollection(%q) expected empty collection", in)
		}
	}
}
