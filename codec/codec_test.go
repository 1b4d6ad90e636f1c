package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/shopmirror/model"
)

func sampleProducts() []model.Product {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []model.Product{{
		ID: "p1", Name: "Runner", Slug: "runner", Price: 19.99,
		Category:     model.CategoryRef{ID: "c1", Name: "Shoes"},
		ItemsInStock: 3, FavoritedBy: []string{"u1"}, CreatedAt: at, UpdatedAt: at,
	}}
}

func TestByNameRoundTrip(t *testing.T) {
	for _, name := range []string{"", NameJSON, NameCBOR, NameMsgpack, " CBOR "} {
		c, err := ByName[[]model.Product](name, 0)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		b, err := c.Encode(sampleProducts())
		if err != nil {
			t.Fatalf("%q encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%q decode: %v", name, err)
		}
		want := sampleProducts()[0]
		if len(got) != 1 || got[0].ID != want.ID || got[0].Price != want.Price ||
			got[0].Category != want.Category || !got[0].CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("%q round trip mismatch: %+v", name, got)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName[int]("gob", 0); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c, err := ByName[[]model.Product](NameJSON, 16)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Encode(sampleProducts())
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Decode(b)
	if err == nil || !strings.Contains(err.Error(), "payload too large") {
		t.Fatalf("want size error, got %v", err)
	}
}

func TestMsgpackHonorsJSONTags(t *testing.T) {
	b, err := Msgpack[model.CategoryRef]{}.Encode(model.CategoryRef{ID: "c1", Name: "Shoes"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]string
	if m, err = (Msgpack[map[string]string]{}).Decode(b); err != nil {
		t.Fatal(err)
	}
	if m["id"] != "c1" || m["name"] != "Shoes" {
		t.Fatalf("unexpected keys %v", m)
	}
}
