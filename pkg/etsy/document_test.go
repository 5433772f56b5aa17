package etsy_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantEmpty bool
		wantErr   bool
	}{
		{name: "object", input: `{"listing_id":1}`},
		{name: "array", input: `[1,2,3]`},
		{name: "surrounding whitespace", input: " \n{\"a\":true}\n"},
		{name: "empty body", input: "", wantEmpty: true},
		{name: "whitespace only", input: "  \n\t", wantEmpty: true},
		{name: "truncated", input: `{"a":`, wantErr: true},
		{name: "html", input: `<html></html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := etsy.ParseDocument([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmpty, doc.IsEmpty())
		})
	}
}

func TestDocument_PreservesUnknownFields(t *testing.T) {
	t.Parallel()

	body := `{"listing_id":12345,"title":"Mug","future_field":{"nested":[1,2]},` +
		`"big_id":9007199254740993}`

	doc, err := etsy.ParseDocument([]byte(body))
	require.NoError(t, err)

	assert.JSONEq(t, body, doc.String())
	assert.Equal(t, int64(12345), doc.Get("listing_id").Int())
	assert.Equal(t, "Mug", doc.Get("title").String())
	assert.Equal(t, int64(2), doc.Get("future_field.nested.1").Int())

	m, err := doc.Map()
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), m["big_id"])
}

func TestDocument_SetAndDelete(t *testing.T) {
	t.Parallel()

	orig, err := etsy.ParseDocument([]byte(`{"a":1,"b":{"c":2}}`))
	require.NoError(t, err)

	set, err := orig.Set("b.d", "x")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":{"c":2,"d":"x"}}`, set.String())
	assert.JSONEq(t, `{"a":1,"b":{"c":2}}`, orig.String(), "original untouched")

	del, err := set.Delete("a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":{"c":2,"d":"x"}}`, del.String())

	var empty etsy.Document
	fromEmpty, err := empty.Set("products.0.sku", "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", fromEmpty.Get("products.0.sku").String())
}

func TestDocument_JSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Doc etsy.Document `json:"doc"`
	}

	in := wrapper{}
	in.Doc, _ = etsy.ParseDocument([]byte(`{"x":[true,null]}`))

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"doc":{"x":[true,null]}}`, string(b))

	var out wrapper
	require.NoError(t, json.Unmarshal(b, &out))
	assert.JSONEq(t, in.Doc.String(), out.Doc.String())

	b, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"doc":null}`, string(b))

	var nullOut wrapper
	require.NoError(t, json.Unmarshal(b, &nullOut))
	assert.True(t, nullOut.Doc.IsEmpty())
}

func TestDocument_Decode(t *testing.T) {
	t.Parallel()

	doc, err := etsy.ParseDocument([]byte(`{"shop_id":7,"shop_name":"Clay"}`))
	require.NoError(t, err)

	var shop etsy.Shop
	require.NoError(t, doc.Decode(&shop))
	assert.Equal(t, int64(7), shop.ShopID)
	assert.Equal(t, "Clay", shop.ShopName)

	var empty etsy.Document
	require.Error(t, empty.Decode(&shop))

	m, err := empty.Map()
	require.NoError(t, err)
	assert.Empty(t, m)
}
