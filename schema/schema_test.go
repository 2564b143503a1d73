package schema_test

import (
	"reflect"
	"testing"

	"github.com/effective-security/moodlemcp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type lookup struct {
	Token string `json:"token" jsonschema:"title=Token,description=Access token,minLength=1"`
	ID    int64  `json:"id,omitempty" jsonschema:"title=ID,oneof_required=by_id,minimum=1"`
	Name  string `json:"name,omitempty" jsonschema:"title=Name,oneof_required=by_name"`
}

type plain struct {
	Query string `json:"query" jsonschema:"title=Query,description=Query to search for"`
}

func TestSchema(t *testing.T) {
	t.Parallel()

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		s, err := schema.New(reflect.TypeOf(plain{}))
		require.NoError(t, err)

		exp := `{
	"properties": {
		"query": {
			"type": "string",
			"title": "Query",
			"description": "Query to search for"
		}
	},
	"type": "object",
	"required": [
		"query"
	]
}`
		assert.Equal(t, exp, s.String())
		assert.Equal(t, []string{"query"}, s.PropertyNames())

		// cached
		s2, err := schema.New(reflect.TypeOf(plain{}))
		require.NoError(t, err)
		assert.Same(t, s, s2)

		// pointer is the same struct
		s3 := schema.MustNew(reflect.TypeOf(&plain{}))
		assert.Equal(t, s.String(), s3.String())
	})

	t.Run("oneof", func(t *testing.T) {
		t.Parallel()
		s, err := schema.New(reflect.TypeOf(lookup{}))
		require.NoError(t, err)

		js := string(s.JSON())
		assert.Equal(t, []string{"token", "id", "name"}, s.PropertyNames())
		assert.Equal(t, `["token"]`, gjson.Get(js, "required").Raw)
		assert.Equal(t, int64(2), gjson.Get(js, "oneOf.#").Int())
		assert.Equal(t, `["id"]`, gjson.Get(js, "oneOf.0.required").Raw)
		assert.Equal(t, `["name"]`, gjson.Get(js, "oneOf.1.required").Raw)
		assert.Equal(t, int64(1), gjson.Get(js, "properties.token.minLength").Int())
		assert.False(t, gjson.Get(js, "$schema").Exists())
	})

	t.Run("not a struct", func(t *testing.T) {
		t.Parallel()
		_, err := schema.New(reflect.TypeOf(""))
		assert.EqualError(t, err, "schema: expected struct type, got string")
		assert.Panics(t, func() {
			schema.MustNew(reflect.TypeOf(1))
		})
	})
}
