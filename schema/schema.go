package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.RWMutex
)

// Schema holds the reflected JSON-Schema of a Go type
type Schema struct {
	RawSchema *jsonschema.Schema
	// Parameters represents the flattened function parameters definition
	Parameters *jsonschema.Schema
}

// New creates a new schema from the given type
func New(t reflect.Type) (*Schema, error) {
	cacheMu.RLock()
	s, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return s, nil
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[t]; ok {
		return s, nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}
	cache[t] = s

	return s, nil
}

// MustNew creates a new schema from the given type, and panics on error
func MustNew(t reflect.Type) *Schema {
	s, err := New(t)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) String() string {
	js, _ := json.MarshalIndent(s.Parameters, "", "\t")
	return string(js)
}

// JSON returns the compact JSON of the function parameters
func (s *Schema) JSON() json.RawMessage {
	js, _ := json.Marshal(s.Parameters)
	return js
}

// PropertyNames returns names of the top level properties in declaration order
func (s *Schema) PropertyNames() []string {
	return propertyNames(s.Parameters.Properties)
}

func buildSchema(t reflect.Type) (*Schema, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("schema: expected struct type, got %s", t.Kind())
	}

	schema := JSONSchema(t)
	s := &Schema{
		RawSchema:  schema,
		Parameters: ToFunctionSchema(schema),
	}
	return s, nil
}

// ToFunctionSchema returns the schema without the meta fields,
// keeping the union constraints declared with oneof_required.
func ToFunctionSchema(tSchema *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        tSchema.Type,
		Description: tSchema.Description,
		Properties:  tSchema.Properties,
		Required:    tSchema.Required,
		OneOf:       tSchema.OneOf,
		AnyOf:       tSchema.AnyOf,
	}
}

func propertyNames(props *orderedmap.OrderedMap[string, *jsonschema.Schema]) []string {
	if props == nil {
		return nil
	}
	names := make([]string, 0, props.Len())
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// JSONSchema return the json schema of the type
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	jsonschema.Version = "http://json-schema.org/draft-07/schema#"

	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	// Struct names may repeat across packages, the package path hash keeps them unique.
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			fullname := t.PkgPath() + "/" + t.Name()
			name = t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}
