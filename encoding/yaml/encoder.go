// Package yaml renders tool arguments as YAML with descriptions as comments
package yaml

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type CommentStyle int

const (
	NoComment CommentStyle = iota
	HeadComment
	LineComment
	FootComment
)

var descriptionRegex = regexp.MustCompile(`description=([^,]+)`)

type Encoder struct {
	reqType      reflect.Type
	commentStyle CommentStyle
}

func NewEncoder(req any) *Encoder {
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return &Encoder{
		reqType:      t,
		commentStyle: NoComment,
	}
}

func (e *Encoder) WithCommentStyle(style CommentStyle) *Encoder {
	e.commentStyle = style
	return e
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	if dereference(reflect.ValueOf(v)).Kind() != reflect.Struct {
		return yaml.Marshal(v)
	}
	node, err := e.structToYAMLWithComments(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

// Example returns YAML of a generated instance of the request type.
// Values come from the `fake` tags of the fields.
func (e *Encoder) Example() ([]byte, error) {
	if e.reqType == nil || e.reqType.Kind() != reflect.Struct {
		return nil, errors.Errorf("expected struct type, got %v", e.reqType)
	}
	instance := reflect.New(e.reqType).Interface()
	if err := gofakeit.Struct(instance); err != nil {
		return nil, errors.WithMessage(err, "failed to generate example")
	}
	return e.Marshal(instance)
}

// Parse struct and convert it to a YAML Node with comments
func (e *Encoder) structToYAMLWithComments(val reflect.Value) (*yaml.Node, error) {
	val = dereference(val)
	if !val.IsValid() {
		return nullNode(), nil
	}
	if val.Kind() != reflect.Struct {
		return nil, errors.Errorf("expected struct, got %s", val.Kind())
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fv := val.Field(i)

		// embedded structs are inlined
		if field.Anonymous && dereference(fv).Kind() == reflect.Struct {
			inner, err := e.structToYAMLWithComments(fv)
			if err != nil {
				return nil, err
			}
			root.Content = append(root.Content, inner.Content...)
			continue
		}

		key, omitEmpty := yamlKey(field)
		if key == "" || !field.IsExported() {
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}

		comment := field.Tag.Get("comment")
		if comment == "" {
			comment = extractDescription(field.Tag.Get("jsonschema"))
		}

		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		if comment != "" {
			switch e.commentStyle {
			case HeadComment:
				keyNode.HeadComment = comment
			case LineComment:
				keyNode.LineComment = comment
			case FootComment:
				keyNode.FootComment = comment
			}
		}

		root.Content = append(root.Content, keyNode, e.getValueNode(fv))
	}

	return root, nil
}

// Recursively parse values, supporting pointers and interfaces
func (e *Encoder) getValueNode(v reflect.Value) *yaml.Node {
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nullNode()
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%d", v.Int()), Tag: "!!int"}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%d", v.Uint()), Tag: "!!int"}
	case reflect.Float32, reflect.Float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%g", v.Float()), Tag: "!!float"}
	case reflect.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%t", v.Bool()), Tag: "!!bool"}
	case reflect.Struct:
		node, err := e.structToYAMLWithComments(v)
		if err != nil {
			return nullNode()
		}
		return node
	case reflect.Slice, reflect.Array:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for i := 0; i < v.Len(); i++ {
			node.Content = append(node.Content, e.getValueNode(v.Index(i)))
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%v", v.Interface())}
	}
}

func yamlKey(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("yaml")
	if tag == "-" {
		return "", false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name, strings.Contains(opts, "omitempty")
}

// Parse description from jsonschema
func extractDescription(tag string) string {
	matches := descriptionRegex.FindStringSubmatch(tag)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: "null", Tag: "!!null"}
}

// Recursively dereference pointers until `v` is not a pointer type
func dereference(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
