// Package schema builds JSON schema of tool parameters from Go types
package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const defsPrefix = "#/$defs/"

var cache sync.Map // reflect.Type -> *Schema

// Schema of the tool input
type Schema struct {
	// Parameters is the flattened object schema, without $ref
	Parameters *jsonschema.Schema
}

// New returns the cached schema of the type
func New(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, errNilType
	}
	if v, ok := cache.Load(t); ok {
		return v.(*Schema), nil
	}
	s := &Schema{
		Parameters: Flatten(Reflect(t)),
	}
	v, _ := cache.LoadOrStore(t, s)
	return v.(*Schema), nil
}

func (s *Schema) String() string {
	js, _ := json.MarshalIndent(s.Parameters, "", "\t")
	return string(js)
}

// Reflect returns JSON schema of the type, using draft-07
// as some MCP clients do not support 2020-12.
func Reflect(t reflect.Type) *jsonschema.Schema {
	jsonschema.Version = "http://json-schema.org/draft-07/schema#"

	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
		// types with the same name in different packages must not share $defs
		Namer: func(t reflect.Type) string {
			if t.Kind() != reflect.Struct {
				return t.Name()
			}
			return t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(t.PkgPath()+"/"+t.Name()), 10)
		},
	}
	return r.ReflectFromType(t)
}

// Flatten returns the object schema of the root type,
// the local references are replaced by their definitions.
func Flatten(sc *jsonschema.Schema) *jsonschema.Schema {
	rootID := strings.TrimPrefix(sc.Ref, defsPrefix)
	root := sc
	defs := make(map[string]*jsonschema.Schema, len(sc.Definitions))
	for name, def := range sc.Definitions {
		if name == rootID {
			root = def
			continue
		}
		defs[name] = def
	}

	res := &jsonschema.Schema{
		Type:       root.Type,
		Properties: root.Properties,
		Required:   root.Required,
	}
	inline(res.Properties, defs)
	return res
}

func inline(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs map[string]*jsonschema.Schema) {
	if props == nil {
		return
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		if def, ok := defs[strings.TrimPrefix(pair.Value.Ref, defsPrefix)]; ok && pair.Value.Ref != "" {
			pair.Value = def
		}
		prop := pair.Value
		inline(prop.Properties, defs)
		if prop.Items != nil {
			if def, ok := defs[strings.TrimPrefix(prop.Items.Ref, defsPrefix)]; ok && prop.Items.Ref != "" {
				prop.Items = def
			}
			inline(prop.Items.Properties, defs)
		}
	}
}
