package agenttype

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"sigs.k8s.io/yaml"
)

// Kind is the tag of a VariableDefinition's resolved value (spec.md §3,
// §9 "dynamic-kind variant values"). Templating dispatches on Kind and never
// probes the underlying Go type.
type Kind string

const (
	KindString        Kind = "string"
	KindBool          Kind = "bool"
	KindNumber        Kind = "number"
	KindYAML          Kind = "yaml"
	KindFile          Kind = "file"
	KindMapStringFile  Kind = "map_string_file"
	KindMapString      Kind = "map_string"
)

// Value is a tagged union carrying one resolved variable value. Exactly one
// of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Str      string
	Bool     bool
	Number   float64
	YAML     interface{} // arbitrary decoded YAML tree
	FilePath string      // for KindFile: the path the value came from (informational) plus Str holding contents
	MapFile  map[string]string
	Map      map[string]string
}

// NewString builds a KindString value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewBool builds a KindBool value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewNumber builds a KindNumber value.
func NewNumber(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// NewYAML builds a KindYAML value from an already-decoded YAML tree.
func NewYAML(tree interface{}) Value { return Value{Kind: KindYAML, YAML: tree} }

// NewFile builds a KindFile value: Str carries file contents, FilePath the
// source path (informational, used only for error messages).
func NewFile(path, contents string) Value {
	return Value{Kind: KindFile, Str: contents, FilePath: path}
}

// fileTemplateFuncs is sprig's function set with the funcs that read host
// environment/process state removed, mirroring the teacher's tplFuncMap
// (internal/cmd/controller/target/builder.go): a file-kind variable body
// already has its own "${env:...}" placeholder namespace for that.
func fileTemplateFuncs() template.FuncMap {
	f := sprig.TxtFuncMap()
	delete(f, "env")
	delete(f, "expandenv")
	return f
}

// RenderFileBody executes a file-kind variable's raw body as a Go template
// with sprig's helper functions available, so file bodies can use sprig's
// string/semver/encoding helpers (e.g. "{{ upper \"x\" }}") rather than
// only literal content. A body with no template actions round-trips
// unchanged.
func RenderFileBody(body string) (string, error) {
	tmpl, err := template.New("file").Funcs(fileTemplateFuncs()).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parsing file-kind variable body: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("executing file-kind variable body: %w", err)
	}
	return buf.String(), nil
}

// NewMapStringFile builds a KindMapStringFile value (map of file name -> file
// contents).
func NewMapStringFile(m map[string]string) Value {
	return Value{Kind: KindMapStringFile, MapFile: m}
}

// NewMapString builds a KindMapString value.
func NewMapString(m map[string]string) Value {
	return Value{Kind: KindMapString, Map: m}
}

// Scalar renders the value in its canonical string-templating form (spec.md
// §4.1 "String templating"): Bool -> true/false, Number -> canonical
// decimal, String/File -> raw value, Yaml -> its YAML serialization.
func (v Value) Scalar() (string, error) {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "true", nil
		}
		return "false", nil
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64), nil
	case KindString, KindFile:
		return v.Str, nil
	case KindYAML:
		out, err := yaml.Marshal(v.YAML)
		if err != nil {
			return "", fmt.Errorf("serializing yaml variable: %w", err)
		}
		return string(out), nil
	case KindMapString, KindMapStringFile:
		return "", fmt.Errorf("variable of kind %s has no scalar form", v.Kind)
	default:
		return "", fmt.Errorf("unknown variable kind %q", v.Kind)
	}
}

// YAMLNode renders the value as a native YAML node for whole-leaf
// substitution (spec.md §4.1 "YAML value templating"): a Yaml variable
// expands into its subtree, a Bool into a YAML boolean, etc.
func (v Value) YAMLNode() (interface{}, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindNumber:
		return v.Number, nil
	case KindString, KindFile:
		return v.Str, nil
	case KindYAML:
		return v.YAML, nil
	case KindMapString:
		out := map[string]interface{}{}
		for k, val := range v.Map {
			out[k] = val
		}
		return out, nil
	case KindMapStringFile:
		out := map[string]interface{}{}
		for k, val := range v.MapFile {
			out[k] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown variable kind %q", v.Kind)
	}
}
