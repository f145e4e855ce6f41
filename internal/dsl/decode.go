package dsl

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrMalformed is wrapped by every decoding error caused by the shape of
// the input (as opposed to I/O failures).
var ErrMalformed = errors.New("malformed request")

// TagOrder is the precedence used when a clause object carries several tags.
var TagOrder = []string{"bool", "match", "match_phrase", "multi_match", "exists", "term", "terms", "range"}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, path, fmt.Sprintf(format, args...))
}

// DecodeFile reads a request from path. The format is chosen by extension:
// .json, .yaml/.yml or .cue.
func DecodeFile(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(data)
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".cue":
		return DecodeCUE(data, filepath.Base(path))
	default:
		return nil, fmt.Errorf("unsupported request file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path))
	}
}

// DecodeJSON decodes a JSON request document.
func DecodeJSON(data []byte) (*Request, error) {
	raw, err := decodeJSONObject(data)
	if err != nil {
		return nil, err
	}
	order, err := jsonKeyOrder(data, metricsPath...)
	if err != nil {
		return nil, err
	}
	return fromMap(raw, order)
}

// DecodeJSONDocument decodes arbitrary JSON with numbers normalized the same
// way request values are (integers as int64, other numbers as float64).
func DecodeJSONDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}
	return normalizeDocument(raw)
}

func decodeJSONObject(data []byte) (map[string]any, error) {
	doc, err := DecodeJSONDocument(data)
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, malformed("$", "request must be an object, got %T", doc)
	}
	return obj, nil
}

// DecodeYAML decodes a YAML request document.
func DecodeYAML(data []byte) (*Request, error) {
	doc, err := DecodeYAMLDocument(data)
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, malformed("$", "request must be a mapping, got %T", doc)
	}
	order, err := yamlKeyOrder(data, metricsPath...)
	if err != nil {
		return nil, err
	}
	return fromMap(obj, order)
}

// DecodeYAMLDocument decodes arbitrary YAML into normalized Go values.
func DecodeYAMLDocument(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %v", ErrMalformed, err)
	}
	return normalizeDocument(raw)
}

// DecodeCUE evaluates a CUE document and decodes its concrete value.
// filename is used only in error positions.
func DecodeCUE(data []byte, filename string) (*Request, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("%w: compile CUE: %v", ErrMalformed, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: CUE value is not concrete: %v", ErrMalformed, err)
	}

	jsonData, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: export CUE: %v", ErrMalformed, err)
	}
	return DecodeJSON(jsonData)
}

// FromMap builds a Request from a generic, already-normalized document.
// A Go map carries no key order, so metrics are ordered by alias; the byte
// decoders keep metrics in document order.
func FromMap(raw map[string]any) (*Request, error) {
	return fromMap(raw, nil)
}

// fromMap builds a Request; metricOrder lists metric aliases as written.
func fromMap(raw map[string]any, metricOrder []string) (*Request, error) {
	req := &Request{}

	if v, ok := raw["_source"]; ok && v != nil {
		src, err := stringList(v, "_source")
		if err != nil {
			return nil, err
		}
		req.Source = src
	}

	if v, ok := raw["query"]; ok && v != nil {
		clause, err := decodeClause(v, "query")
		if err != nil {
			return nil, err
		}
		req.Query = clause
	}

	if v, ok := raw["join"]; ok && v != nil {
		joins, err := decodeJoins(v)
		if err != nil {
			return nil, err
		}
		req.Join = joins
	}

	if v, ok := raw["sort"]; ok && v != nil {
		sorts, err := decodeSort(v)
		if err != nil {
			return nil, err
		}
		req.Sort = sorts
	}

	if v, ok := raw["aggs"]; ok && v != nil {
		aggs, err := decodeAggs(v, metricOrder)
		if err != nil {
			return nil, err
		}
		req.Aggs = aggs
	}

	for _, key := range []string{"size", "from"} {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		n, err := intValue(v, key)
		if err != nil {
			return nil, err
		}
		if key == "size" {
			req.Size = &n
		} else {
			req.From = &n
		}
	}

	return req, nil
}

// DecodeClause builds a Clause from a generic document node.
func DecodeClause(v any) (Clause, error) {
	doc, err := normalizeDocument(v)
	if err != nil {
		return nil, err
	}
	return decodeClause(doc, "query")
}

func decodeClause(v any, path string) (Clause, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(path, "clause must be an object, got %T", v)
	}
	if len(obj) == 0 {
		return MatchAll{}, nil
	}

	for _, tag := range TagOrder {
		body, ok := obj[tag]
		if !ok {
			continue
		}
		p := path + "." + tag
		switch tag {
		case "bool":
			return decodeBool(body, p)
		case "match":
			return decodeMatch(body, p)
		case "match_phrase":
			field, text, err := decodeTextQuery(body, p)
			if err != nil {
				return nil, err
			}
			return MatchPhrase{Field: field, Text: text}, nil
		case "multi_match":
			return decodeMultiMatch(body, p)
		case "exists":
			return decodeExists(body, p)
		case "term":
			return decodeTerm(body, p)
		case "terms":
			return decodeTerms(body, p)
		case "range":
			return decodeRange(body, p)
		}
	}

	if _, ok := obj["match_all"]; ok {
		return MatchAll{}, nil
	}

	keys := sortedKeys(obj)
	return Unknown{Tag: keys[0]}, nil
}

func decodeBool(v any, path string) (Clause, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(path, "expected an object, got %T", v)
	}

	var b Bool
	for _, part := range []struct {
		key string
		dst *[]Clause
	}{
		{"must", &b.Must},
		{"filter", &b.Filter},
		{"should", &b.Should},
		{"must_not", &b.MustNot},
	} {
		raw, ok := obj[part.key]
		if !ok || raw == nil {
			continue
		}
		children, err := clauseList(raw, path+"."+part.key)
		if err != nil {
			return nil, err
		}
		*part.dst = children
	}
	return b, nil
}

// clauseList accepts either a list of clauses or a single clause object.
func clauseList(v any, path string) ([]Clause, error) {
	switch val := v.(type) {
	case []any:
		out := make([]Clause, 0, len(val))
		for i, elem := range val {
			c, err := decodeClause(elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	case map[string]any:
		c, err := decodeClause(val, path)
		if err != nil {
			return nil, err
		}
		return []Clause{c}, nil
	default:
		return nil, malformed(path, "expected a clause or a list of clauses, got %T", v)
	}
}

// singleField unwraps {"<field>": <body>}.
func singleField(v any, path string) (string, any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", nil, malformed(path, "expected an object, got %T", v)
	}
	if len(obj) != 1 {
		return "", nil, malformed(path, "expected exactly one field, got %d", len(obj))
	}
	for k, body := range obj {
		return k, body, nil
	}
	return "", nil, nil
}

func decodeTerm(v any, path string) (Clause, error) {
	field, body, err := singleField(v, path)
	if err != nil {
		return nil, err
	}
	if obj, ok := body.(map[string]any); ok {
		inner, ok := obj["value"]
		if !ok {
			return nil, malformed(path+"."+field, "expected a scalar or {value: ...}")
		}
		body = inner
	}
	val, err := scalar(body, path+"."+field)
	if err != nil {
		return nil, err
	}
	return Term{Field: field, Value: val}, nil
}

func decodeTerms(v any, path string) (Clause, error) {
	field, body, err := singleField(v, path)
	if err != nil {
		return nil, err
	}
	list, ok := body.([]any)
	if !ok {
		return nil, malformed(path+"."+field, "terms values must be a list, got %T", body)
	}
	values := make([]any, 0, len(list))
	for i, elem := range list {
		val, err := scalar(elem, fmt.Sprintf("%s.%s[%d]", path, field, i))
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return Terms{Field: field, Values: values}, nil
}

func decodeMatch(v any, path string) (Clause, error) {
	field, text, err := decodeTextQuery(v, path)
	if err != nil {
		return nil, err
	}
	return Match{Field: field, Text: text}, nil
}

// decodeTextQuery unwraps {"<field>": "text"} or {"<field>": {"query": "text"}}.
func decodeTextQuery(v any, path string) (string, string, error) {
	field, body, err := singleField(v, path)
	if err != nil {
		return "", "", err
	}
	if obj, ok := body.(map[string]any); ok {
		q, ok := obj["query"]
		if !ok {
			return "", "", malformed(path+"."+field, "expected a \"query\" key")
		}
		body = q
	}
	text, err := textValue(body, path+"."+field)
	if err != nil {
		return "", "", err
	}
	return field, text, nil
}

func decodeMultiMatch(v any, path string) (Clause, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(path, "expected an object, got %T", v)
	}
	text, err := textValue(obj["query"], path+".query")
	if err != nil {
		return nil, err
	}
	var fields []string
	if raw, ok := obj["fields"]; ok && raw != nil {
		fields, err = stringList(raw, path+".fields")
		if err != nil {
			return nil, err
		}
	}
	return MultiMatch{Text: text, Fields: fields}, nil
}

func decodeExists(v any, path string) (Clause, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(path, "expected an object, got %T", v)
	}
	raw, ok := obj["field"]
	if !ok || raw == nil {
		return Exists{}, nil
	}
	field, ok := raw.(string)
	if !ok {
		return nil, malformed(path+".field", "expected a string, got %T", raw)
	}
	return Exists{Field: field}, nil
}

func decodeRange(v any, path string) (Clause, error) {
	field, body, err := singleField(v, path)
	if err != nil {
		return nil, err
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, malformed(path+"."+field, "expected an object of bounds, got %T", body)
	}
	ops := make(map[string]any, len(obj))
	for k, raw := range obj {
		val, err := scalar(raw, path+"."+field+"."+k)
		if err != nil {
			return nil, err
		}
		ops[k] = val
	}
	return Range{Field: field, Ops: ops}, nil
}

func decodeJoins(v any) ([]Join, error) {
	list, ok := v.([]any)
	if !ok {
		if obj, isObj := v.(map[string]any); isObj {
			list = []any{obj}
		} else {
			return nil, malformed("join", "expected a list of join descriptors, got %T", v)
		}
	}

	joins := make([]Join, 0, len(list))
	for i, elem := range list {
		path := fmt.Sprintf("join[%d]", i)
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, malformed(path, "expected an object, got %T", elem)
		}

		var j Join
		var err error
		if j.Type, err = optionalString(obj, "type", path); err != nil {
			return nil, err
		}
		if j.Target, err = optionalString(obj, "target", path); err != nil {
			return nil, err
		}
		if j.Target == "" {
			// Also accept the {"table": ...} spelling.
			if j.Target, err = optionalString(obj, "table", path); err != nil {
				return nil, err
			}
		}

		if raw, ok := obj["on"]; ok && raw != nil {
			onObj, ok := raw.(map[string]any)
			if !ok {
				return nil, malformed(path+".on", "expected an object, got %T", raw)
			}
			on := &JoinOn{}
			if on.Left, err = optionalString(onObj, "left", path+".on"); err != nil {
				return nil, err
			}
			if on.Right, err = optionalString(onObj, "right", path+".on"); err != nil {
				return nil, err
			}
			if on.Op, err = optionalString(onObj, "op", path+".on"); err != nil {
				return nil, err
			}
			j.On = on
		}
		joins = append(joins, j)
	}
	return joins, nil
}

func decodeSort(v any) ([]SortField, error) {
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}

	sorts := make([]SortField, 0, len(list))
	for i, elem := range list {
		path := fmt.Sprintf("sort[%d]", i)
		switch val := elem.(type) {
		case string:
			sorts = append(sorts, SortField{Field: val, Order: OrderAsc})
		case map[string]any:
			// A mapping may hold several keys; each becomes one sort entry in
			// key order so the result does not depend on map iteration.
			for _, field := range sortedKeys(val) {
				order := ""
				switch o := val[field].(type) {
				case string:
					order = o
				case map[string]any:
					if s, ok := o["order"].(string); ok {
						order = s
					}
				}
				sorts = append(sorts, SortField{Field: field, Order: order})
			}
		default:
			return nil, malformed(path, "expected {field: direction} or a field name, got %T", elem)
		}
	}
	return sorts, nil
}

func decodeAggs(v any, metricOrder []string) (*Aggs, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed("aggs", "expected an object, got %T", v)
	}

	aggs := &Aggs{}
	if raw, ok := obj["group_by"]; ok && raw != nil {
		groupBy, err := stringList(raw, "aggs.group_by")
		if err != nil {
			return nil, err
		}
		aggs.GroupBy = groupBy
	}

	if raw, ok := obj["metrics"]; ok && raw != nil {
		metricsObj, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed("aggs.metrics", "expected an object of alias -> {op: field}, got %T", raw)
		}
		for _, alias := range orderedKeys(metricsObj, metricOrder) {
			path := "aggs.metrics." + alias
			body, ok := metricsObj[alias].(map[string]any)
			if !ok {
				return nil, malformed(path, "expected {op: field}, got %T", metricsObj[alias])
			}
			if len(body) != 1 {
				return nil, malformed(path, "expected exactly one operator, got %d", len(body))
			}
			for op, fieldRaw := range body {
				field, ok := fieldRaw.(string)
				if !ok {
					return nil, malformed(path+"."+op, "expected a field reference or \"*\", got %T", fieldRaw)
				}
				aggs.Metrics = append(aggs.Metrics, Metric{Alias: alias, Op: op, Field: field})
			}
		}
	}
	return aggs, nil
}

func optionalString(obj map[string]any, key, path string) (string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed(path+"."+key, "expected a string, got %T", raw)
	}
	return s, nil
}

func stringList(v any, path string) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for i, elem := range val {
			s, ok := elem.(string)
			if !ok {
				return nil, malformed(fmt.Sprintf("%s[%d]", path, i), "expected a string, got %T", elem)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, malformed(path, "expected a list of strings, got %T", v)
	}
}

func textValue(v any, path string) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case int64, float64, bool:
		return fmt.Sprint(val), nil
	default:
		return "", malformed(path, "expected text, got %T", v)
	}
}

func intValue(v any, path string) (int, error) {
	switch val := v.(type) {
	case int64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, malformed(path, "expected an integer, got %v", val)
		}
		return int(val), nil
	default:
		return 0, malformed(path, "expected an integer, got %T", v)
	}
}

// scalar checks that v can be bound as a SQL parameter.
func scalar(v any, path string) (any, error) {
	switch v.(type) {
	case nil, string, int64, float64, bool, []byte:
		return v, nil
	default:
		return nil, malformed(path, "expected a scalar value, got %T", v)
	}
}

// number is satisfied by json.Number from both encoding/json and goccy.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// normalizeDocument converts decoder output into the value set used by the
// rest of the package: nil, bool, string, int64, float64, []any, map[string]any.
func normalizeDocument(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int64, float64, []byte:
		return val, nil
	case number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %s", ErrMalformed, val.String())
		}
		return f, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return float64(val), nil
		}
		return int64(val), nil
	case float32:
		return float64(val), nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalizeDocument(elem)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalizeDocument(elem)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalizeDocument(elem)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrMalformed, v)
	}
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
