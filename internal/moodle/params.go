package moodle

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Param is a single named argument to a web-service function.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered argument list. Values may be scalars, nested Params,
// string-keyed maps, or slices of any of these.
type Params []Param

// Add returns p with key appended.
func (p Params) Add(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Pair is one flattened form field.
type Pair struct {
	Key   string
	Value string
}

// Flatten expands nested params into bracketed form keys, preserving
// insertion order: {a:{b:[1,2]}} becomes a[b][0]=1, a[b][1]=2.
// Nil values are dropped.
func Flatten(params Params) []Pair {
	var out []Pair
	for _, p := range params {
		out = flattenValue(out, p.Key, p.Value)
	}
	return out
}

func flattenValue(out []Pair, key string, value any) []Pair {
	switch v := value.(type) {
	case nil:
		return out
	case Params:
		for _, p := range v {
			out = flattenValue(out, key+"["+p.Key+"]", p.Value)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = flattenValue(out, key+"["+k+"]", v[k])
		}
		return out
	case []byte:
		return append(out, Pair{Key: key, Value: string(v)})
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			out = flattenValue(out, key+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return out
		}
		return flattenValue(out, key, rv.Elem().Interface())
	}
	return append(out, Pair{Key: key, Value: scalarString(value)})
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// encodeForm renders pairs as an urlencoded body without reordering them.
func encodeForm(pairs []Pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
