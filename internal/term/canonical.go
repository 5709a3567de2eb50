package term

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical JSON form of a term, used for
// content-addressed hashing and golden traces. The encoding follows
// RFC 8785: object keys sorted by UTF-16 code units, strings NFC
// normalized, no HTML escaping, no floats, no nulls.
//
// Each variant encodes as an object with a "tag" field:
//
//	{"tag":"num","value":42}
//	{"body":{...},"param":"x","tag":"lam"}
//
// Two structurally equal terms always produce byte-identical output.
func MarshalCanonical(t Term) ([]byte, error) {
	obj, err := toCanonicalValue(t)
	if err != nil {
		return nil, err
	}
	return MarshalCanonicalAny(obj)
}

// toCanonicalValue converts a term to the plain map form that
// MarshalCanonicalAny serializes.
func toCanonicalValue(t Term) (any, error) {
	switch v := t.(type) {
	case Num:
		return map[string]any{"tag": "num", "value": v.Value}, nil
	case Var:
		return map[string]any{"tag": "var", "name": v.Name}, nil
	case DupVar:
		return map[string]any{"tag": "dupvar", "name": v.Name, "index": int64(v.Index)}, nil
	case Lam:
		body, err := toCanonicalValue(v.Body)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tag": "lam", "param": v.Param, "body": body}, nil
	case App:
		fn, err := toCanonicalValue(v.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := toCanonicalValue(v.Arg)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tag": "app", "fn": fn, "arg": arg}, nil
	case Sup:
		left, err := toCanonicalValue(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := toCanonicalValue(v.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tag": "sup", "label": v.Label, "left": left, "right": right}, nil
	case Dup:
		value, err := toCanonicalValue(v.Value)
		if err != nil {
			return nil, err
		}
		body, err := toCanonicalValue(v.Body)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"tag": "dup", "name": v.Name, "label": v.Label,
			"value": value, "body": body,
		}, nil
	case Era:
		return map[string]any{"tag": "era"}, nil
	case Op2:
		left, err := toCanonicalValue(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := toCanonicalValue(v.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tag": "op2", "op": v.Op, "left": left, "right": right}, nil
	case Pair:
		left, err := toCanonicalValue(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := toCanonicalValue(v.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tag": "pair", "left": left, "right": right}, nil
	default:
		return nil, fmt.Errorf("unknown term variant: %T", t)
	}
}

// MarshalCanonicalAny serializes a plain value (string, int64, int, bool,
// []any, map[string]any) to RFC 8785 canonical JSON. Floats and nil are
// rejected: both break byte-stable hashing.
func MarshalCanonicalAny(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		writeCanonicalString(buf, val)
		return nil
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case bool:
		buf.WriteString(strconv.FormatBool(val))
		return nil
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeysRFC8785(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// writeCanonicalString emits an RFC 8785 JSON string: NFC normalized, with
// only quote, backslash, and control characters escaped. HTML-significant
// characters and U+2028/U+2029 stay literal, unlike encoding/json.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// sortedKeysRFC8785 returns keys in RFC 8785 canonical order. The order is
// defined over UTF-16 code units; Go's default string comparison is UTF-8
// byte order, which differs for characters outside the BMP.
func sortedKeysRFC8785(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
