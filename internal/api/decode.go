package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Decode validates resp and parses its body into a generic JSON object.
// Status codes outside [200,300) yield ErrTransport. A body that is not a
// JSON object yields ErrParse and is logged with its raw text. An empty body
// decodes to an empty map. Numbers are kept as json.Number.
func Decode(resp *Response, logger Logger) (map[string]any, error) {
	if resp == nil {
		return nil, &Error{Kind: ErrTransport, Op: "decode", Err: fmt.Errorf("no response")}
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &Error{
			Kind:   ErrTransport,
			Op:     "decode",
			URL:    resp.URL,
			Status: resp.Status,
			Body:   string(resp.Body),
		}
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	if !utf8.Valid(body) {
		body = bytes.ToValidUTF8(body, []byte("�"))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		if logger != nil {
			logger.LogWarn(fmt.Sprintf("could not parse response from %s: %v; raw body: %s", resp.URL, err, resp.Body))
		}
		return nil, &Error{Kind: ErrParse, Op: "decode", URL: resp.URL, Status: resp.Status, Body: string(resp.Body), Err: err}
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Path walks nested objects by key and returns the value found, if any.
func Path(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[k]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Map returns the object at keys, or nil.
func Map(m map[string]any, keys ...string) map[string]any {
	v, _ := Path(m, keys...)
	obj, _ := v.(map[string]any)
	return obj
}

// Slice returns the array at keys, or nil.
func Slice(m map[string]any, keys ...string) []any {
	v, _ := Path(m, keys...)
	arr, _ := v.([]any)
	return arr
}

// String returns the string at keys, or "".
func String(m map[string]any, keys ...string) string {
	v, _ := Path(m, keys...)
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// Int returns the integer at keys. Non-integral or out-of-range numbers
// report ok=false.
func Int(m map[string]any, keys ...string) (int, bool) {
	v, found := Path(m, keys...)
	if !found {
		return 0, false
	}
	return toInt(v)
}

// Float returns the number at keys.
func Float(m map[string]any, keys ...string) (float64, bool) {
	v, found := Path(m, keys...)
	if !found {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i64, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return 0, false
			}
			i64 = int64(f)
		}
		i, err := safecast.Conv[int](i64)
		return i, err == nil
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		i, err := safecast.Conv[int](int64(n))
		return i, err == nil
	case int:
		return n, true
	default:
		return 0, false
	}
}
