package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize extracts the canonical record list from a response body. It tries,
// in order: the body itself if it is an array, the "items" array, the "data"
// array, and finally the body wrapped as a single record. Non-object elements
// are dropped and an empty or null body yields an empty list.
func Normalize(body []byte) ([]map[string]any, error) {
	raw, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	return normalizeValue(raw), nil
}

func decodeBody(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return unwrapProxy(raw), nil
}

func normalizeValue(raw any) []map[string]any {
	switch v := raw.(type) {
	case []any:
		return objects(v)
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return objects(items)
		}
		if data, ok := v["data"].([]any); ok {
			return objects(data)
		}
		return []map[string]any{v}
	default:
		return []map[string]any{}
	}
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// unwrapProxy opens an API-gateway proxy envelope whose body is a JSON string.
func unwrapProxy(raw any) any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	if _, hasStatus := obj["statusCode"]; !hasStatus {
		return raw
	}
	inner, ok := obj["body"].(string)
	if !ok {
		return raw
	}
	dec := json.NewDecoder(strings.NewReader(inner))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return raw
	}
	return decoded
}

// singleRecord picks the record out of a create or update response.
func singleRecord(raw any) map[string]any {
	obj, ok := raw.(map[string]any)
	if !ok {
		if list := normalizeValue(raw); len(list) > 0 {
			return list[0]
		}
		return nil
	}
	for _, key := range []string{"data", "item", "record"} {
		if inner, ok := obj[key].(map[string]any); ok {
			return inner
		}
	}
	if list := normalizeValue(obj); len(list) > 0 {
		return list[0]
	}
	return nil
}

// errorBody detects a failure reported inside a 2xx response.
func errorBody(raw any) (string, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	if success, ok := obj["success"].(bool); ok && !success {
		return firstString(obj, "error", "message", "errorMessage"), true
	}
	for _, key := range []string{"items", "data", "id"} {
		if _, present := obj[key]; present {
			return "", false
		}
	}
	if msg, ok := obj["error"].(string); ok && msg != "" {
		return msg, true
	}
	if msg, ok := obj["errorMessage"].(string); ok && msg != "" {
		return msg, true
	}
	return "", false
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// serverMessage pulls a human readable message out of an error response.
func serverMessage(body []byte) string {
	raw, err := decodeBody(body)
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	if obj, ok := raw.(map[string]any); ok {
		return firstString(obj, "error", "message", "errorMessage", "detail")
	}
	return ""
}
