package tool

import (
	"encoding/json"

	"toolhost/internal/domain"
)

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
}

// Schema builds a JSON Schema "parameters" object for a tool.
func Schema(properties map[string]Param, required []string) map[string]any {
	props := make(map[string]any)
	for name, p := range properties {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ArgString extracts a string argument; non-string values are rendered as
// JSON so callers passing numbers or objects still get something usable.
func ArgString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// ArgInt extracts an integer argument; JSON numbers decode as float64.
func ArgInt(args map[string]any, key string, def int) int {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// ArgBool extracts a boolean argument.
func ArgBool(args map[string]any, key string, def bool) bool {
	if args == nil {
		return def
	}
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// RequireString extracts a mandatory string argument, or reports a
// parameter error naming it.
func RequireString(args map[string]any, key string) (string, error) {
	s := ArgString(args, key)
	if s == "" {
		return "", domain.MissingArg(key)
	}
	return s, nil
}

func cacheableFlag(b bool) *bool { return &b }
