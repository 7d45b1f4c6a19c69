package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"dashboard/internal/engine"
)

func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func getString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// getInt reads a JSON number argument, falling back to def.
func getInt(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func getBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// targetFrom builds a block target from the areaId, blockId and
// parentBlockId arguments.
func targetFrom(args map[string]any) (engine.Target, error) {
	area, err := requireString(args, "areaId")
	if err != nil {
		return engine.Target{}, err
	}
	block, err := requireString(args, "blockId")
	if err != nil {
		return engine.Target{}, err
	}
	return engine.Target{AreaID: area, BlockID: block, ParentBlockID: getString(args, "parentBlockId")}, nil
}

// parsePath splits a dotted field path such as "typography.size".
func parsePath(args map[string]any) ([]string, error) {
	raw, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	path := strings.Split(raw, ".")
	for _, seg := range path {
		if seg == "" {
			return nil, fmt.Errorf("invalid path %q", raw)
		}
	}
	return path, nil
}

// parseValue decodes a setting value given as JSON. Text that is not valid
// JSON is taken as a plain string, so "#ff0000" needs no quoting.
func parseValue(args map[string]any) (any, error) {
	raw, ok := args["value"]
	if !ok {
		return nil, fmt.Errorf("value is required")
	}
	str, ok := raw.(string)
	if !ok {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(str), &v); err != nil {
		return str, nil
	}
	return v, nil
}
