package skills

import (
	"fmt"
	"strconv"
	"strings"
)

func GetStringParam(params map[string]any, key string) (string, error) {
	value, ok := params[key]
	if !ok {
		return "", fmt.Errorf("params missing required key: '%s'", key)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("params key '%s' has an invalid type (expected string)", key)
	}
	return strValue, nil
}

func GetIntParam(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("params missing required key: '%s'", key)
	}
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("params key '%s' invalid int: %v", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("params key '%s' has unsupported type %T", key, v)
	}
}

func GetFloatParam(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("params missing required key: '%s'", key)
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("params key '%s' invalid number: %v", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("params key '%s' has unsupported type %T", key, v)
	}
}
