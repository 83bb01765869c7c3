package service

import (
	"encoding/json"
	"strconv"

	apperrors "github.com/spendlens/spendlens/internal/errors"
)

// Task kwargs arrive as generic JSON, so numbers decode as float64 and
// occasionally json.Number. These helpers normalize the accepted shapes.

func int64Kwarg(kwargs map[string]any, key string) (int64, bool, error) {
	raw, ok := kwargs[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case int:
		return int64(v), true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, apperrors.Validationf("%s must be an integer, got %q", key, v.String())
		}
		return n, true, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false, apperrors.Validationf("%s must be an integer, got %q", key, v)
		}
		return n, true, nil
	default:
		return 0, false, apperrors.Validationf("%s must be an integer, got %T", key, raw)
	}
}

func intKwarg(kwargs map[string]any, key string, fallback int) (int, error) {
	n, ok, err := int64Kwarg(kwargs, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}
	return int(n), nil
}

func stringKwarg(kwargs map[string]any, key, fallback string) (string, error) {
	raw, ok := kwargs[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", apperrors.Validationf("%s must be a string, got %T", key, raw)
	}
	return s, nil
}

func boolKwarg(kwargs map[string]any, key string, fallback bool) (bool, error) {
	raw, ok := kwargs[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, apperrors.Validationf("%s must be a boolean, got %T", key, raw)
	}
	return b, nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func requireInt64Kwarg(kwargs map[string]any, key string) (int64, error) {
	n, ok, err := int64Kwarg(kwargs, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperrors.Validationf("%s is required in input payload", key)
	}
	return n, nil
}
