package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FieldError reports a missing or mistyped field in a decoded payload.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	if isNull(data) {
		return nil, fmt.Errorf("expected object, got null")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("expected object: %w", err)
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func requireField(fields map[string]json.RawMessage, key string) (json.RawMessage, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, &FieldError{Field: key, Reason: "missing"}
	}
	return raw, nil
}

func requireString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, err := requireField(fields, key)
	if err != nil {
		return "", err
	}
	if isNull(raw) {
		return "", &FieldError{Field: key, Reason: "null"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &FieldError{Field: key, Reason: "expected string"}
	}
	return s, nil
}

func requireUint(fields map[string]json.RawMessage, key string) (*big.Int, error) {
	s, err := requireString(fields, key)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, &FieldError{Field: key, Reason: fmt.Sprintf("not an integer: %q", s)}
	}
	if n.Sign() < 0 {
		return nil, &FieldError{Field: key, Reason: fmt.Sprintf("negative: %s", s)}
	}
	return n, nil
}

func requireDecimal(fields map[string]json.RawMessage, key string) (decimal.Decimal, error) {
	s, err := requireString(fields, key)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &FieldError{Field: key, Reason: fmt.Sprintf("not a decimal: %q", s)}
	}
	return d, nil
}

func nullableDecimal(fields map[string]json.RawMessage, key string) (*decimal.Decimal, error) {
	raw, err := requireField(fields, key)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	d, err := requireDecimal(fields, key)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
