package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Batch is one crawler output file.
type Batch struct {
	AccountID  string
	DateLayout string // Go layout of the record dates; empty means the configured default
	Records    []domain.ParsedRecord
}

// DecodeBatch parses a crawler batch file:
//
//	{"account_id": "...", "date_layout": "02/01/2006", "records": [
//	  {"operation_date": "...", "value_date": "...", "amount": -10.5,
//	   "temp_balance": 100.0, "description": "...", "description_extended": "..."}]}
//
// Numbers are kept as decimal text so amounts never pass through float64.
func DecodeBatch(data []byte) (*Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("DecodeBatch: invalid JSON: %w", err)
	}

	accountID, err := getStringField(raw, "account_id", false)
	if err != nil {
		return nil, fmt.Errorf("DecodeBatch: %w", err)
	}
	layout, err := getStringField(raw, "date_layout", false)
	if err != nil {
		return nil, fmt.Errorf("DecodeBatch: %w", err)
	}

	recAny, ok := raw["records"]
	if !ok {
		return nil, fmt.Errorf("DecodeBatch: missing 'records' key")
	}
	recSlice, ok := recAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("DecodeBatch: 'records' is %T, want []interface{}", recAny)
	}

	batch := &Batch{
		AccountID:  strings.TrimSpace(accountID),
		DateLayout: strings.TrimSpace(layout),
		Records:    make([]domain.ParsedRecord, 0, len(recSlice)),
	}

	for i, item := range recSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("DecodeBatch: record %d is %T, want map[string]interface{}", i, item)
		}
		rec, err := decodeRecord(obj)
		if err != nil {
			return nil, fmt.Errorf("DecodeBatch: record %d: %w", i, err)
		}
		batch.Records = append(batch.Records, rec)
	}

	return batch, nil
}

func decodeRecord(obj map[string]interface{}) (domain.ParsedRecord, error) {
	var rec domain.ParsedRecord
	var err error

	if rec.OperationDate, err = getStringField(obj, "operation_date", true); err != nil {
		return rec, err
	}
	if rec.ValueDate, err = getStringField(obj, "value_date", false); err != nil {
		return rec, err
	}
	if rec.ValueDate == "" {
		rec.ValueDate = rec.OperationDate
	}
	if rec.Amount, err = getDecimalField(obj, "amount"); err != nil {
		return rec, err
	}
	if rec.TempBalance, err = getOptionalDecimalField(obj, "temp_balance"); err != nil {
		return rec, err
	}
	if rec.Description, err = getStringField(obj, "description", false); err != nil {
		return rec, err
	}
	extended, err := getOptionalStringField(obj, "description_extended")
	if err != nil {
		return rec, err
	}
	if extended != nil {
		rec.DescriptionExtended = *extended
	}
	return rec, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

func getDecimalField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("missing required field %q", key)
	}
	return toDecimal(key, v)
}

func getOptionalDecimalField(m map[string]interface{}, key string) (decimal.NullDecimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := toDecimal(key, v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// toDecimal accepts JSON numbers and numeric strings, the latter with either
// a dot or a single comma as decimal separator.
func toDecimal(key string, v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		s := strings.TrimSpace(val)
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
