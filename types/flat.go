package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Field struct {
	Key   string
	Value any
}

// FlatRecord is the caller facing output unit: one interval as an ordered
// list of fields. Timestamps are always the first field.
type FlatRecord []Field

func (f FlatRecord) Keys() []string {
	keys := make([]string, len(f))
	for i, field := range f {
		keys[i] = field.Key
	}
	return keys
}

func (f FlatRecord) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes an object keeping the field order.
func (f FlatRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(field.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", field.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r LoadRecord) Flatten() FlatRecord {
	return FlatRecord{
		{Key: "timestamp", Value: r.Timestamp.UTC().Format(time.RFC3339)},
		{Key: "load_MW", Value: r.LoadMW},
		{Key: "ba_name", Value: r.BAName},
		{Key: "freq", Value: r.Freq},
		{Key: "market", Value: r.Market},
	}
}

func (r PriceRecord) Flatten() FlatRecord {
	flat := make(FlatRecord, 0, len(r.Prices)+4)
	flat = append(flat, Field{Key: "timestamp", Value: r.Timestamp.UTC().Format(time.RFC3339)})
	for _, ccy := range r.Currencies() {
		flat = append(flat, Field{Key: "price_" + ccy, Value: r.Prices[ccy].Any()})
	}
	return append(flat,
		Field{Key: "ba_name", Value: r.BAName},
		Field{Key: "freq", Value: r.Freq},
		Field{Key: "market", Value: r.Market})
}

func (r ImbalanceRecord) Flatten() FlatRecord {
	return FlatRecord{
		{Key: "timestamp", Value: r.Timestamp.UTC().Format(time.RFC3339)},
		{Key: "+imbalance_price", Value: r.PositivePrice.Any()},
		{Key: "-imbalance_price", Value: r.NegativePrice.Any()},
		{Key: "total_imbalance", Value: r.TotalImbalance.Any()},
		{Key: "status", Value: r.Status.Any()},
		{Key: "ba_name", Value: r.BAName},
		{Key: "freq", Value: r.Freq},
		{Key: "market", Value: r.Market},
	}
}

// Flattener is implemented by every record type.
type Flattener interface {
	Flatten() FlatRecord
}

func Flatten[T Flattener](records []T) []FlatRecord {
	flat := make([]FlatRecord, len(records))
	for i, r := range records {
		flat[i] = r.Flatten()
	}
	return flat
}
