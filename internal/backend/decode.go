package backend

import (
	"encoding/json"
	"fmt"

	"tradedeck/internal/lifecycle"
	"tradedeck/internal/models"
)

// DecodeRecords unmarshals a JSON array of records for the given kind and
// normalizes each raw status into its canonical form. This is the single
// decode path shared by the poll channel and the warm-start cache.
func DecodeRecords(kind models.Kind, data []byte) ([]models.Record, error) {
	switch kind {
	case models.KindSignal:
		var signals []*models.Signal
		if err := json.Unmarshal(data, &signals); err != nil {
			return nil, err
		}
		records := make([]models.Record, 0, len(signals))
		for _, s := range signals {
			if s == nil {
				continue
			}
			s.Status = lifecycle.Normalize(kind, s.RawStatus)
			records = append(records, s)
		}
		return records, nil

	case models.KindOrder:
		var orders []*models.Order
		if err := json.Unmarshal(data, &orders); err != nil {
			return nil, err
		}
		records := make([]models.Record, 0, len(orders))
		for _, o := range orders {
			if o == nil {
				continue
			}
			o.Status = lifecycle.Normalize(kind, o.RawStatus)
			records = append(records, o)
		}
		return records, nil

	case models.KindTrade:
		var trades []*models.Trade
		if err := json.Unmarshal(data, &trades); err != nil {
			return nil, err
		}
		records := make([]models.Record, 0, len(trades))
		for _, t := range trades {
			if t == nil {
				continue
			}
			t.Status = lifecycle.Normalize(kind, t.RawStatus)
			records = append(records, t)
		}
		return records, nil
	}
	return nil, fmt.Errorf("unknown resource kind: %s", kind)
}

// DecodeRecord unmarshals a single record of the given kind, normalizing its
// status. Used for push-event payloads.
func DecodeRecord(kind models.Kind, data []byte) (models.Record, error) {
	switch kind {
	case models.KindSignal:
		var s models.Signal
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		s.Status = lifecycle.Normalize(kind, s.RawStatus)
		return &s, nil

	case models.KindOrder:
		var o models.Order
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, err
		}
		o.Status = lifecycle.Normalize(kind, o.RawStatus)
		return &o, nil

	case models.KindTrade:
		var t models.Trade
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		t.Status = lifecycle.Normalize(kind, t.RawStatus)
		return &t, nil
	}
	return nil, fmt.Errorf("unknown resource kind: %s", kind)
}

// DecodeAccount unmarshals an account summary payload.
func DecodeAccount(data []byte) (*models.AccountSummary, error) {
	var summary models.AccountSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
