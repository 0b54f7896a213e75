package postgres

import (
	"encoding/json"
	"time"
)

func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

type scanner interface {
	Scan(dest ...interface{}) error
}
