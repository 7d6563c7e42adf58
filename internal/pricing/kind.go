package pricing

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the pricing model shapes offered by the catalogue.
type Kind string

const (
	KindUndefined    Kind = "UNDEFINED"
	KindFree         Kind = "FREE"
	KindFixed        Kind = "FIXED"
	KindSubscription Kind = "SUBSCRIPTION"
)

// ParseKind matches case-insensitively and falls back to KindUndefined.
func ParseKind(v string) Kind {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case string(KindFree):
		return KindFree
	case string(KindFixed):
		return KindFixed
	case string(KindSubscription):
		return KindSubscription
	default:
		return KindUndefined
	}
}

// Known reports whether the gateway knows how to compute this kind.
func (k Kind) Known() bool {
	return k == KindFree || k == KindFixed || k == KindSubscription
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*k = ParseKind(raw)
	return nil
}
