package brief

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ReferenceTrack is one structured entry of reference_tracks.
type ReferenceTrack struct {
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Brief maps field names of the closed set to typed values: string, float64,
// bool, []string or []ReferenceTrack.
type Brief map[string]any

// IsMeaningful reports whether v counts as a filled value. false and 0 are
// meaningful; nil, "" and empty lists are not.
func IsMeaningful(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case []ReferenceTrack:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// Has reports whether field holds a meaningful value.
func (b Brief) Has(field string) bool {
	return IsMeaningful(b[field])
}

// MeaningfulCount counts fields holding a meaningful value.
func (b Brief) MeaningfulCount() int {
	n := 0
	for _, v := range b {
		if IsMeaningful(v) {
			n++
		}
	}
	return n
}

// Budget returns budget_amount when it is set.
func (b Brief) Budget() (float64, bool) {
	v, ok := b[BudgetAmount].(float64)
	return v, ok
}

// Clone returns a copy whose list values do not alias b.
func (b Brief) Clone() Brief {
	out := make(Brief, len(b))
	for k, v := range b {
		switch t := v.(type) {
		case []string:
			out[k] = append([]string(nil), t...)
		case []ReferenceTrack:
			out[k] = append([]ReferenceTrack(nil), t...)
		default:
			out[k] = v
		}
	}
	return out
}

// Overlay writes every known, meaningful entry of src into b, replacing what
// was there.
func (b Brief) Overlay(src Brief) []string {
	var written []string
	for _, name := range src.Keys() {
		v := src[name]
		if !IsKnown(name) || v == nil {
			continue
		}
		b[name] = v
		written = append(written, name)
	}
	return written
}

// Keys returns field names in catalog order; unknown keys sort last.
func (b Brief) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return catalogRank(keys[i]) < catalogRank(keys[j]) ||
			(catalogRank(keys[i]) == catalogRank(keys[j]) && keys[i] < keys[j])
	})
	return keys
}

func catalogRank(name string) int {
	for i, f := range Fields {
		if f.Name == name {
			return i
		}
	}
	return len(Fields)
}

// UnmarshalJSON keeps only known fields whose values fit the field kind.
func (b *Brief) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Brief, len(raw))
	for k, v := range raw {
		spec, ok := Lookup(k)
		if !ok || v == nil {
			continue
		}
		val, err := Coerce(spec.Kind, v)
		if err != nil {
			continue
		}
		out[k] = val
	}
	*b = out
	return nil
}

// Coerce converts a decoded JSON value into the Go type used for kind.
func Coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			f, err := n.Float64()
			if err == nil {
				return f, nil
			}
		}
	case KindBool:
		if bv, ok := v.(bool); ok {
			return bv, nil
		}
	case KindStringList:
		switch l := v.(type) {
		case []string:
			return append([]string{}, l...), nil
		case []any:
			out := make([]string, 0, len(l))
			for _, item := range l {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("list item %v is not a string", item)
				}
				out = append(out, s)
			}
			return out, nil
		}
	case KindTrackList:
		switch l := v.(type) {
		case []ReferenceTrack:
			return append([]ReferenceTrack{}, l...), nil
		case []any:
			out := make([]ReferenceTrack, 0, len(l))
			for _, item := range l {
				track, err := coerceTrack(item)
				if err != nil {
					return nil, err
				}
				out = append(out, track)
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) does not fit field kind", v, v)
}

func coerceTrack(item any) (ReferenceTrack, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return ReferenceTrack{}, fmt.Errorf("reference track %v is not an object", item)
	}
	var t ReferenceTrack
	for key, dst := range map[string]*string{"artist": &t.Artist, "title": &t.Title, "notes": &t.Notes} {
		switch s := obj[key].(type) {
		case nil:
		case string:
			*dst = s
		default:
			return ReferenceTrack{}, fmt.Errorf("reference track %s is not a string", key)
		}
	}
	return t, nil
}
