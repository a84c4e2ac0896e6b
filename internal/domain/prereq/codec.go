package prereq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRule is returned when rule JSON cannot be decoded at all.
var ErrInvalidRule = errors.New("invalid prerequisite rule")

// wireRule is the persisted shape of every variant.
type wireRule struct {
	Type       string            `json:"type"`
	CourseID   string            `json:"courseId,omitempty"`
	MinGrade   *float64          `json:"minGrade,omitempty"`
	Rules      []json.RawMessage `json:"rules,omitempty"`
	MinCount   *int              `json:"minCount,omitempty"`
	MinCredits *float64          `json:"minCredits,omitempty"`
	From       *[]string         `json:"from,omitempty"`
}

// Parse decodes a persisted rule tree. JSON null or empty input yields a
// nil rule. A well-formed object with an unrecognized type, or with fields
// that do not fit its type, decodes to Unknown rather than failing.
func Parse(data []byte) (Rule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidRule)
	}
	return decode(trimmed), nil
}

func decode(raw json.RawMessage) Rule {
	var w wireRule
	if err := json.Unmarshal(raw, &w); err != nil {
		return Unknown{Raw: append([]byte(nil), raw...)}
	}

	switch Kind(w.Type) {
	case KindCourse:
		if w.CourseID == "" {
			break
		}
		return CourseRule{CourseID: w.CourseID, MinGrade: w.MinGrade}

	case KindAllOf:
		return AllOf{Rules: decodeChildren(w.Rules)}

	case KindOneOf:
		r := OneOf{Rules: decodeChildren(w.Rules), MinCount: 1}
		if w.MinCount != nil {
			r.MinCount = *w.MinCount
		}
		return r

	case KindMinCredits:
		if w.MinCredits == nil {
			break
		}
		r := MinCredits{Credits: *w.MinCredits}
		if w.From != nil {
			r.From = append([]string{}, (*w.From)...)
		}
		return r
	}

	return Unknown{Type: w.Type, Raw: append([]byte(nil), raw...)}
}

func decodeChildren(raws []json.RawMessage) []Rule {
	rules := make([]Rule, 0, len(raws))
	for _, raw := range raws {
		rules = append(rules, decode(raw))
	}
	return rules
}

// Marshal encodes a rule tree in its persisted form. A nil rule encodes as
// JSON null; an Unknown rule is written back verbatim.
func Marshal(rule Rule) ([]byte, error) {
	if rule == nil {
		return []byte("null"), nil
	}
	if u, ok := rule.(Unknown); ok && len(u.Raw) > 0 {
		return u.Raw, nil
	}
	w, err := encode(rule)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func encode(rule Rule) (*wireRule, error) {
	switch r := rule.(type) {
	case CourseRule:
		return &wireRule{Type: string(KindCourse), CourseID: r.CourseID, MinGrade: r.MinGrade}, nil
	case AllOf:
		children, err := encodeChildren(r.Rules)
		if err != nil {
			return nil, err
		}
		return &wireRule{Type: string(KindAllOf), Rules: children}, nil
	case OneOf:
		children, err := encodeChildren(r.Rules)
		if err != nil {
			return nil, err
		}
		w := &wireRule{Type: string(KindOneOf), Rules: children}
		if r.MinCount > 1 {
			n := r.MinCount
			w.MinCount = &n
		}
		return w, nil
	case MinCredits:
		c := r.Credits
		w := &wireRule{Type: string(KindMinCredits), MinCredits: &c}
		if r.From != nil {
			from := r.From
			w.From = &from
		}
		return w, nil
	case Unknown:
		return &wireRule{Type: r.Type}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported rule type %T", ErrInvalidRule, rule)
	}
}

func encodeChildren(rules []Rule) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(rules))
	for _, child := range rules {
		data, err := Marshal(child)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// Document wraps a Rule so it can be embedded in JSON structs.
type Document struct {
	Rule Rule
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	return Marshal(d.Rule)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	rule, err := Parse(data)
	if err != nil {
		return err
	}
	d.Rule = rule
	return nil
}
