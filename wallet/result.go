package wallet

import (
	"encoding/json"
	"fmt"
)

// ResultKind tags the variant held by a Result.
type ResultKind string

const (
	KindNone   ResultKind = "none"
	KindBool   ResultKind = "bool"
	KindText   ResultKind = "text"
	KindObject ResultKind = "object"
)

// Result is the value a PassManager call resolved with.
type Result struct {
	Kind  ResultKind
	Bool  bool
	Value any // string for KindText, any JSON-encodable value for KindObject
}

func NoneResult() Result         { return Result{Kind: KindNone} }
func BoolResult(b bool) Result   { return Result{Kind: KindBool, Bool: b} }
func TextResult(s string) Result { return Result{Kind: KindText, Value: s} }
func ObjectResult(v any) Result  { return Result{Kind: KindObject, Value: v} }

// Truthy reports the result as a yes/no answer.
func (r Result) Truthy() bool {
	switch r.Kind {
	case KindBool:
		return r.Bool
	case KindText:
		s, _ := r.Value.(string)
		return s != ""
	case KindObject:
		return r.Value != nil
	default:
		return false
	}
}

func (r Result) value() any {
	switch r.Kind {
	case KindBool:
		return r.Bool
	case KindText, KindObject:
		return r.Value
	default:
		return nil
	}
}

// JSON renders the result as JSON text. Values that cannot be encoded are
// rendered with %v.
func (r Result) JSON() string {
	b, err := json.Marshal(r.value())
	if err != nil {
		return fmt.Sprintf("%v", r.value())
	}
	return string(b)
}

// MarshalJSON encodes the underlying value.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value())
}
