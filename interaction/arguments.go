package interaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/SomSamantray/calcufy-calculator/calculator"
)

// ErrInvalidArguments is returned when tool arguments cannot be decoded into
// a Request
var ErrInvalidArguments = errors.New("invalid arguments")

// Arguments is the wire shape of the calculator tool input. Every field is
// optional; absence drives the staged disclosure.
type Arguments struct {
	Operation *string  `json:"operation,omitempty" description:"The operation to perform"`
	Operand1  *float64 `json:"operand1,omitempty" description:"The first number"`
	Operand2  *float64 `json:"operand2,omitempty" description:"The second number"`
}

// ParseArguments decodes raw tool arguments.
//
// Missing, null and empty arguments yield an empty Request. Some hosts send
// the arguments object as a JSON string; such strings are decoded too and
// repaired first when they are not valid JSON.
func ParseArguments(raw json.RawMessage) (Request, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Request{}, nil
	}

	if raw[0] == '"' {
		unquoted, err := unquoteArguments(raw)
		if err != nil {
			return Request{}, err
		}
		if unquoted == nil {
			return Request{}, nil
		}
		raw = unquoted
	}

	var args Arguments
	if err := json.Unmarshal(raw, &args); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	req := Request{
		Operand1: args.Operand1,
		Operand2: args.Operand2,
	}

	if args.Operation != nil && *args.Operation != "" {
		op, err := calculator.ParseOperation(*args.Operation)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
		}
		req.Operation = op
	}

	return req, nil
}

// unquoteArguments unwraps a string-encoded arguments object
func unquoteArguments(raw json.RawMessage) (json.RawMessage, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, fmt.Errorf("%w: repairing %q: %v", ErrInvalidArguments, s, err)
	}
	return json.RawMessage(repaired), nil
}
