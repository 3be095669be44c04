// Package calculator implements the arithmetic behind the calcufy tool.
//
// All operations use native float64 arithmetic with no rounding, so results
// match IEEE 754 binary64 semantics exactly. The only guarded case is
// division by zero, which is reported as ErrDivisionByZero instead of
// producing an infinity.
package calculator

import (
	"errors"
	"fmt"
)

// Operation is one of the four supported arithmetic operations
type Operation string

const (
	Add      Operation = "add"
	Subtract Operation = "subtract"
	Multiply Operation = "multiply"
	Divide   Operation = "divide"
)

var (
	// ErrDivisionByZero is returned when dividing by zero (including -0)
	ErrDivisionByZero = errors.New("cannot divide by zero")

	// ErrUnsupportedOperation is returned for operation tags outside the four known ones
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

var symbols = map[Operation]string{
	Add:      "+",
	Subtract: "-",
	Multiply: "×",
	Divide:   "÷",
}

// Result is a completed calculation
type Result struct {
	Operation Operation
	Operand1  float64
	Operand2  float64
	Value     float64
}

// Operations returns the supported operations in canonical order
func Operations() []Operation {
	return []Operation{Add, Subtract, Multiply, Divide}
}

// ParseOperation converts a tag into an Operation
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperation, s)
	}
	return op, nil
}

// Valid reports whether op is one of the four known operations
func (op Operation) Valid() bool {
	_, ok := symbols[op]
	return ok
}

// String returns the operation tag
func (op Operation) String() string {
	return string(op)
}

// Symbol returns the display symbol for op, or an empty string if op is unknown
func Symbol(op Operation) string {
	return symbols[op]
}

// Compute applies op to a and b
func Compute(op Operation, a, b float64) (float64, error) {
	switch op {
	case Add:
		return a + b, nil
	case Subtract:
		return a - b, nil
	case Multiply:
		return a * b, nil
	case Divide:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedOperation, string(op))
	}
}

// Calculate is Compute returning the full Result record
func Calculate(op Operation, a, b float64) (Result, error) {
	value, err := Compute(op, a, b)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Operation: op,
		Operand1:  a,
		Operand2:  b,
		Value:     value,
	}, nil
}
