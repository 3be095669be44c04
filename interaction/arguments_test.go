package interaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SomSamantray/calcufy-calculator/calculator"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Request
	}{
		{"absent", ``, Request{}},
		{"null", `null`, Request{}},
		{"empty object", `{}`, Request{}},
		{"operation only", `{"operation":"divide"}`, Request{Operation: calculator.Divide}},
		{"empty operation", `{"operation":"","operand1":1,"operand2":2}`, Request{Operand1: num(1), Operand2: num(2)}},
		{"null operands", `{"operation":"add","operand1":null,"operand2":null}`, Request{Operation: calculator.Add}},
		{"complete", `{"operation":"add","operand1":2,"operand2":3}`, Request{Operation: calculator.Add, Operand1: num(2), Operand2: num(3)}},
		{"zero operands", `{"operation":"subtract","operand1":0,"operand2":-0}`, Request{Operation: calculator.Subtract, Operand1: num(0), Operand2: num(0)}},
		{"unknown fields", `{"operation":"add","precision":4}`, Request{Operation: calculator.Add}},
		{"string encoded", `"{\"operation\":\"multiply\",\"operand1\":4}"`, Request{Operation: calculator.Multiply, Operand1: num(4)}},
		{"string encoded empty", `""`, Request{}},
		{"string encoded repaired", `"{operation: 'add', operand1: 1, operand2: 2,}"`, Request{Operation: calculator.Add, Operand1: num(1), Operand2: num(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArguments(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgumentsRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"string operand", `{"operation":"add","operand1":"2","operand2":3}`},
		{"unknown operation", `{"operation":"modulo","operand1":1,"operand2":2}`},
		{"operation case", `{"operation":"ADD"}`},
		{"numeric operation", `{"operation":1}`},
		{"array", `[1,2]`},
		{"number", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArguments(json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}

func TestParseArgumentsUnknownOperationWrapsCalculatorError(t *testing.T) {
	_, err := ParseArguments(json.RawMessage(`{"operation":"modulo"}`))
	assert.ErrorIs(t, err, calculator.ErrUnsupportedOperation)
}
