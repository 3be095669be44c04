package interaction

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FormatNumber prints f the way JavaScript's Number#toString does: the
// shortest decimal that round-trips, switching to exponent notation below
// 1e-6 and from 1e21 up.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exponent, _ := strings.Cut(s, "e")
		sign, digits := exponent[:1], strings.TrimLeft(exponent[1:], "0")
		return mantissa + "e" + sign + digits
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Number is a float64 that encodes non-finite values as JSON null
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// OperandsPayload is the structured content of the operand-entry stage
type OperandsPayload struct {
	Operation string `json:"operation"`
	Symbol    string `json:"symbol"`
}

// ResultPayload is the structured content of a completed calculation
type ResultPayload struct {
	Step      string `json:"step"`
	Operation string `json:"operation"`
	Symbol    string `json:"symbol"`
	Operand1  Number `json:"operand1"`
	Operand2  Number `json:"operand2"`
	Value     Number `json:"value"`
}

// ShowResultStep tags the payload of a completed calculation
const ShowResultStep = "show-result"

// Payload returns the structured content for the response, or nil when the
// stage has none
func (r Response) Payload() interface{} {
	switch o := r.Outcome.(type) {
	case SelectOperation, Failure:
		return nil
	case EnterOperands:
		return OperandsPayload{
			Operation: o.Operation.String(),
			Symbol:    o.Symbol,
		}
	case ShowResult:
		return ResultPayload{
			Step:      ShowResultStep,
			Operation: o.Result.Operation.String(),
			Symbol:    o.Symbol,
			Operand1:  Number(o.Result.Operand1),
			Operand2:  Number(o.Result.Operand2),
			Value:     Number(o.Result.Value),
		}
	default:
		return nil
	}
}
