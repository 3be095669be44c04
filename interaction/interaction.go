// Package interaction turns a possibly partial calculator request into the
// next step of the three-stage widget flow.
//
// Staging is a pure function of the request: no operation selects an
// operation, a missing operand asks for numbers, and a complete request is
// computed. Nothing is remembered between calls.
package interaction

import (
	"errors"
	"fmt"

	"github.com/SomSamantray/calcufy-calculator/calculator"
	"github.com/SomSamantray/calcufy-calculator/widget"
)

// Stage is the position of a request in the widget flow
type Stage int

const (
	AwaitingOperation Stage = iota
	AwaitingOperands
	Completed
	Failed
)

func (s Stage) String() string {
	switch s {
	case AwaitingOperation:
		return "awaiting-operation"
	case AwaitingOperands:
		return "awaiting-operands"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Prompts shown before the calculation can run
const (
	SelectOperationPrompt = "Please select a calculation operation from the options below."
	enterOperandsPrompt   = "Please enter two numbers to %s."
)

// Request is one tool invocation. The zero Operation and nil operands mean
// "not provided yet", never zero.
type Request struct {
	Operation calculator.Operation
	Operand1  *float64
	Operand2  *float64
}

// Outcome is the stage-specific part of a Response. It is one of
// SelectOperation, EnterOperands, ShowResult or Failure.
type Outcome interface {
	outcome()
}

// SelectOperation asks the user to pick an operation
type SelectOperation struct{}

// EnterOperands asks the user for both numbers of a chosen operation
type EnterOperands struct {
	Operation calculator.Operation
	Symbol    string
}

// ShowResult carries a successful calculation
type ShowResult struct {
	Result calculator.Result
	Symbol string
}

// Failure carries an application error shown to the user
type Failure struct {
	Message string
}

func (SelectOperation) outcome() {}
func (EnterOperands) outcome()   {}
func (ShowResult) outcome()      {}
func (Failure) outcome()         {}

// Response is what the router hands back for a Request
type Response struct {
	Stage   Stage
	Text    string
	Widget  *widget.Descriptor
	Outcome Outcome
}

// IsError reports whether the response is an application error
func (r Response) IsError() bool {
	return r.Stage == Failed
}

// Router maps requests onto stages and the widgets that render them
type Router struct {
	widgets  *widget.Registry
	selector widget.Descriptor
	input    widget.Descriptor
	result   widget.Descriptor
}

// NewRouter creates a router over registry, which must contain the
// operation-selector, number-input and result-display widgets
func NewRouter(registry *widget.Registry) (*Router, error) {
	r := Router{widgets: registry}

	for name, dst := range map[string]*widget.Descriptor{
		widget.OperationSelector: &r.selector,
		widget.NumberInput:       &r.input,
		widget.ResultDisplay:     &r.result,
	} {
		d, ok := registry.ByName(name)
		if !ok {
			return nil, fmt.Errorf("router: %w: %s", widget.ErrWidgetNotFound, name)
		}
		*dst = d
	}

	return &r, nil
}

// Widgets returns the registry the router resolves widgets from
func (r *Router) Widgets() *widget.Registry {
	return r.widgets
}

// Route decides the stage of req and builds its response.
// It is deterministic and safe for concurrent use.
func (r *Router) Route(req Request) Response {
	if req.Operation == "" {
		selector := r.selector
		return Response{
			Stage:   AwaitingOperation,
			Text:    SelectOperationPrompt,
			Widget:  &selector,
			Outcome: SelectOperation{},
		}
	}

	symbol := calculator.Symbol(req.Operation)

	if req.Operand1 == nil || req.Operand2 == nil {
		input := r.input
		return Response{
			Stage:   AwaitingOperands,
			Text:    fmt.Sprintf(enterOperandsPrompt, req.Operation),
			Widget:  &input,
			Outcome: EnterOperands{Operation: req.Operation, Symbol: symbol},
		}
	}

	res, err := calculator.Calculate(req.Operation, *req.Operand1, *req.Operand2)
	if err != nil {
		message := failureMessage(err)
		return Response{
			Stage:   Failed,
			Text:    "Error: " + message,
			Outcome: Failure{Message: message},
		}
	}

	result := r.result
	return Response{
		Stage: Completed,
		Text: fmt.Sprintf("%s %s %s = %s",
			FormatNumber(res.Operand1), symbol, FormatNumber(res.Operand2), FormatNumber(res.Value)),
		Widget:  &result,
		Outcome: ShowResult{Result: res, Symbol: symbol},
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, calculator.ErrDivisionByZero):
		return "Cannot divide by zero"
	case errors.Is(err, calculator.ErrUnsupportedOperation):
		return "Unsupported operation"
	default:
		return err.Error()
	}
}
