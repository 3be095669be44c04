package mcp

import (
	"encoding/json"
	"strings"
)

// ValidationError describes one problem found in a request envelope
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

func (r *ValidationResult) add(field, message string, value interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Value: value})
}

// ValidateRequest checks the JSON-RPC envelope of a request
func ValidateRequest(req *Request) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Errors: []ValidationError{},
	}

	if req.JSONRPC != JSONRPCVersion {
		result.add("jsonrpc", "Invalid JSONRPC version, must be '2.0'", req.JSONRPC)
	}

	if strings.TrimSpace(req.Method) == "" {
		result.add("method", "Method is required", nil)
	}

	if len(req.Params) > 0 {
		trimmed := strings.TrimSpace(string(req.Params))
		if trimmed != "null" && !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
			result.add("params", "Params must be an object or array", nil)
		}
	}

	return result
}

// validateRequest turns a failed validation into an Invalid Request error
func validateRequest(req *Request) *Error {
	result := ValidateRequest(req)
	if result.Valid {
		return nil
	}
	return NewError(CodeInvalidRequest, "Invalid Request").WithData(result.Errors)
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// decodeToolsCallParams leaves a missing name to the tool lookup, which
// reports it as an unknown tool
func decodeToolsCallParams(params json.RawMessage) (toolsCallParams, error) {
	var p toolsCallParams
	err := decodeParams(params, &p)
	return p, err
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

func decodeResourcesReadParams(params json.RawMessage) (resourcesReadParams, error) {
	var p resourcesReadParams
	if err := decodeParams(params, &p); err != nil {
		return p, err
	}
	if p.URI == "" {
		return p, Errorf(CodeInvalidParams, "Invalid params: resource uri is required")
	}
	return p, nil
}

func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return Errorf(CodeInvalidParams, "Invalid params: %v", err).WithCause(err)
	}
	return nil
}
