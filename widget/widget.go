// Package widget holds the UI widgets the calculator tool points hosts at.
//
// A widget is an HTML document addressed by a ui:// URI. The set of widgets is
// fixed and loaded once at start-up from a Source; the resulting Registry is
// read-only and safe for concurrent use.
package widget

import (
	"errors"
	"fmt"

	"github.com/yosida95/uritemplate/v3"
)

// MIMEType is the content type hosts expect for widget markup
const MIMEType = "text/html+skybridge"

// Widget names
const (
	OperationSelector = "operation-selector"
	NumberInput       = "number-input"
	ResultDisplay     = "result-display"
)

var (
	// ErrWidgetNotFound is returned when a widget's markup cannot be located
	ErrWidgetNotFound = errors.New("widget not found")

	// ErrDuplicateWidget is returned when two descriptors share a name or URI
	ErrDuplicateWidget = errors.New("duplicate widget")
)

var uriTemplate = uritemplate.MustNew("ui://widget/{name}.html")

// Descriptor describes a single widget
type Descriptor struct {
	Name   string
	URI    string
	Title  string
	Markup string
}

// Spec is the static part of a descriptor, before markup is loaded
type Spec struct {
	Name  string
	Title string
}

// DefaultSpecs returns the widgets of the calculator flow, in stage order
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: OperationSelector, Title: "Operation Selector"},
		{Name: NumberInput, Title: "Number Input"},
		{Name: ResultDisplay, Title: "Result Display"},
	}
}

// URIFor returns the ui:// URI of the named widget
func URIFor(name string) string {
	values := uritemplate.Values{}
	values.Set("name", uritemplate.String(name))
	uri, err := uriTemplate.Expand(values)
	if err != nil {
		// The template is a compile-time constant with a single simple variable
		panic(fmt.Sprintf("widget: expanding uri for %q: %v", name, err))
	}
	return uri
}

// Registry is an immutable set of widgets indexed by URI and by name
type Registry struct {
	ordered []Descriptor
	byURI   map[string]int
	byName  map[string]int
}

// NewRegistry builds a registry from descriptors, rejecting duplicates
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		ordered: make([]Descriptor, 0, len(descriptors)),
		byURI:   make(map[string]int, len(descriptors)),
		byName:  make(map[string]int, len(descriptors)),
	}

	for _, d := range descriptors {
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateWidget, d.Name)
		}
		if _, exists := r.byURI[d.URI]; exists {
			return nil, fmt.Errorf("%w: uri %q", ErrDuplicateWidget, d.URI)
		}
		r.byName[d.Name] = len(r.ordered)
		r.byURI[d.URI] = len(r.ordered)
		r.ordered = append(r.ordered, d)
	}

	return r, nil
}

// Load resolves markup for every spec through src and builds a registry
func Load(src Source, specs ...Spec) (*Registry, error) {
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}

	descriptors := make([]Descriptor, 0, len(specs))
	for _, spec := range specs {
		markup, err := src.Markup(spec)
		if err != nil {
			return nil, fmt.Errorf("loading widget %s: %w", spec.Name, err)
		}
		descriptors = append(descriptors, Descriptor{
			Name:   spec.Name,
			URI:    URIFor(spec.Name),
			Title:  spec.Title,
			Markup: markup,
		})
	}

	return NewRegistry(descriptors...)
}

// Lookup finds a widget by exact URI
func (r *Registry) Lookup(uri string) (Descriptor, bool) {
	i, ok := r.byURI[uri]
	if !ok {
		return Descriptor{}, false
	}
	return r.ordered[i], true
}

// ByName finds a widget by name
func (r *Registry) ByName(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.ordered[i], true
}

// All returns the widgets in registration order
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of widgets
func (r *Registry) Len() int {
	return len(r.ordered)
}
