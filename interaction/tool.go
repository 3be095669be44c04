package interaction

import (
	"context"
	"encoding/json"
	"errors"

	mcp "github.com/SomSamantray/calcufy-calculator"
	"github.com/SomSamantray/calcufy-calculator/calculator"
	"github.com/SomSamantray/calcufy-calculator/widget"
)

// ToolName is the name the calculator is registered under
const ToolName = "calcufy_calculator"

const toolDescription = "An interactive calculator that performs basic arithmetic operations " +
	"(addition, subtraction, multiplication, division). " +
	"The user can select an operation and provide two numbers to calculate."

// Keys of the _meta object hosts read widget hints from
const (
	MetaOutputTemplate         = "openai/outputTemplate"
	MetaInvoking               = "openai/toolInvocation/invoking"
	MetaInvoked                = "openai/toolInvocation/invoked"
	MetaWidgetAccessible       = "openai/widgetAccessible"
	MetaResultCanProduceWidget = "openai/resultCanProduceWidget"
)

type invocationStatus struct {
	invoking string
	invoked  string
}

var statuses = map[Stage]invocationStatus{
	AwaitingOperation: {invoking: "Loading calculator...", invoked: "Calculator ready!"},
	AwaitingOperands:  {invoking: "Preparing input form...", invoked: "Ready for input!"},
	Completed:         {invoking: "Calculating...", invoked: "Calculation complete!"},
}

// Tool returns the calculator tool definition
func Tool() mcp.Tool {
	schema := mcp.SchemaFor[Arguments]()

	operation := schema.Properties["operation"]
	for _, op := range calculator.Operations() {
		operation.Enum = append(operation.Enum, op.String())
	}
	schema.Properties["operation"] = operation

	return mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: schema,
	}
}

// Register exposes the router as the calculator tool and every widget of its
// registry as a resource
func Register(server *mcp.Server, router *Router) {
	server.AddTool(Tool(), Handler(router))

	for _, d := range router.Widgets().All() {
		server.AddResource(Resource(d), resourceHandler(d))
	}
}

// Handler adapts the router to a tool handler
func Handler(router *Router) mcp.ToolHandler {
	return func(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
		req, err := ParseArguments(arguments)
		if err != nil {
			return nil, mcp.Errorf(mcp.CodeInvalidParams, "Invalid params: %v", err).WithCause(err)
		}
		return ToolResult(router.Route(req)), nil
	}
}

// ToolResult converts a routed response into a tools/call result
func ToolResult(resp Response) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent(resp.Text)},
		IsError: resp.IsError(),
	}
	if payload := resp.Payload(); payload != nil {
		result.StructuredContent = payload
	}

	if resp.Widget != nil {
		status := statuses[resp.Stage]
		meta := widgetMeta()
		meta[MetaOutputTemplate] = resp.Widget.URI
		meta[MetaInvoking] = status.invoking
		meta[MetaInvoked] = status.invoked
		result.Meta = meta
	}

	return result
}

// Resource describes a widget as an MCP resource
func Resource(d widget.Descriptor) mcp.Resource {
	return mcp.Resource{
		URI:         d.URI,
		Name:        d.Title,
		Description: d.Title + " widget markup",
		MimeType:    widget.MIMEType,
		Meta:        widgetMeta(),
	}
}

func resourceHandler(d widget.Descriptor) mcp.ResourceHandler {
	return func(ctx context.Context, uri string) (mcp.ResourceContents, error) {
		if uri != d.URI {
			return mcp.ResourceContents{}, errors.New("resource handler bound to another uri")
		}
		return mcp.ResourceContents{
			URI:      d.URI,
			MimeType: widget.MIMEType,
			Text:     d.Markup,
			Meta:     widgetMeta(),
		}, nil
	}
}

func widgetMeta() mcp.Meta {
	return mcp.Meta{
		MetaWidgetAccessible:       true,
		MetaResultCanProduceWidget: true,
	}
}
