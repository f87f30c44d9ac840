// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes pipeline editing tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/pipelineservice"
)

const contractURI = "nodeforge://param-contract"

// Server wraps the MCP server with pipeline tools.
type Server struct {
	mcp *server.MCPServer
	svc *pipelineservice.Service
}

type nodeArgs struct {
	ID string `mapstructure:"id"`
}

type setParamArgs struct {
	ID    string `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
	Slot  *int   `mapstructure:"slot"`
}

type connectArgs struct {
	Source       string `mapstructure:"source"`
	SourceHandle string `mapstructure:"source_handle"`
	Target       string `mapstructure:"target"`
}

// New creates a new MCP server with all pipeline tools registered.
func New(svc *pipelineservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Nodeforge",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_node_types",
		mcp.WithDescription("List the node types that can be placed, with their parameters."),
	), s.listNodeTypes)

	s.mcp.AddTool(mcp.NewTool("list_options",
		mcp.WithDescription("List the providers, models and source materials offered by selection parameters."),
	), s.listOptions)

	s.mcp.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List the nodes of the pipeline."),
	), s.listNodes)

	s.mcp.AddTool(mcp.NewTool("place_node",
		mcp.WithDescription("Place a node of the given type. Parameters are seeded with their defaults."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Node type name from list_node_types")),
		mcp.WithString("id", mcp.Description("Optional node id; generated when empty")),
		mcp.WithString("label", mcp.Description("Optional display label")),
	), s.placeNode)

	s.mcp.AddTool(mcp.NewTool("render_node",
		mcp.WithDescription("Render a node: its widgets with current values and options, and its output handles."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.renderNode)

	s.mcp.AddTool(mcp.NewTool("set_param",
		mcp.WithDescription("Change one parameter of a node as if the user edited its widget. "+
			"Read the contract first via the get_param_contract tool or the "+contractURI+" resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Parameter name")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New raw value")),
		mcp.WithNumber("slot", mcp.Description("Keyword slot index, only for Keywords parameters")),
	), s.setParam)

	s.mcp.AddTool(mcp.NewTool("connect_nodes",
		mcp.WithDescription("Connect an output handle of one node to the input of another."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("source_handle", mcp.Description("Output handle id; may be omitted for single-output nodes")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
	), s.connectNodes)

	s.mcp.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node and every edge touching it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.deleteNode)

	s.mcp.AddTool(mcp.NewTool("open_editor",
		mcp.WithDescription("Ask connected editors to open the detailed editor for a node. "+
			"Fails when no editor is attached to this server."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.openEditor)

	s.mcp.AddTool(mcp.NewTool("get_param_contract",
		mcp.WithDescription("Returns the parameter editing contract. "+
			"Call this before changing parameters to learn how each widget type is edited."),
	), s.getParamContract)

	// Resource: parameter contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Parameter Contract",
			mcp.WithResourceDescription("How node parameters are typed and edited."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// decodeArgs copies the tool arguments into out. Numbers are accepted where
// text is expected.
func decodeArgs(req mcp.CallToolRequest, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(req.GetArguments())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNodeTypes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.NodeTypes())
}

func (s *Server) listOptions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Options())
}

func (s *Server) listNodes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes, err := s.svc.ListNodes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	return jsonResult(nodes)
}

func (s *Server) placeNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := req.RequireString("type"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in pipelineservice.PlaceRequest
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.PlaceNode(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

func (s *Server) renderNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.View(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render %s: %v", id, err)), nil
	}
	return jsonResult(v)
}

func (s *Server) setParam(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	for _, field := range []string{"id", "name"} {
		if _, err := req.RequireString(field); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	var in setParamArgs
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.ChangeParam(ctx, in.ID, in.Name, in.Slot, in.Value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

func (s *Server) connectNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in connectArgs
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Source == "" || in.Target == "" {
		return mcp.NewToolResultError("source and target are required"), nil
	}
	e, err := s.svc.Connect(ctx, models.Edge{Source: in.Source, SourceHandle: in.SourceHandle, Target: in.Target})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e)
}

func (s *Server) deleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in nodeArgs
	if err := decodeArgs(req, &in); err != nil || in.ID == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := s.svc.DeleteNode(ctx, in.ID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", in.ID)), nil
}

func (s *Server) openEditor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.OpenEditor(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("editor requested: %s", id)), nil
}

func (s *Server) getParamContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ParamContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     ParamContract,
		},
	}, nil
}
