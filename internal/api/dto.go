package api

import (
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/nodeview"
	"github.com/starford/nodeforge/internal/pipelineservice"
)

// PlaceNodeRequest is the request body for placing a node.
type PlaceNodeRequest = pipelineservice.PlaceRequest

// ChangeParamRequest carries a widget change event. Slot addresses one
// keyword of a keyword list and must be omitted for every other widget.
type ChangeParamRequest struct {
	Value any  `json:"value" example:"anthropic"`
	Slot  *int `json:"slot,omitempty" example:"1"`
}

// CloseOverlayRequest names how the expanded surface was dismissed.
type CloseOverlayRequest struct {
	Reason string `json:"reason" example:"button" enums:"button,outside"`
}

// ConnectRequest is the request body for connecting two nodes.
type ConnectRequest struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source" example:"router-1" validate:"required"`
	SourceHandle string `json:"source_handle" example:"output_0"`
	Target       string `json:"target" example:"llm-1" validate:"required"`
	TargetHandle string `json:"target_handle,omitempty" example:"input"`
}

// NodeView is the render contract of one node (aliased from the domain layer).
type NodeView = nodeview.View

// NodeListResponse wraps the rendered nodes.
type NodeListResponse struct {
	Nodes []NodeView `json:"nodes" validate:"required"`
}

// NodeTypeListResponse wraps the node-type catalog.
type NodeTypeListResponse struct {
	NodeTypes []models.NodeType `json:"node_types" validate:"required"`
}

// EdgeListResponse wraps the pipeline edges.
type EdgeListResponse struct {
	Edges []models.Edge `json:"edges" validate:"required"`
}

// EditorResponse acknowledges an editor launch request.
type EditorResponse struct {
	Node models.Node `json:"node" validate:"required"`
}
