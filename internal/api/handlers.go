package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nodeforge/internal/checksum"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/pipelineservice"
	"github.com/starford/nodeforge/internal/widget"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *pipelineservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *pipelineservice.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// writeView writes v with its content digest as ETag.
func writeView(w http.ResponseWriter, status int, v NodeView) {
	if sum, err := checksum.Of(v); err == nil {
		w.Header().Set("ETag", `"`+sum+`"`)
	}
	writeJSON(w, status, v)
}

// ListNodeTypes handles GET /api/node-types.
//
//	@Summary		List the node-type catalog
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	NodeTypeListResponse
//	@Security		BearerAuth
//	@Router			/node-types [get]
func (h *Handler) ListNodeTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NodeTypeListResponse{NodeTypes: h.svc.NodeTypes()})
}

// GetOptions handles GET /api/options.
//
//	@Summary		Get the current selection options
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	models.ParameterValueOptions
//	@Security		BearerAuth
//	@Router			/options [get]
func (h *Handler) GetOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Options())
}

// ListNodes handles GET /api/nodes.
//
//	@Summary		Render every node of the pipeline
//	@Tags			nodes
//	@Produce		json
//	@Success		200	{object}	NodeListResponse
//	@Security		BearerAuth
//	@Router			/nodes [get]
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListViews(r.Context())
	if err != nil {
		writeError(w, "list nodes", err)
		return
	}
	writeJSON(w, http.StatusOK, NodeListResponse{Nodes: views})
}

// PlaceNode handles POST /api/nodes.
//
//	@Summary		Place a node and seed its parameters
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PlaceNodeRequest	true	"Node to place"
//	@Success		201		{object}	NodeView
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes [post]
func (h *Handler) PlaceNode(w http.ResponseWriter, r *http.Request) {
	var req PlaceNodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("type is required"))
		return
	}
	v, err := h.svc.PlaceNode(r.Context(), req)
	if err != nil {
		writeError(w, "place node", err)
		return
	}
	writeView(w, http.StatusCreated, v)
}

// GetNode handles GET /api/nodes/{id}.
//
//	@Summary		Render a single node
//	@Tags			nodes
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	NodeView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id} [get]
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get node", err)
		return
	}
	writeView(w, http.StatusOK, v)
}

// ChangeParam handles POST /api/nodes/{id}/params/{name}.
//
//	@Summary		Apply a widget change event
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Node id"
//	@Param			name	path		string				true	"Parameter name"
//	@Param			body	body		ChangeParamRequest	true	"Raw widget input"
//	@Success		200		{object}	NodeView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id}/params/{name} [post]
func (h *Handler) ChangeParam(w http.ResponseWriter, r *http.Request) {
	var req ChangeParamRequest
	if !decodeBody(w, r, &req) {
		return
	}
	raw, err := models.FromAny(req.Value)
	if err != nil || raw.IsList() {
		writeJSON(w, http.StatusBadRequest, errorBody("value must be a string"))
		return
	}
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "name")
	v, err := h.svc.ChangeParam(r.Context(), id, name, req.Slot, raw.String())
	if err != nil {
		writeError(w, "change param", err)
		return
	}
	writeView(w, http.StatusOK, v)
}

// OpenOverlay handles POST /api/nodes/{id}/overlay/{name}/open.
//
//	@Summary		Open the expanded editing surface of a text parameter
//	@Tags			nodes
//	@Produce		json
//	@Param			id		path		string	true	"Node id"
//	@Param			name	path		string	true	"Parameter name"
//	@Success		200		{object}	NodeView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id}/overlay/{name}/open [post]
func (h *Handler) OpenOverlay(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.OpenOverlay(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, "open overlay", err)
		return
	}
	writeView(w, http.StatusOK, v)
}

// CloseOverlay handles POST /api/nodes/{id}/overlay/{name}/close.
//
//	@Summary		Dismiss the expanded editing surface
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Node id"
//	@Param			name	path		string				true	"Parameter name"
//	@Param			body	body		CloseOverlayRequest	false	"Dismiss reason (default button)"
//	@Success		200		{object}	NodeView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id}/overlay/{name}/close [post]
func (h *Handler) CloseOverlay(w http.ResponseWriter, r *http.Request) {
	req := CloseOverlayRequest{Reason: string(widget.CloseButton)}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	v, err := h.svc.CloseOverlay(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"), widget.CloseReason(req.Reason))
	if err != nil {
		writeError(w, "close overlay", err)
		return
	}
	writeView(w, http.StatusOK, v)
}

// DeleteNode handles DELETE /api/nodes/{id}.
//
//	@Summary		Delete a node and its edges
//	@Tags			nodes
//	@Param			id	path	string	true	"Node id"
//	@Success		204	"Node deleted"
//	@Security		BearerAuth
//	@Router			/nodes/{id} [delete]
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteNode(r.Context(), id); err != nil {
		slog.Error("delete node failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenEditor handles POST /api/nodes/{id}/edit.
//
//	@Summary		Request the detailed editor for a node
//	@Tags			nodes
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		202	{object}	EditorResponse
//	@Failure		404	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id}/edit [post]
func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.OpenEditor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "open editor", err)
		return
	}
	writeJSON(w, http.StatusAccepted, EditorResponse{Node: n})
}

// ListEdges handles GET /api/edges.
//
//	@Summary		List pipeline edges
//	@Tags			edges
//	@Produce		json
//	@Success		200	{object}	EdgeListResponse
//	@Security		BearerAuth
//	@Router			/edges [get]
func (h *Handler) ListEdges(w http.ResponseWriter, r *http.Request) {
	edges, err := h.svc.Edges(r.Context())
	if err != nil {
		writeError(w, "list edges", err)
		return
	}
	if edges == nil {
		edges = []models.Edge{}
	}
	writeJSON(w, http.StatusOK, EdgeListResponse{Edges: edges})
}

// Connect handles POST /api/edges.
//
//	@Summary		Connect an output handle to a node input
//	@Tags			edges
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConnectRequest	true	"Edge to create"
//	@Success		201		{object}	models.Edge
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/edges [post]
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Source == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("source and target are required"))
		return
	}
	e, err := h.svc.Connect(r.Context(), models.Edge{
		ID:           req.ID,
		Source:       req.Source,
		SourceHandle: req.SourceHandle,
		Target:       req.Target,
		TargetHandle: req.TargetHandle,
	})
	if err != nil {
		writeError(w, "connect", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// PipelineDOT handles GET /api/pipeline.dot.
//
//	@Summary		Export the pipeline as Graphviz DOT
//	@Tags			edges
//	@Produce		plain
//	@Success		200	{string}	string
//	@Security		BearerAuth
//	@Router			/pipeline.dot [get]
func (h *Handler) PipelineDOT(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DOT(r.Context())
	if err != nil {
		writeError(w, "export dot", err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
