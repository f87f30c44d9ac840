package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nodeforge/internal/pipelineservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *pipelineservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog and option snapshot.
	r.Get("/node-types", h.ListNodeTypes)
	r.Get("/options", h.GetOptions)

	// Nodes.
	r.Get("/nodes", h.ListNodes)
	r.Post("/nodes", h.PlaceNode)
	r.Route("/nodes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNode)
		r.Delete("/", h.DeleteNode)
		r.Post("/edit", h.OpenEditor)
		r.Post("/params/{name}", h.ChangeParam)
		r.Post("/overlay/{name}/open", h.OpenOverlay)
		r.Post("/overlay/{name}/close", h.CloseOverlay)
	})

	// Edges and export.
	r.Get("/edges", h.ListEdges)
	r.Post("/edges", h.Connect)
	r.Get("/pipeline.dot", h.PipelineDOT)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
