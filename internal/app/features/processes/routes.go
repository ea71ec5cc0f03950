// internal/app/features/processes/routes.go
package processes

import "github.com/go-chi/chi/v5"

// Routes mounts one process kind, e.g. under /branch-elections.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/template", func(tr chi.Router) {
		tr.Get("/", h.ServeTemplate)
		tr.Post("/stages", h.HandleAddStage)
		tr.Patch("/stages/{sid}", h.HandleRenameStage)
		tr.Delete("/stages/{sid}", h.HandleRemoveStage)
		tr.Post("/stages/{sid}/move", h.HandleMoveStage)
		tr.Post("/stages/{sid}/nodes", h.HandleAddNode)
		tr.Patch("/stages/{sid}/nodes/{nid}", h.HandleEditNode)
		tr.Delete("/stages/{sid}/nodes/{nid}", h.HandleDeleteNode)
	})

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleStart)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/stages/{sid}/nodes/{nid}/toggle", h.HandleToggle)
	r.Put("/{id}/stages/{sid}/nodes/{nid}/file", h.HandleAttachFile)

	return r
}
