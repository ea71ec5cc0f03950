// internal/app/features/projects/routes.go
package projects

import "github.com/go-chi/chi/v5"

// Routes mounts project routes under /projects.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/ledger", h.ServeLedger)

	r.Route("/{id}", func(pr chi.Router) {
		pr.Get("/", h.ServeGet)
		pr.Patch("/", h.HandleUpdate)
		pr.Delete("/", h.HandleDelete)

		// Review
		pr.Post("/transitions", h.HandleTransition)
		pr.Get("/ledger", h.ServeProjectLedger)

		// Execution
		pr.Post("/start", h.HandleStart)
		pr.Post("/reports", h.HandleAddReport)
		pr.Patch("/reports/{rid}", h.HandleEditReport)
		pr.Post("/reports/{rid}/submit", h.HandleSubmitReport)
		pr.Post("/reports/{rid}/return", h.HandleReturnReport)

		// Closure
		pr.Put("/conclusion", h.HandleFileConclusion)
		pr.Post("/conclusion/approve", h.HandleApproveConclusion)
		pr.Post("/conclusion/reject", h.HandleRejectConclusion)

		// Selection
		pr.Post("/selection/city/start", h.HandleStartCitySelection)
		pr.Put("/selection/city", h.HandleCityResult)
		pr.Post("/selection/recommend", h.HandleRecommend)
		pr.Put("/selection/province", h.HandleProvinceResult)
		pr.Post("/selection/publish", h.HandlePublish)
	})

	return r
}
