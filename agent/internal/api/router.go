package api

import (
	"net/http"

	"focus-guard/agent/internal/auth"

	"github.com/go-chi/chi/v5"
)

// NewRouter mounts the gate routes openly (they serve the local UI) and the
// settings and stats routes behind scoped bearer tokens.
func NewRouter(gateCtrl *GateController, settingsCtrl *SettingsController, mw *Auth) http.Handler {
	r := chi.NewRouter()
	r.Use(Logging)

	r.Get("/ping", gateCtrl.Ping)
	r.Post("/gate/check", gateCtrl.Check)
	r.Get("/redirect", gateCtrl.Redirect)
	r.Post("/reason/validate", gateCtrl.ValidateReason)

	r.Post("/bypass", gateCtrl.StartBypass)
	r.Route("/bypass/{id}", func(sub chi.Router) {
		sub.Get("/", gateCtrl.GetBypass)
		sub.Delete("/", gateCtrl.CloseBypass)
		sub.Post("/begin", gateCtrl.Reenter)
		sub.Post("/reason", gateCtrl.SubmitReason)
		sub.Post("/cancel", gateCtrl.CancelReason)
		sub.Post("/abort", gateCtrl.Abort)
	})

	r.Group(func(sub chi.Router) {
		sub.Use(mw.RequireScope(auth.ScopeSettings))
		sub.Get("/settings/sites", settingsCtrl.GetSites)
		sub.Put("/settings/sites", settingsCtrl.PutSites)
		sub.Patch("/settings/sites", settingsCtrl.PatchSites)
		sub.Get("/settings/legacy", settingsCtrl.GetLegacy)
		sub.Post("/visits/reset", settingsCtrl.ResetVisits)
	})
	r.Group(func(sub chi.Router) {
		sub.Use(mw.RequireScope(auth.ScopeStats))
		sub.Get("/stats", settingsCtrl.Stats)
		sub.Get("/history", settingsCtrl.History)
		sub.Get("/reasons", settingsCtrl.Reasons)
		sub.Get("/tracking", settingsCtrl.Tracking)
	})
	return r
}
