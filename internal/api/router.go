package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/activities", app.ListActivitiesHandler)
		r.Get("/activities/{id}", app.GetActivityHandler)
		r.Post("/activities/{id}/person", app.TagPersonHandler)

		r.Get("/statistics", app.StatisticsHandler)
		r.Get("/timeline", app.TimelineHandler)

		r.Get("/cost/today", app.CostTodayHandler)
		r.Get("/cost/settings", app.CostSettingsGetHandler)
		r.Put("/cost/settings", app.CostSettingsUpdateHandler)
		r.Get("/cost/history", app.CostHistoryHandler)

		r.Get("/streaks", app.StreaksHandler)
		r.Post("/streaks/recompute", app.RecomputeStreaksHandler)
		r.Post("/durations/recompute", app.RecomputeDurationsHandler)

		r.Get("/cameras", app.CamerasHandler)
		r.Get("/cameras/status", app.CameraStatusHandler)
	})

	r.Get("/frames/{filename}", app.ServeFrameHandler)

	return r
}
