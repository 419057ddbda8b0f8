package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/capture"
	"github.com/Xuzii/ai-vision-assistant/internal/config"
	"github.com/Xuzii/ai-vision-assistant/internal/cost"
	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/storage"
	"github.com/Xuzii/ai-vision-assistant/internal/timeline"
)

type App struct {
	Activities *database.ActivityRepo
	Settings   *database.SettingsRepo
	Streaks    *database.StreakRepo
	Timeline   *timeline.Service
	Governor   *cost.Governor
	Statuses   *capture.StatusRegistry
	Frames     storage.FrameStorage
	Cameras    []config.CameraConfig
	Log        *zap.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		app.Log.Error("failed to encode response", zap.Error(err))
	}
}

func (app *App) respondError(w http.ResponseWriter, status int, message string) {
	app.respondJSON(w, status, map[string]string{"error": message})
}

func (app *App) ListActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := database.ListFilter{
		Camera:   q.Get("camera"),
		Room:     q.Get("room"),
		Category: q.Get("category"),
		Person:   q.Get("person"),
		Search:   q.Get("search"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			app.respondError(w, http.StatusBadRequest, "invalid 'from' timestamp")
			return
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			app.respondError(w, http.StatusBadRequest, "invalid 'to' timestamp")
			return
		}
		filter.To = t
	}

	activities, total, err := app.Activities.List(r.Context(), filter)
	if err != nil {
		app.Log.Error("failed to list activities", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"total":      total,
		"limit":      limit,
		"offset":     filter.Offset,
	})
}

func (app *App) GetActivityHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	activity, err := app.Activities.GetByID(r.Context(), id)
	if err != nil {
		app.Log.Error("failed to get activity", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to get activity")
		return
	}
	if activity == nil {
		app.respondError(w, http.StatusNotFound, "activity not found")
		return
	}
	app.respondJSON(w, http.StatusOK, activity)
}

// TagPersonHandler sets the person label on an activity and kicks off the
// derived recomputations that depend on it.
func (app *App) TagPersonHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		PersonName string `json:"person_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		app.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.PersonName == "" {
		app.respondError(w, http.StatusBadRequest, "person_name is required")
		return
	}

	if err := app.Activities.TagPerson(r.Context(), id, body.PersonName); err != nil {
		app.respondError(w, http.StatusNotFound, "activity not found")
		return
	}

	// Person labels participate in duration matching, so tagged rows
	// invalidate previously inferred durations.
	if _, err := app.Timeline.RecomputeDurations(r.Context()); err != nil {
		app.Log.Error("duration recompute after tagging failed", zap.Error(err))
	}
	if _, err := app.Timeline.RecomputeStreaks(r.Context()); err != nil {
		app.Log.Error("streak recompute after tagging failed", zap.Error(err))
	}

	app.respondJSON(w, http.StatusOK, map[string]string{"status": "tagged"})
}

func (app *App) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "today"
	}

	now := time.Now()
	var from time.Time
	switch period {
	case "today":
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		from = now.AddDate(0, 0, -7)
	case "month":
		from = now.AddDate(0, 0, -30)
	case "all":
		from = time.Time{}
	default:
		app.respondError(w, http.StatusBadRequest, "invalid period")
		return
	}

	ctx := r.Context()
	byRoom, err := app.Activities.CountBy(ctx, "room", from)
	if err != nil {
		app.Log.Error("failed to aggregate by room", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	byActivity, err := app.Activities.CountBy(ctx, "activity", from)
	if err != nil {
		app.respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	byCamera, err := app.Activities.CountBy(ctx, "camera_name", from)
	if err != nil {
		app.respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	byCategory, err := app.Activities.CountBy(ctx, "category", from)
	if err != nil {
		app.respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	spend, err := app.Activities.DailySpend(ctx, from)
	if err != nil {
		app.respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":      period,
		"total_cost":  spend.Cost,
		"by_room":     byRoom,
		"by_activity": byActivity,
		"by_camera":   byCamera,
		"by_category": byCategory,
	})
}

func (app *App) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	from := time.Now().Add(-24 * time.Hour)

	activities, _, err := app.Activities.List(r.Context(), database.ListFilter{
		From:  from,
		Limit: 500,
	})
	if err != nil {
		app.Log.Error("failed to load timeline", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to load timeline")
		return
	}

	type entry struct {
		Timestamp       time.Time `json:"timestamp"`
		Room            string    `json:"room"`
		Activity        string    `json:"activity"`
		Category        *string   `json:"category,omitempty"`
		PersonName      *string   `json:"person_name,omitempty"`
		DurationMinutes *int      `json:"duration_minutes,omitempty"`
	}

	entries := make([]entry, 0, len(activities))
	for _, a := range activities {
		if a.Skipped {
			continue
		}
		entries = append(entries, entry{
			Timestamp:       a.Timestamp,
			Room:            a.Room,
			Activity:        a.Activity,
			Category:        a.Category,
			PersonName:      a.PersonName,
			DurationMinutes: a.DurationMinutes,
		})
	}

	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"timeline": entries,
		"from":     from,
	})
}

func (app *App) StreaksHandler(w http.ResponseWriter, r *http.Request) {
	streak, err := app.Streaks.Get(r.Context())
	if err != nil {
		app.Log.Error("failed to get streaks", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to get streaks")
		return
	}
	app.respondJSON(w, http.StatusOK, streak)
}

func (app *App) RecomputeStreaksHandler(w http.ResponseWriter, r *http.Request) {
	streak, err := app.Timeline.RecomputeStreaks(r.Context())
	if err != nil {
		app.Log.Error("failed to recompute streaks", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to recompute streaks")
		return
	}
	app.respondJSON(w, http.StatusOK, streak)
}

// RecomputeDurationsHandler runs the duration-inference pass. mode=all
// clears and rebuilds everything; the default only fills missing values.
func (app *App) RecomputeDurationsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		updated int
		err     error
	)
	if r.URL.Query().Get("mode") == "all" {
		updated, err = app.Timeline.RecomputeDurations(r.Context())
	} else {
		updated, err = app.Timeline.FillDurations(r.Context())
	}
	if err != nil {
		app.Log.Error("failed to recompute durations", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to recompute durations")
		return
	}
	app.respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (app *App) CamerasHandler(w http.ResponseWriter, r *http.Request) {
	type camera struct {
		Name            string `json:"name"`
		Room            string `json:"room"`
		CaptureInterval string `json:"capture_interval"`
	}
	cameras := make([]camera, 0, len(app.Cameras))
	for _, c := range app.Cameras {
		cameras = append(cameras, camera{
			Name:            c.Name,
			Room:            c.Room,
			CaptureInterval: c.CaptureInterval.String(),
		})
	}
	app.respondJSON(w, http.StatusOK, map[string]interface{}{"cameras": cameras})
}

func (app *App) CameraStatusHandler(w http.ResponseWriter, r *http.Request) {
	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cameras": app.Statuses.Snapshot(),
	})
}

func (app *App) ServeFrameHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	file, err := app.Frames.OpenFrame(filename)
	if err != nil {
		app.respondError(w, http.StatusNotFound, "frame not found")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := io.Copy(w, file); err != nil {
		app.Log.Error("failed to serve frame", zap.Error(err))
	}
}
