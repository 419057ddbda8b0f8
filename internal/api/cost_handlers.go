package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

func (app *App) CostTodayHandler(w http.ResponseWriter, r *http.Request) {
	status, err := app.Governor.Check(r.Context(), time.Now())
	if err != nil {
		app.Log.Error("failed to check cost status", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to check cost status")
		return
	}

	byCategory, err := app.Activities.CostByCategory(r.Context(), status.Spend.Date)
	if err != nil {
		app.Log.Error("failed to aggregate cost by category", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to aggregate costs")
		return
	}

	percentage := 0.0
	if status.Settings.DailyCap > 0 {
		percentage = status.Spend.Cost / status.Settings.DailyCap * 100
	}

	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"daily_spent":       status.Spend.Cost,
		"daily_cap":         status.Settings.DailyCap,
		"total_tokens":      status.Spend.Tokens,
		"requests_today":    status.Spend.Requests,
		"percentage_used":   percentage,
		"threshold_reached": status.ThresholdReached,
		"cap_reached":       status.Blocked,
		"by_category":       byCategory,
	})
}

func (app *App) CostSettingsGetHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := app.Settings.GetCostSettings(r.Context())
	if err != nil {
		app.Log.Error("failed to get cost settings", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to get cost settings")
		return
	}
	app.respondJSON(w, http.StatusOK, settings)
}

func (app *App) CostSettingsUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DailyCap              float64 `json:"daily_cap"`
		NotificationThreshold float64 `json:"notification_threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		app.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings := models.CostSettings{
		DailyCap:              body.DailyCap,
		NotificationThreshold: body.NotificationThreshold,
	}
	if err := app.Settings.UpdateCostSettings(r.Context(), settings); err != nil {
		app.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	app.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (app *App) CostHistoryHandler(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 365 {
			app.respondError(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		days = n
	}

	since := time.Now().AddDate(0, 0, -days)
	history, err := app.Activities.CostHistory(r.Context(), since)
	if err != nil {
		app.Log.Error("failed to load cost history", zap.Error(err))
		app.respondError(w, http.StatusInternalServerError, "failed to load cost history")
		return
	}

	app.respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"history": history,
	})
}
