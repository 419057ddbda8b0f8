package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

func TestCostToday(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	now := time.Now()
	insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Cooking", "Ava", now.Add(-time.Hour), 0.50)
	insertAnalyzedActivity(t, ts, "office_cam", "home_office", "Working", "Ben", now.Add(-30*time.Minute), 0.25)
	// Yesterday's spend must not count toward today.
	insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Reading", "Ava", now.Add(-26*time.Hour), 1.00)

	resp, err := http.Get(ts.Server.URL + "/api/cost/today")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		DailySpent       float64 `json:"daily_spent"`
		DailyCap         float64 `json:"daily_cap"`
		CapReached       bool    `json:"cap_reached"`
		ThresholdReached bool    `json:"threshold_reached"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.InDelta(t, 0.75, result.DailySpent, 0.001)
	assert.Equal(t, models.DefaultDailyCap, result.DailyCap)
	assert.False(t, result.CapReached, "cap should not be reached at 0.75 of 2.00")
	assert.False(t, result.ThresholdReached, "threshold should not be reached at 0.75 of 1.50")
}

func TestCostCapBoundaryInclusive(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	// Spend exactly equal to the cap counts as reached.
	insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Cooking", "Ava", time.Now().Add(-time.Hour), models.DefaultDailyCap)

	resp, err := http.Get(ts.Server.URL + "/api/cost/today")
	require.NoError(t, err)
	defer resp.Body.Close()

	var result struct {
		CapReached bool `json:"cap_reached"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.CapReached, "spend equal to cap should report cap_reached")
}

func TestCostSettingsRoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	resp, err := http.Get(ts.Server.URL + "/api/cost/settings")
	require.NoError(t, err)
	defer resp.Body.Close()

	var settings models.CostSettings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&settings))
	assert.Equal(t, models.DefaultDailyCap, settings.DailyCap)

	update := models.CostSettings{DailyCap: 5.00, NotificationThreshold: 4.00}
	body, _ := json.Marshal(update)
	req, _ := http.NewRequest(http.MethodPut, ts.Server.URL+"/api/cost/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	require.Equal(t, http.StatusOK, resp2.StatusCode)

	stored, err := ts.App.Settings.GetCostSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.00, stored.DailyCap)
	assert.Equal(t, 4.00, stored.NotificationThreshold)
}

func TestCostSettingsRejectsInvalid(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	// Threshold above cap is invalid.
	update := models.CostSettings{DailyCap: 1.00, NotificationThreshold: 2.00}
	body, _ := json.Marshal(update)
	req, _ := http.NewRequest(http.MethodPut, ts.Server.URL+"/api/cost/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
