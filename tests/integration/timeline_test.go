package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

func TestPing(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	resp, err := http.Get(ts.Server.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTimelineExcludesSkipped(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	now := time.Now()
	insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Cooking", "Ava", now.Add(-time.Hour), 0.002)

	skipped := models.NewSkippedActivity("kitchen_cam", "kitchen", models.SkipReasonNoPerson)
	skipped.Timestamp = now.Add(-30 * time.Minute)
	require.NoError(t, ts.Activities.Insert(context.Background(), skipped))

	resp, err := http.Get(ts.Server.URL + "/api/timeline")
	require.NoError(t, err)
	defer resp.Body.Close()

	var result struct {
		Timeline []struct {
			Activity string `json:"activity"`
		} `json:"timeline"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	require.Len(t, result.Timeline, 1, "skipped captures must not appear on the timeline")
	assert.Equal(t, "Cooking", result.Timeline[0].Activity)
}

func TestStatistics(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	now := time.Now()
	insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Cooking", "Ava", now.Add(-time.Hour), 0.01)
	insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Eating", "Ava", now.Add(-30*time.Minute), 0.01)
	insertAnalyzedActivity(t, ts, "office_cam", "home_office", "Working", "Ben", now.Add(-10*time.Minute), 0.02)

	resp, err := http.Get(ts.Server.URL + "/api/statistics?period=week")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	type countRow struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}
	var result struct {
		Period    string     `json:"period"`
		TotalCost float64    `json:"total_cost"`
		ByRoom    []countRow `json:"by_room"`
		ByCamera  []countRow `json:"by_camera"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, "week", result.Period)
	require.Len(t, result.ByRoom, 2)
	assert.Equal(t, "kitchen", result.ByRoom[0].Label, "largest room group comes first")
	assert.Equal(t, 2, result.ByRoom[0].Count)
	assert.Len(t, result.ByCamera, 2)
	assert.InDelta(t, 0.04, result.TotalCost, 0.001)
}

func TestStatisticsInvalidPeriod(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	resp, err := http.Get(ts.Server.URL + "/api/statistics?period=decade")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCamerasEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	resp, err := http.Get(ts.Server.URL + "/api/cameras")
	require.NoError(t, err)
	defer resp.Body.Close()

	var result struct {
		Cameras []struct {
			Name string `json:"name"`
			Room string `json:"room"`
		} `json:"cameras"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	require.Len(t, result.Cameras, 1)
	assert.Equal(t, "living_room_cam", result.Cameras[0].Name)
	assert.Equal(t, "living_room", result.Cameras[0].Room)
}

func TestDurationRecomputeEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	base := time.Now().Add(-2 * time.Hour)
	first := insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Cooking", "Ava", base, 0.002)
	insertAnalyzedActivity(t, ts, "kitchen_cam", "kitchen", "Eating", "Ava", base.Add(15*time.Minute), 0.002)

	resp, err := http.Post(ts.Server.URL+"/api/durations/recompute", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result struct {
		Updated int `json:"updated"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 1, result.Updated)

	reloaded, err := ts.Activities.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.DurationMinutes)
	assert.Equal(t, 15, *reloaded.DurationMinutes)
}
