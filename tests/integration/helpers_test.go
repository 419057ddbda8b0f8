package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/api"
	"github.com/Xuzii/ai-vision-assistant/internal/capture"
	"github.com/Xuzii/ai-vision-assistant/internal/config"
	"github.com/Xuzii/ai-vision-assistant/internal/cost"
	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/models"
	"github.com/Xuzii/ai-vision-assistant/internal/storage"
	"github.com/Xuzii/ai-vision-assistant/internal/timeline"
)

type TestServer struct {
	Server     *httptest.Server
	App        *api.App
	DB         *database.DB
	Activities *database.ActivityRepo
	TempDir    string
}

func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "vision_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	frames, err := storage.NewLocalStorage(filepath.Join(tempDir, "frames"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(tempDir, "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	activityRepo := database.NewActivityRepo(db)
	settingsRepo := database.NewSettingsRepo(db)
	streakRepo := database.NewStreakRepo(db)
	log := zap.NewNop()

	app := &api.App{
		Activities: activityRepo,
		Settings:   settingsRepo,
		Streaks:    streakRepo,
		Timeline:   timeline.NewService(activityRepo, streakRepo, log),
		Governor:   cost.NewGovernor(activityRepo, settingsRepo),
		Statuses:   capture.NewStatusRegistry(),
		Frames:     frames,
		Cameras: []config.CameraConfig{
			{Name: "living_room_cam", Room: "living_room", SnapshotURL: "http://example.invalid/snap", CaptureInterval: config.Duration(15 * time.Minute)},
		},
		Log: log,
	}

	server := httptest.NewServer(api.NewRouter(app))

	return &TestServer{
		Server:     server,
		App:        app,
		DB:         db,
		Activities: activityRepo,
		TempDir:    tempDir,
	}
}

func (ts *TestServer) Cleanup() {
	ts.Server.Close()
	ts.DB.Close()
	os.RemoveAll(ts.TempDir)
}

// insertAnalyzedActivity saves a fully analyzed activity row for fixtures.
func insertAnalyzedActivity(t *testing.T, ts *TestServer, camera, room, activity, person string, at time.Time, costVal float64) *models.Activity {
	t.Helper()

	a := models.NewActivity(camera, room)
	a.Timestamp = at
	a.Activity = activity
	a.PersonDetected = true
	a.DetectionConf = 0.9
	if person != "" {
		a.PersonName = &person
	}
	tokens := 120
	a.TokensUsed = &tokens
	a.Cost = &costVal
	cat := string(models.CategoryOther)
	a.Category = &cat
	conf := 0.5
	a.CategoryConfidence = &conf

	if err := ts.Activities.Insert(context.Background(), a); err != nil {
		t.Fatalf("Failed to insert activity: %v", err)
	}
	return a
}
