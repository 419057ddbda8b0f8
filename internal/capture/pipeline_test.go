package capture

import (
	"context"
	"errors"
	"image"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/ai"
	"github.com/Xuzii/ai-vision-assistant/internal/config"
	"github.com/Xuzii/ai-vision-assistant/internal/cost"
	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/models"
	"github.com/Xuzii/ai-vision-assistant/internal/storage"
	"github.com/Xuzii/ai-vision-assistant/internal/vision"
)

type fakeSource struct {
	frame image.Image
	err   error
}

func (s *fakeSource) Capture(ctx context.Context, snapshotURL string) (image.Image, error) {
	return s.frame, s.err
}

type fakeDetector struct {
	detections []vision.Detection
	err        error
}

func (d *fakeDetector) Detect(ctx context.Context, frame image.Image) ([]vision.Detection, error) {
	return d.detections, d.err
}

type fakeAnalyzer struct {
	result *ai.Result
	err    error
	calls  int
}

func (a *fakeAnalyzer) AnalyzeFrame(ctx context.Context, imageData []byte, cameraName string) (*ai.Result, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

type pipelineFixture struct {
	pipeline   *Pipeline
	activities *database.ActivityRepo
	analyzer   *fakeAnalyzer
	source     *fakeSource
	detector   *fakeDetector
	statuses   *StatusRegistry
	cam        config.CameraConfig
}

func setupPipeline(t *testing.T) *pipelineFixture {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tempDir, err := os.MkdirTemp("", "pipeline_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	frames, err := storage.NewLocalStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	activities := database.NewActivityRepo(db)
	settings := database.NewSettingsRepo(db)

	frame := image.NewGray(image.Rect(0, 0, 320, 240))
	source := &fakeSource{frame: frame}
	detector := &fakeDetector{
		detections: []vision.Detection{{
			Confidence:  0.9,
			BoundingBox: vision.BoundingBox{X: 10, Y: 10, Width: 50, Height: 50},
		}},
	}
	analyzer := &fakeAnalyzer{
		result: &ai.Result{
			Room:         "Kitchen",
			Activity:     "Cooking dinner",
			Details:      "Person at the stove",
			InputTokens:  100,
			OutputTokens: 40,
			Cost:         0.002,
		},
	}

	gate := vision.NewGate(vision.GateConfig{
		PersonConfidence:     0.5,
		MovementThresholdPx:  50.0,
		FrameDiffThreshold:   0.15,
		ForceAnalyzeInterval: 30 * time.Minute,
	})

	statuses := NewStatusRegistry()
	cam := config.CameraConfig{
		Name:            "kitchen_cam",
		Room:            "kitchen",
		SnapshotURL:     "http://camera.local/snapshot",
		CaptureInterval: config.Duration(time.Minute),
	}
	statuses.Register(cam.Name, cam.Room)

	pipeline := NewPipeline(
		source,
		detector,
		gate,
		cost.NewGovernor(activities, settings),
		analyzer,
		activities,
		frames,
		statuses,
		zap.NewNop(),
	)

	return &pipelineFixture{
		pipeline:   pipeline,
		activities: activities,
		analyzer:   analyzer,
		source:     source,
		detector:   detector,
		statuses:   statuses,
		cam:        cam,
	}
}

func lastActivity(t *testing.T, repo *database.ActivityRepo) *models.Activity {
	t.Helper()
	activities, _, err := repo.List(context.Background(), database.ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to list activities: %v", err)
	}
	if len(activities) == 0 {
		t.Fatal("Expected at least one activity row")
	}
	return activities[0]
}

func TestPipelineAnalyzesFirstCapture(t *testing.T) {
	f := setupPipeline(t)

	if err := f.pipeline.Process(context.Background(), f.cam); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	row := lastActivity(t, f.activities)
	if row.Skipped {
		t.Fatalf("First capture should produce an analyzed row, got skip reason %v", row.SkipReason)
	}
	if row.Activity != "Cooking dinner" {
		t.Errorf("Expected analyzer activity text, got %q", row.Activity)
	}
	// The analyzer's room overrides the camera's configured room.
	if row.Room != "Kitchen" {
		t.Errorf("Expected analyzer room, got %q", row.Room)
	}
	if row.Category == nil {
		t.Error("Expected a category on the analyzed row")
	}
	if row.TokensUsed == nil || *row.TokensUsed != 140 {
		t.Errorf("Expected 140 tokens, got %v", row.TokensUsed)
	}
	if row.ImagePath == "" {
		t.Error("Expected a stored frame path")
	}
	if f.analyzer.calls != 1 {
		t.Errorf("Expected 1 analyzer call, got %d", f.analyzer.calls)
	}
}

func TestPipelineSkipsUnchangedScene(t *testing.T) {
	f := setupPipeline(t)

	if err := f.pipeline.Process(context.Background(), f.cam); err != nil {
		t.Fatalf("First process failed: %v", err)
	}
	if err := f.pipeline.Process(context.Background(), f.cam); err != nil {
		t.Fatalf("Second process failed: %v", err)
	}

	row := lastActivity(t, f.activities)
	if !row.Skipped {
		t.Fatal("Unchanged scene should produce a skipped row")
	}
	if row.SkipReason == nil || *row.SkipReason != models.SkipReasonNoChanges {
		t.Errorf("Expected reason %s, got %v", models.SkipReasonNoChanges, row.SkipReason)
	}
	if row.Activity != models.SkippedActivityText {
		t.Errorf("Expected placeholder text, got %q", row.Activity)
	}
	if row.Cost != nil {
		t.Error("Skipped row must not carry cost")
	}
	if f.analyzer.calls != 1 {
		t.Errorf("Analyzer must not run on skip, got %d calls", f.analyzer.calls)
	}
}

func TestPipelineCostCapOverridesGate(t *testing.T) {
	f := setupPipeline(t)

	// Pre-load today's spend to the cap.
	spent := models.NewActivity("kitchen_cam", "kitchen")
	spent.Activity = "Earlier analysis"
	capCost := models.DefaultDailyCap
	spent.Cost = &capCost
	if err := f.activities.Insert(context.Background(), spent); err != nil {
		t.Fatalf("Failed to insert spend: %v", err)
	}

	if err := f.pipeline.Process(context.Background(), f.cam); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	row := lastActivity(t, f.activities)
	if !row.Skipped {
		t.Fatal("Blocked budget should force a skipped row")
	}
	if row.SkipReason == nil || *row.SkipReason != models.SkipReasonCostCap {
		t.Errorf("Expected reason %s, got %v", models.SkipReasonCostCap, row.SkipReason)
	}
	// The gate still saw a person; the skip carries the detection.
	if !row.PersonDetected {
		t.Error("Expected detection recorded on the blocked row")
	}
	if f.analyzer.calls != 0 {
		t.Errorf("Analyzer must not run when blocked, got %d calls", f.analyzer.calls)
	}
}

func TestPipelineNoPersonSkip(t *testing.T) {
	f := setupPipeline(t)

	if err := f.pipeline.Process(context.Background(), f.cam); err != nil {
		t.Fatalf("First process failed: %v", err)
	}

	// Person leaves; inside the forced interval this is a plain skip.
	f.detector.detections = nil
	if err := f.pipeline.Process(context.Background(), f.cam); err != nil {
		t.Fatalf("Second process failed: %v", err)
	}

	row := lastActivity(t, f.activities)
	if !row.Skipped {
		t.Fatal("Empty room should produce a skipped row")
	}
	if row.SkipReason == nil || *row.SkipReason != models.SkipReasonNoPerson {
		t.Errorf("Expected reason %s, got %v", models.SkipReasonNoPerson, row.SkipReason)
	}
	if row.PersonDetected {
		t.Error("No-person skip must not record a detection")
	}
}

func TestPipelineCaptureFailure(t *testing.T) {
	f := setupPipeline(t)

	f.source.err = errors.New("connection refused")
	if err := f.pipeline.Process(context.Background(), f.cam); err == nil {
		t.Fatal("Capture failure should surface as an error")
	}

	// Infrastructure failures before the gate write no activity row.
	_, total, err := f.activities.List(context.Background(), database.ListFilter{})
	if err != nil {
		t.Fatalf("Failed to list activities: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected no rows after capture failure, got %d", total)
	}

	statuses := f.statuses.Snapshot()
	if len(statuses) != 1 || statuses[0].ConsecutiveFailures == 0 {
		t.Errorf("Expected recorded failure, got %+v", statuses)
	}
}

func TestPipelineDetectorFailure(t *testing.T) {
	f := setupPipeline(t)

	f.detector.err = errors.New("detector unavailable")
	if err := f.pipeline.Process(context.Background(), f.cam); err == nil {
		t.Fatal("Detector failure should surface as an error")
	}

	row := lastActivity(t, f.activities)
	if !row.Skipped || row.SkipReason == nil || *row.SkipReason != models.SkipReasonDetectorError {
		t.Errorf("Expected detector_error skip row, got %+v", row)
	}
}

func TestPipelineAnalyzerFailure(t *testing.T) {
	f := setupPipeline(t)

	f.analyzer.err = errors.New("api timeout")
	if err := f.pipeline.Process(context.Background(), f.cam); err == nil {
		t.Fatal("Analyzer failure should surface as an error")
	}

	row := lastActivity(t, f.activities)
	if !row.Skipped || row.SkipReason == nil || *row.SkipReason != models.SkipReasonAnalysisError {
		t.Errorf("Expected analysis_error skip row, got %+v", row)
	}
	// The frame was already stored; the row keeps the path for debugging.
	if row.ImagePath == "" {
		t.Error("Expected frame path on the failed-analysis row")
	}
	if row.Cost != nil {
		t.Error("Failed analysis must not record cost")
	}
}

func TestPipelineOutsideActiveHours(t *testing.T) {
	f := setupPipeline(t)

	// A window that never contains the current time.
	now := time.Now()
	start := now.Add(2 * time.Hour).Format("15:04")
	end := now.Add(3 * time.Hour).Format("15:04")
	f.cam.ActiveHours = &config.ActiveHours{Start: start, End: end}

	if err := f.pipeline.Process(context.Background(), f.cam); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	_, total, err := f.activities.List(context.Background(), database.ListFilter{})
	if err != nil {
		t.Fatalf("Failed to list activities: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected no rows outside active hours, got %d", total)
	}
}
