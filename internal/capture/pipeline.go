package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/ai"
	"github.com/Xuzii/ai-vision-assistant/internal/category"
	"github.com/Xuzii/ai-vision-assistant/internal/config"
	"github.com/Xuzii/ai-vision-assistant/internal/cost"
	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/models"
	"github.com/Xuzii/ai-vision-assistant/internal/storage"
	"github.com/Xuzii/ai-vision-assistant/internal/vision"
)

// Pipeline runs one capture attempt end to end: grab a frame, detect,
// gate, govern, analyze, persist. Every attempt that reaches the gate
// produces an activity row, analyzed or skipped, so gate behavior stays
// auditable.
type Pipeline struct {
	source     FrameSource
	detector   vision.Detector
	gate       *vision.Gate
	governor   *cost.Governor
	analyzer   ai.Analyzer
	activities *database.ActivityRepo
	frames     storage.FrameStorage
	statuses   *StatusRegistry
	log        *zap.Logger
}

func NewPipeline(
	source FrameSource,
	detector vision.Detector,
	gate *vision.Gate,
	governor *cost.Governor,
	analyzer ai.Analyzer,
	activities *database.ActivityRepo,
	frames storage.FrameStorage,
	statuses *StatusRegistry,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		source:     source,
		detector:   detector,
		gate:       gate,
		governor:   governor,
		analyzer:   analyzer,
		activities: activities,
		frames:     frames,
		statuses:   statuses,
		log:        log,
	}
}

// Process handles one scheduled attempt for a camera. Business outcomes
// (no person, no change, budget exceeded) are recorded as skipped rows and
// return nil; only infrastructure failures return an error.
func (p *Pipeline) Process(ctx context.Context, cam config.CameraConfig) error {
	now := time.Now()

	if !cam.ActiveHours.Within(now) {
		p.log.Debug("outside active hours", zap.String("camera", cam.Name))
		return nil
	}

	frame, err := p.source.Capture(ctx, cam.SnapshotURL)
	if err != nil {
		p.statuses.RecordFailure(cam.Name, now, err)
		return fmt.Errorf("capture failed for %s: %w", cam.Name, err)
	}

	detections, err := p.detector.Detect(ctx, frame)
	if err != nil {
		// Observation state is left untouched so the next good frame
		// compares against the last truly analyzed one.
		p.statuses.RecordFailure(cam.Name, now, err)
		row := models.NewSkippedActivity(cam.Name, cam.Room, models.SkipReasonDetectorError)
		if insertErr := p.activities.Insert(ctx, row); insertErr != nil {
			return fmt.Errorf("detector failed and skip row not recorded: %w", insertErr)
		}
		return fmt.Errorf("detection failed for %s: %w", cam.Name, err)
	}

	decision := p.gate.Evaluate(cam.Name, frame, detections, now)

	status, err := p.governor.Check(ctx, now)
	if err != nil {
		p.statuses.RecordFailure(cam.Name, now, err)
		return err
	}
	if status.ThresholdReached && !status.Blocked {
		p.log.Warn("daily spend passed notification threshold",
			zap.Float64("spend", status.Spend.Cost),
			zap.Float64("threshold", status.Settings.NotificationThreshold))
	}

	if !decision.Analyze {
		row := p.skippedRow(cam, decision, decision.Reason)
		if err := p.activities.Insert(ctx, row); err != nil {
			return err
		}
		p.statuses.RecordSuccess(cam.Name, now)
		p.log.Info("analysis skipped",
			zap.String("camera", cam.Name),
			zap.String("reason", decision.Reason))
		return nil
	}

	// The budget override outranks every gate outcome, but the gate's
	// observation-state bookkeeping stands.
	if status.Blocked {
		row := p.skippedRow(cam, decision, models.SkipReasonCostCap)
		if err := p.activities.Insert(ctx, row); err != nil {
			return err
		}
		p.statuses.RecordSuccess(cam.Name, now)
		p.log.Warn("daily cost cap reached, analysis blocked",
			zap.String("camera", cam.Name),
			zap.Float64("spend", status.Spend.Cost),
			zap.Float64("cap", status.Settings.DailyCap))
		return nil
	}

	jpegData, err := encodeJPEG(frame)
	if err != nil {
		p.statuses.RecordFailure(cam.Name, now, err)
		return fmt.Errorf("failed to encode frame for %s: %w", cam.Name, err)
	}

	imagePath, err := p.frames.SaveFrame(cam.Name, now, jpegData)
	if err != nil {
		p.statuses.RecordFailure(cam.Name, now, err)
		return fmt.Errorf("failed to store frame for %s: %w", cam.Name, err)
	}

	result, err := p.analyzer.AnalyzeFrame(ctx, jpegData, cam.Name)
	if err != nil {
		row := p.skippedRow(cam, decision, models.SkipReasonAnalysisError)
		row.ImagePath = imagePath
		if insertErr := p.activities.Insert(ctx, row); insertErr != nil {
			return fmt.Errorf("analysis failed and skip row not recorded: %w", insertErr)
		}
		p.statuses.RecordFailure(cam.Name, now, err)
		return fmt.Errorf("analysis failed for %s: %w", cam.Name, err)
	}

	row := models.NewActivity(cam.Name, cam.Room)
	row.Timestamp = now
	if result.Room != "" {
		row.Room = result.Room
	}
	row.Activity = result.Activity
	row.Details = result.Details
	row.ImagePath = imagePath

	cat, catConfidence := category.Categorize(result.Activity, result.Details)
	catStr := string(cat)
	row.Category = &catStr
	row.CategoryConfidence = &catConfidence

	if decision.Detection != nil {
		row.PersonDetected = true
		row.DetectionConf = decision.Detection.Confidence
	}

	tokens := result.TokensUsed()
	row.TokensUsed = &tokens
	costVal := result.Cost
	row.Cost = &costVal

	if err := p.activities.Insert(ctx, row); err != nil {
		return err
	}

	p.statuses.RecordSuccess(cam.Name, now)
	p.log.Info("activity logged",
		zap.String("camera", cam.Name),
		zap.String("room", row.Room),
		zap.String("activity", row.Activity),
		zap.String("gate_reason", decision.Reason),
		zap.Float64("cost", result.Cost))
	return nil
}

func (p *Pipeline) skippedRow(cam config.CameraConfig, decision vision.Decision, reason string) *models.Activity {
	row := models.NewSkippedActivity(cam.Name, cam.Room, reason)
	if decision.Detection != nil {
		row.PersonDetected = true
		row.DetectionConf = decision.Detection.Confidence
	}
	return row
}

func encodeJPEG(frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
