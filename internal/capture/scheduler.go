package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/config"
)

// Scheduler runs one capture loop per camera at its configured interval.
// Cameras are independent; a slow attempt on one never delays another.
// Attempts for the same camera never overlap: if an attempt is still
// running when the next falls due, the next waits for it to finish.
type Scheduler struct {
	pipeline *Pipeline
	cameras  []config.CameraConfig
	cron     *cron.Cron
	log      *zap.Logger
}

func NewScheduler(pipeline *Pipeline, cameras []config.CameraConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{
		pipeline: pipeline,
		cameras:  cameras,
		log:      log,
	}
}

// captureChain wraps every scheduled job so overdue attempts are delayed
// behind the running one instead of dropped, and panics are recovered.
func captureChain() []cron.JobWrapper {
	return []cron.JobWrapper{
		cron.DelayIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DefaultLogger),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(captureChain()...))

	for _, cam := range s.cameras {
		cam := cam
		s.pipeline.statuses.Register(cam.Name, cam.Room)

		spec := fmt.Sprintf("@every %s", cam.CaptureInterval.Std())
		_, err := s.cron.AddFunc(spec, func() {
			attemptCtx, cancel := context.WithTimeout(ctx, cam.CaptureInterval.Std())
			defer cancel()
			if err := s.pipeline.Process(attemptCtx, cam); err != nil {
				s.log.Error("capture attempt failed",
					zap.String("camera", cam.Name),
					zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule camera %s: %w", cam.Name, err)
		}
		s.log.Info("camera scheduled",
			zap.String("camera", cam.Name),
			zap.Duration("interval", cam.CaptureInterval.Std()))
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for in-flight attempts to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.log.Warn("timed out waiting for capture attempts to finish")
	}
}
