// Command recompute rebuilds the derived timeline fields: activity
// durations and day streaks. Run it after bulk edits or imports, or with
// -all to discard and rebuild every inferred duration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/logger"
	"github.com/Xuzii/ai-vision-assistant/internal/timeline"
)

func main() {
	var (
		dbPath = flag.String("db", "./activities.db", "Path to SQLite database")
		all    = flag.Bool("all", false, "Recompute every duration from scratch instead of filling missing ones")
	)
	flag.Parse()

	log, err := logger.New(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: *dbPath})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	activityRepo := database.NewActivityRepo(db)
	streakRepo := database.NewStreakRepo(db)
	svc := timeline.NewService(activityRepo, streakRepo, log)

	ctx := context.Background()

	var updated int
	if *all {
		updated, err = svc.RecomputeDurations(ctx)
	} else {
		updated, err = svc.FillDurations(ctx)
	}
	if err != nil {
		log.Fatal("duration recompute failed", zap.Error(err))
	}

	streak, err := svc.RecomputeStreaks(ctx)
	if err != nil {
		log.Fatal("streak recompute failed", zap.Error(err))
	}

	fmt.Printf("Durations updated: %d\n", updated)
	fmt.Printf("Current streak: %d day(s), longest: %d day(s)\n",
		streak.CurrentStreak, streak.LongestStreak)
}
