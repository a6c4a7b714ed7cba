// Package scheduler runs jobs on a cron schedule or once a week until the
// context is cancelled.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Job func(ctx context.Context)

// StartEvaluationScheduler runs job at every activation of sched, evaluated
// in loc. It returns immediately; the loop stops when ctx is done.
func StartEvaluationScheduler(ctx context.Context, spec string, sched cron.Schedule, loc *time.Location, job Job) {
	log.Printf("Evaluation scheduled (cron: %s)", spec)
	go runLoop(ctx, "evaluation", func(now time.Time) time.Time {
		return sched.Next(now.In(loc))
	}, job)
}

// StartWeeklyDigest runs job every week on day at hour:min in loc.
func StartWeeklyDigest(ctx context.Context, day time.Weekday, hour, min int, loc *time.Location, job Job) {
	log.Printf("Capacity digest scheduled every %s at %02d:%02d", day, hour, min)
	go runLoop(ctx, "capacity digest", func(now time.Time) time.Time {
		return nextWeekday(now.In(loc), day, hour, min)
	}, job)
}

func runLoop(ctx context.Context, name string, next func(time.Time) time.Time, job Job) {
	for {
		now := time.Now()
		at := next(now)
		wait := at.Sub(now)
		log.Printf("Next %s at %s (in %s)", name, at.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("%s scheduler stopped", name)
			return
		case <-timer.C:
		}
		job(ctx)
	}
}

func nextWeekday(now time.Time, day time.Weekday, hour, min int) time.Time {
	daysUntil := (day - now.Weekday() + 7) % 7
	if daysUntil == 0 {
		target := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if now.Before(target) {
			return target
		}
		daysUntil = 7
	}
	return time.Date(now.Year(), now.Month(), now.Day()+int(daysUntil), hour, min, 0, 0, now.Location())
}
