package scheduler

import (
	"context"
	"time"

	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// EveryMinute fires at second zero of every minute.
const EveryMinute = "0 * * * * *"

// TriggerFunc runs one pipeline pass for the given instant.
type TriggerFunc func(ctx context.Context, now time.Time) (int, error)

// MinuteTrigger fires the pipeline in-process, for deployments without an external cron caller.
type MinuteTrigger struct {
	c       *cron.Cron
	run     TriggerFunc
	timeout time.Duration
	now     func() time.Time
}

func NewMinuteTrigger(run TriggerFunc, timeout time.Duration) *MinuteTrigger {
	cl := cronLogger{entry: logger.GetLogger()}
	return &MinuteTrigger{
		c: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		run:     run,
		timeout: timeout,
		now:     time.Now,
	}
}

// Start schedules the trigger and blocks until ctx is done, then waits for a running pass to finish.
func (t *MinuteTrigger) Start(ctx context.Context) error {
	if _, err := t.c.AddFunc(EveryMinute, func() { t.fire(ctx) }); err != nil {
		return err
	}
	t.c.Start()
	logger.GetLogger().WithField("spec", EveryMinute).Info("Internal minute trigger started")

	<-ctx.Done()
	<-t.c.Stop().Done()
	logger.GetLogger().Info("Internal minute trigger stopped")
	return nil
}

func (t *MinuteTrigger) fire(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, t.timeout)
	defer cancel()
	now := t.now().UTC()
	processed, err := t.run(ctx, now)
	entry := logger.GetLogger().WithField("at", now.Format(time.RFC3339)).WithField("processed", processed)
	if err != nil {
		entry.WithField("error", err).Error("Internal trigger run failed")
		return
	}
	entry.Debug("Internal trigger run finished")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *log.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithField("error", err).Error(msg)
}

func kvFields(kv []interface{}) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	return fields
}
