package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ledgerTimeout bounds status writes made after an entry's own deadline has passed.
const ledgerTimeout = 10 * time.Second

type PipelineConfig struct {
	// Workers caps how many schedule entries run at once; values below 2 run sequentially.
	Workers      int
	EntryTimeout time.Duration
}

type IPipelineUsecase interface {
	// RunTrigger processes every schedule entry due at now and returns how many
	// items were published.
	RunTrigger(ctx context.Context, now time.Time) (int, error)
}

type pipelineUsecase struct {
	schedules   repository.ISchedule
	queue       repository.IQueue
	accounts    repository.IAccount
	credentials ICredentialUsecase
	drive       repository.IDrive
	instagram   repository.IInstagram
	ledger      *StatusLedger
	cfg         PipelineConfig
}

func NewPipelineUsecase(
	schedules repository.ISchedule,
	queue repository.IQueue,
	accounts repository.IAccount,
	credentials ICredentialUsecase,
	drive repository.IDrive,
	instagram repository.IInstagram,
	ledger *StatusLedger,
	cfg PipelineConfig,
) IPipelineUsecase {
	return &pipelineUsecase{
		schedules:   schedules,
		queue:       queue,
		accounts:    accounts,
		credentials: credentials,
		drive:       drive,
		instagram:   instagram,
		ledger:      ledger,
		cfg:         cfg,
	}
}

func (u *pipelineUsecase) RunTrigger(ctx context.Context, now time.Time) (int, error) {
	log := logger.GetLogger().WithField("run_id", uuid.NewString())

	entries, err := MatchSchedules(ctx, u.schedules, now)
	if err != nil {
		log.WithField("error", err).Error("Failed to match schedules")
		return 0, err
	}
	day, at := TimeBucket(now)
	firedAt := now.UTC().Truncate(time.Minute)
	log.WithField("day", day).WithField("time", at).WithField("entries", len(entries)).Info("Trigger started")

	var processed atomic.Int64
	if u.cfg.Workers < 2 {
		for _, entry := range entries {
			if ctx.Err() != nil {
				log.WithField("error", ctx.Err()).Warn("Trigger deadline reached, remaining entries skipped")
				break
			}
			if u.processEntry(ctx, log, entry, firedAt) {
				processed.Add(1)
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(u.cfg.Workers)
		for _, entry := range entries {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				if u.processEntry(ctx, log, entry, firedAt) {
					processed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	n := int(processed.Load())
	log.WithField("processed", n).Info("Trigger finished")
	return n, nil
}

// processEntry publishes at most one item for the entry's user per firing minute.
// Failures are recorded on the claimed item and never escape to the caller.
func (u *pipelineUsecase) processEntry(parent context.Context, log *logrus.Entry, entry *model.ScheduleEntry, firedAt time.Time) bool {
	ctx := parent
	if u.cfg.EntryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, u.cfg.EntryTimeout)
		defer cancel()
	}
	log = log.WithField("user_id", entry.UserID).WithField("schedule_id", entry.ID)

	first, err := u.schedules.MarkFired(ctx, entry.UserID, firedAt)
	if err != nil {
		log.WithField("error", err).Error("Failed to record schedule firing")
		return false
	}
	if !first {
		log.Info("Schedule already fired this minute")
		return false
	}

	item, err := u.queue.ClaimNext(ctx, entry.UserID)
	if err != nil {
		log.WithField("error", err).Error("Failed to claim queue item")
		return false
	}
	if item == nil {
		log.Debug("Queue empty")
		return false
	}
	log = log.WithField("item_id", item.ID)

	result, err := u.publishItem(ctx, item)

	wctx, cancel := context.WithTimeout(context.WithoutCancel(parent), ledgerTimeout)
	defer cancel()
	if err != nil {
		log.WithField("error", err).Error("Failed to publish queue item")
		if lerr := u.ledger.Failed(wctx, item, err); lerr != nil {
			log.WithField("error", lerr).Error("Failed to record failure")
		}
		return false
	}
	if lerr := u.ledger.Posted(wctx, item, result); lerr != nil {
		// Left in processing so it is never claimed again.
		log.WithField("error", lerr).Error("Published but failed to record posted status")
		return false
	}
	log.WithField("media_id", result.MediaID).Info("Queue item posted")
	return true
}

func (u *pipelineUsecase) publishItem(ctx context.Context, item *model.QueueItem) (*model.PublishResult, error) {
	google, err := u.account(ctx, item.UserID, model.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	facebook, err := u.account(ctx, item.UserID, model.ProviderFacebook)
	if err != nil {
		return nil, err
	}
	if google == nil || facebook == nil {
		return nil, apperr.ErrMissingAccounts
	}

	driveToken, err := u.credentials.EnsureAccessToken(ctx, google)
	if err != nil {
		return nil, err
	}
	igToken, err := u.credentials.EnsureAccessToken(ctx, facebook)
	if err != nil {
		return nil, err
	}

	asset, err := u.drive.Fetch(ctx, driveToken, item.SourceAssetID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := asset.Release(); rerr != nil {
			logger.GetLogger().WithField("path", asset.Path).WithField("error", rerr).Warn("Failed to remove temp asset")
		}
	}()

	f, err := asset.Open()
	if err != nil {
		return nil, &apperr.DownloadError{Err: err}
	}
	defer f.Close()

	caption := ""
	if item.Caption != nil {
		caption = *item.Caption
	}
	return u.instagram.Publish(ctx, igToken, f, asset.Name, caption)
}

// account returns the user's single account for provider, or nil when none is linked.
func (u *pipelineUsecase) account(ctx context.Context, userID string, provider model.Provider) (*model.DelegatedAccount, error) {
	list, err := u.accounts.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return nil, apperr.Persistence("find accounts", err)
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	default:
		return nil, &apperr.ConfigError{Msg: "duplicate " + string(provider) + " accounts"}
	}
}
