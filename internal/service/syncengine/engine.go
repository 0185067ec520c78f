package syncengine

import (
	"context"
	"sync"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	pkgmodels "github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/pkg/otel"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type EngineInterface interface {
	Push(ctx context.Context) (*pkgmodels.SyncReport, error)
	Pull(ctx context.Context, groupName string) (*pkgmodels.SyncReport, error)
}

// Engine reconciles the local ledger with the remote collection store.
// Collections are synced independently: one failing collection is reported
// and never stops its siblings.
type Engine struct {
	store    *local.Store
	remote   interfaces.RemoteCollectionStore
	identity interfaces.IdentityProvider
	reports  interfaces.SyncReportPublisher
	retry    retryPolicy
	workers  int
	now      func() time.Time
}

// NewEngine builds a sync engine. reports may be nil.
func NewEngine(
	store *local.Store,
	remote interfaces.RemoteCollectionStore,
	identity interfaces.IdentityProvider,
	reports interfaces.SyncReportPublisher,
	cfg config.SyncConfig,
) *Engine {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		store:    store,
		remote:   remote,
		identity: identity,
		reports:  reports,
		retry:    newRetryPolicy(cfg),
		workers:  workers,
		now:      time.Now,
	}
}

func (e *Engine) authenticate(ctx context.Context, direction string) (*pkgmodels.Identity, error) {
	if e.identity == nil {
		return nil, error_handling.NewAuthenticationRequiredError("sync " + direction)
	}
	identity, ok := e.identity.CurrentIdentity(ctx)
	if !ok {
		return nil, error_handling.NewAuthenticationRequiredError("sync " + direction)
	}
	return identity, nil
}

// Push upserts every local record into the remote store.
func (e *Engine) Push(ctx context.Context) (*pkgmodels.SyncReport, error) {
	identity, err := e.authenticate(ctx, consts.SyncDirectionPush)
	if err != nil {
		return nil, err
	}
	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	report := e.newReport(consts.SyncDirectionPush, "", identity)
	logger.CtxInfo(ctx, log_messages.SyncStarted,
		zap.String("direction", report.Direction), zap.String("identity", report.Identity))

	registry := memberRegistry(snap)
	report.Collections = e.runCollections(ctx, consts.SyncDirectionPush,
		func(ctx context.Context, _ int, s syncer) pkgmodels.CollectionReport {
			return e.pushCollection(ctx, s, snap, registry)
		})

	e.finish(ctx, report)
	return report, nil
}

// Pull fetches every remote record of one group and merges it into the local
// ledger. Records already present locally, by identity, are left untouched.
func (e *Engine) Pull(ctx context.Context, groupName string) (*pkgmodels.SyncReport, error) {
	identity, err := e.authenticate(ctx, consts.SyncDirectionPull)
	if err != nil {
		return nil, err
	}
	group := utils.NormalizeName(groupName)
	if group == "" {
		return nil, error_handling.NewValidationError("groupName", "is required")
	}

	report := e.newReport(consts.SyncDirectionPull, group, identity)
	logger.CtxInfo(ctx, log_messages.SyncStarted,
		zap.String("direction", report.Direction),
		zap.String("identity", report.Identity),
		zap.String("group", group))

	parts := make([]*models.Snapshot, len(syncers))
	report.Collections = e.runCollections(ctx, consts.SyncDirectionPull,
		func(ctx context.Context, i int, s syncer) pkgmodels.CollectionReport {
			rep, part := e.pullCollection(ctx, s, group)
			parts[i] = part
			return rep
		})

	fetched := models.NewSnapshot()
	for _, part := range parts {
		if part != nil {
			fetched = local.MergeSnapshots(fetched, part)
		}
	}

	err = e.store.Mutate(ctx, func(snap *models.Snapshot) error {
		before := make([]int, len(syncers))
		for i, s := range syncers {
			before[i] = s.collection.Len(snap)
		}
		merged := local.MergeSnapshots(snap, fetched)
		*snap = *merged
		for i, s := range syncers {
			report.Collections[i].Created = s.collection.Len(snap) - before[i]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.finish(ctx, report)
	return report, nil
}

// runCollections runs fn for every syncer on a bounded pool of workers.
// Results keep syncer order.
func (e *Engine) runCollections(
	ctx context.Context,
	direction string,
	fn func(ctx context.Context, i int, s syncer) pkgmodels.CollectionReport,
) []pkgmodels.CollectionReport {
	results := make([]pkgmodels.CollectionReport, len(syncers))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s := syncers[i]
				spanCtx, span := otel.GetTracer().Start(ctx, "sync."+direction+"."+s.name())
				rep := fn(spanCtx, i, s)
				span.SetAttributes(
					attribute.String("collection", rep.Collection),
					attribute.String("status", string(rep.Status)),
					attribute.Int("updated", rep.Updated),
					attribute.Int("created", rep.Created),
					attribute.Int("deleted", rep.Deleted),
					attribute.Int("skipped", rep.Skipped),
				)
				if rep.Status == pkgmodels.SyncStatusFailed {
					span.SetStatus(codes.Error, rep.Error)
				}
				span.End()
				results[i] = rep
			}
		}()
	}
	for i := range syncers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (e *Engine) pushCollection(
	ctx context.Context,
	s syncer,
	snap *models.Snapshot,
	registry map[string]string,
) pkgmodels.CollectionReport {
	rep := pkgmodels.CollectionReport{Collection: s.name()}
	records := s.collection.Records(snap)

	if s.purgeWhenEmpty && len(records) == 0 {
		return e.settle(ctx, rep, e.purge(ctx, s.name(), &rep))
	}

	for _, rec := range records {
		fields, err := recordFields(rec)
		if err != nil {
			return e.settle(ctx, rep, err)
		}
		if s.resolveNationalID {
			key := utils.MemberKey(stringField(fields, "groupName"), stringField(fields, "memberName"))
			nationalID, ok := registry[key]
			if !ok {
				rep.Skipped++
				rep.Failures = append(rep.Failures, pkgmodels.ItemFailure{
					RecordID: rec.RecordID(),
					Reason:   "member not found in registry",
				})
				logger.CtxWarn(ctx, log_messages.SyncItemSkipped,
					zap.String("collection", s.name()), zap.String("record", rec.RecordID()))
				continue
			}
			fields["nationalId"] = nationalID
		}
		if err := e.upsert(ctx, s, fields, &rep); err != nil {
			return e.settle(ctx, rep, err)
		}
	}
	return e.settle(ctx, rep, nil)
}

// upsert updates every remote match of fields, or inserts when none match.
func (e *Engine) upsert(ctx context.Context, s syncer, fields map[string]interface{}, rep *pkgmodels.CollectionReport) error {
	name := s.name()
	filter := s.filter(fields)

	var docs []pkgmodels.RemoteDocument
	err := e.retry.do(ctx, "query "+name, func() error {
		var err error
		docs, err = e.remote.Query(ctx, name, filter)
		return err
	})
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		err := e.retry.do(ctx, "insert "+name, func() error {
			_, err := e.remote.Insert(ctx, name, fields)
			return err
		})
		if err != nil {
			return err
		}
		rep.Created++
		return nil
	}

	for _, doc := range docs {
		id := doc.ID
		err := e.retry.do(ctx, "update "+name, func() error {
			return e.remote.Update(ctx, name, id, fields)
		})
		if err != nil {
			return err
		}
	}
	rep.Updated++
	return nil
}

func (e *Engine) purge(ctx context.Context, name string, rep *pkgmodels.CollectionReport) error {
	var docs []pkgmodels.RemoteDocument
	err := e.retry.do(ctx, "query "+name, func() error {
		var err error
		docs, err = e.remote.Query(ctx, name, nil)
		return err
	})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		id := doc.ID
		err := e.retry.do(ctx, "delete "+name, func() error {
			return e.remote.Delete(ctx, name, id)
		})
		if err != nil && !error_handling.IsNotFound(err) {
			return err
		}
		rep.Deleted++
	}
	return nil
}

func (e *Engine) pullCollection(ctx context.Context, s syncer, group string) (pkgmodels.CollectionReport, *models.Snapshot) {
	rep := pkgmodels.CollectionReport{Collection: s.name()}

	var docs []pkgmodels.RemoteDocument
	err := e.retry.do(ctx, "query "+s.name(), func() error {
		var err error
		docs, err = e.remote.Query(ctx, s.name(), map[string]interface{}{"groupName": group})
		return err
	})
	if err != nil {
		return e.settle(ctx, rep, err), nil
	}
	rep.Fetched = len(docs)

	part, err := documentsSnapshot(s.name(), docs)
	if err != nil {
		return e.settle(ctx, rep, err), nil
	}
	return e.settle(ctx, rep, nil), part
}

// settle derives the collection status from its outcome.
func (e *Engine) settle(ctx context.Context, rep pkgmodels.CollectionReport, err error) pkgmodels.CollectionReport {
	switch {
	case err != nil:
		rep.Status = pkgmodels.SyncStatusFailed
		rep.Error = err.Error()
		logger.CtxError(ctx, log_messages.SyncCollectionFailed, err, zap.String("collection", rep.Collection))
	case rep.Skipped > 0:
		rep.Status = pkgmodels.SyncStatusPartial
	default:
		rep.Status = pkgmodels.SyncStatusSuccess
	}
	return rep
}

func (e *Engine) newReport(direction, group string, identity *pkgmodels.Identity) *pkgmodels.SyncReport {
	return &pkgmodels.SyncReport{
		Direction: direction,
		GroupName: group,
		Identity:  identity.Email,
		StartedAt: e.now().UTC(),
	}
}

func (e *Engine) finish(ctx context.Context, report *pkgmodels.SyncReport) {
	report.FinishedAt = e.now().UTC()
	logger.CtxInfo(ctx, log_messages.SyncCompleted,
		zap.String("direction", report.Direction),
		zap.Bool("succeeded", report.Succeeded()),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))

	if e.reports == nil {
		return
	}
	if err := e.reports.PublishSyncReport(ctx, *report); err != nil {
		logger.CtxWarn(ctx, log_messages.SyncReportPublishFailed, zap.Error(err))
	}
}
