package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/cache"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/classify"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/export"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/ingest"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/metrics"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/query"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/session"
)

// Upload is one uploaded file. Size is the declared size, or -1 when the
// client did not send one.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// UploadResult is returned to the client after a snapshot is stored.
type UploadResult struct {
	SnapshotID string             `json:"snapshot_id"`
	Inventory  ingest.ParseReport `json:"inventory"`
	Sales      ingest.ParseReport `json:"sales"`
	Columns    domain.Columns     `json:"columns"`
	LatestSale *time.Time         `json:"latest_sale,omitempty"`
	Notices    []domain.Notice    `json:"notices"`
}

type Options struct {
	MaxUploadBytes            int64
	MaxConcurrentComputations int64
}

type DashboardService struct {
	sessions *session.Store
	cache    cache.ViewCache
	sem      *semaphore.Weighted
	maxBytes int64
	now      func() time.Time
}

func NewDashboardService(sessions *session.Store, cacheImpl cache.ViewCache, opts Options) *DashboardService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopViewCache()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = ingest.DefaultMaxBytes
	}
	if opts.MaxConcurrentComputations <= 0 {
		opts.MaxConcurrentComputations = 4
	}
	return &DashboardService{
		sessions: sessions,
		cache:    cacheImpl,
		sem:      semaphore.NewWeighted(opts.MaxConcurrentComputations),
		maxBytes: opts.MaxUploadBytes,
		now:      time.Now,
	}
}

// MaxUploadBytes is the per-file ceiling applied to uploads.
func (s *DashboardService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Upload parses both exports and stores the snapshot. Oversized inputs are
// rejected before either table is parsed.
func (s *DashboardService) Upload(ctx context.Context, inventory, sales Upload, uploadedBy string) (*UploadResult, error) {
	snapshot, result, err := s.Ingest(ctx, inventory, sales)
	if err != nil {
		log.Warn().Err(err).Str("user", uploadedBy).Msg("dashboard: upload rejected")
		return nil, err
	}

	snapshot.UploadedBy = uploadedBy
	snapshot.UploadedAt = s.now()
	result.SnapshotID = s.sessions.Put(snapshot)

	log.Info().
		Str("snapshot", result.SnapshotID).
		Str("user", uploadedBy).
		Int("inventory_rows", result.Inventory.Parsed).
		Int("sales_rows", result.Sales.Parsed).
		Int("malformed", result.Inventory.MalformedCount()+result.Sales.MalformedCount()).
		Msg("dashboard: snapshot stored")

	return result, nil
}

// Ingest parses an inventory and a sales export into an unsaved snapshot.
func (s *DashboardService) Ingest(ctx context.Context, inventory, sales Upload) (*domain.Snapshot, *UploadResult, error) {
	if err := ingest.CheckDeclaredSize(ingest.TableInventory, inventory.Size, s.maxBytes); err != nil {
		return nil, nil, err
	}
	if err := ingest.CheckDeclaredSize(ingest.TableSales, sales.Size, s.maxBytes); err != nil {
		return nil, nil, err
	}

	// Both bodies are buffered before either is parsed.
	invData, err := ingest.ReadLimited(ingest.TableInventory, inventory.Reader, s.maxBytes)
	if err != nil {
		return nil, nil, err
	}
	salesData, err := ingest.ReadLimited(ingest.TableSales, sales.Reader, s.maxBytes)
	if err != nil {
		return nil, nil, err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	defer s.sem.Release(1)

	var (
		invResult   *ingest.InventoryResult
		salesResult *ingest.SalesResult
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		invResult, err = ingest.ParseInventory(inventory.Filename, invData)
		return err
	})
	g.Go(func() error {
		var err error
		salesResult, err = ingest.ParseSales(sales.Filename, salesData)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	snapshot := &domain.Snapshot{
		Inventory:          invResult.Records,
		Sales:              salesResult.Records,
		Columns:            invResult.Columns,
		LatestSale:         salesResult.LatestSale,
		InventoryMalformed: invResult.Report.MalformedCount(),
		SalesMalformed:     salesResult.Report.MalformedCount(),
	}

	result := &UploadResult{
		Inventory:  invResult.Report,
		Sales:      salesResult.Report,
		Columns:    invResult.Columns,
		LatestSale: salesResult.LatestSale,
		Notices:    snapshotNotices(snapshot, 0),
	}
	result.Notices = append(result.Notices, missingColumnNotices(invResult.Columns)...)

	return snapshot, result, nil
}

// Options returns the filter-bar choices for a snapshot.
func (s *DashboardService) Options(ctx context.Context, snapshotID string) (*domain.FilterOptions, error) {
	snapshot, err := s.sessions.Get(snapshotID)
	if err != nil {
		return nil, err
	}

	records := make([]domain.SkuRecord, 0, len(snapshot.Inventory))
	for _, rec := range snapshot.Inventory {
		records = append(records, domain.SkuRecord{SkuMetric: domain.SkuMetric{
			Category:    rec.Category,
			Subcategory: rec.Subcategory,
			Brand:       rec.Brand,
		}})
	}
	opts := query.Options(records, snapshot.Columns)
	return &opts, nil
}

// View computes (or loads from cache) one tab of a stored snapshot.
func (s *DashboardService) View(ctx context.Context, snapshotID string, tab domain.Tab, filter domain.Filter) (*domain.View, error) {
	snapshot, err := s.sessions.Get(snapshotID)
	if err != nil {
		return nil, err
	}

	if view, ok, err := s.cache.GetView(ctx, snapshotID, tab, filter); err == nil && ok {
		return view, nil
	} else if err != nil {
		log.Warn().Err(err).Str("snapshot", snapshotID).Msg("dashboard: cache get view failed")
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	view, err := BuildView(snapshot, tab, filter, s.now())
	s.sem.Release(1)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetView(ctx, snapshotID, tab, filter, view); err != nil {
		log.Warn().Err(err).Str("snapshot", snapshotID).Msg("dashboard: cache set view failed")
	}

	return view, nil
}

// Export renders a view for download.
func (s *DashboardService) Export(ctx context.Context, w io.Writer, snapshotID string, tab domain.Tab, filter domain.Filter, format export.Format) error {
	view, err := s.View(ctx, snapshotID, tab, filter)
	if err != nil {
		return err
	}
	return export.Write(w, format, view)
}

// Delete drops a snapshot and its cached views.
func (s *DashboardService) Delete(ctx context.Context, snapshotID string) error {
	if err := s.sessions.Delete(snapshotID); err != nil {
		return err
	}
	if err := s.cache.InvalidateSnapshot(ctx, snapshotID); err != nil {
		log.Warn().Err(err).Str("snapshot", snapshotID).Msg("dashboard: cache invalidate failed")
	}
	return nil
}

// BuildView runs metrics, classification and the query for one tab.
func BuildView(snapshot *domain.Snapshot, tab domain.Tab, filter domain.Filter, now time.Time) (*domain.View, error) {
	if filter.WindowDays == 0 {
		filter.WindowDays = domain.DefaultWindowDays
	}

	var opts []metrics.Option
	if filter.AsOf != nil {
		opts = append(opts, metrics.WithAsOf(*filter.AsOf))
	}
	calc, err := metrics.NewCalculator(filter.WindowDays, now, opts...)
	if err != nil {
		return nil, err
	}

	result := calc.Calculate(snapshot.Inventory, snapshot.Sales)
	records := classify.Annotate(result.Metrics)

	view := query.Apply(records, snapshot.Columns, tab, filter)
	view.SnapshotID = snapshot.ID
	view.Today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	view.Notices = append(view.Notices, snapshotNotices(snapshot, result.UnmatchedSales)...)

	return &view, nil
}

func snapshotNotices(snapshot *domain.Snapshot, unmatched int) []domain.Notice {
	notices := []domain.Notice{}
	if n := snapshot.InventoryMalformed + snapshot.SalesMalformed; n > 0 {
		notices = append(notices, domain.Notice{
			Code: domain.NoticeMalformedRows,
			Message: fmt.Sprintf("%d malformed rows were skipped (%d inventory, %d sales).",
				n, snapshot.InventoryMalformed, snapshot.SalesMalformed),
		})
	}
	if unmatched > 0 {
		notices = append(notices, domain.Notice{
			Code:    domain.NoticeUnmatchedSales,
			Message: fmt.Sprintf("%d products in the sales window have no inventory row and are not shown.", unmatched),
		})
	}
	return notices
}

func missingColumnNotices(columns domain.Columns) []domain.Notice {
	notices := []domain.Notice{}
	add := func(present bool, code string, field ingest.Field) {
		if present {
			return
		}
		err := &domain.MissingColumnError{Table: ingest.TableInventory, Field: string(field), Optional: true}
		notices = append(notices, domain.Notice{Code: code, Message: err.Error()})
	}
	add(columns.Cost, domain.NoticeMissingCost, ingest.FieldUnitCost)
	add(columns.Brand, domain.NoticeMissingBrand, ingest.FieldBrand)
	add(columns.Expiration, domain.NoticeMissingExpiration, ingest.FieldExpiration)
	return notices
}
