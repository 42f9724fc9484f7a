package comparison

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/procurehq/backend-procure/internal/compare"
	"github.com/procurehq/backend-procure/internal/lock"
	"github.com/procurehq/backend-procure/internal/obs"
	"github.com/procurehq/backend-procure/internal/quotation"
)

// ErrNoQuotations is returned when an RFQ has no saved quotations to compare.
var ErrNoQuotations = errors.New("comparison: no quotations for rfq")

// Sheet is one comparative statement: every vendor's particulars side by
// side plus the least value per field.
type Sheet struct {
	RFQNumber   string              `json:"rfqNumber"`
	Vendors     []compare.VendorRow `json:"vendors"`
	Least       compare.Result      `json:"least"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// DocumentLister is the slice of the quotation store the comparison needs.
type DocumentLister interface {
	ListByRFQ(ctx context.Context, docType quotation.DocType, rfqNumber string) ([]quotation.Document, error)
}

// Service builds comparison sheets from stored quotations and caches them in
// Redis. The cache is rebuilt off the request path whenever a quotation is
// saved, so reads usually hit.
type Service struct {
	Docs   DocumentLister
	Cache  *redis.Client
	TTL    time.Duration
	Logger zerolog.Logger

	// Lock, when set, serialises rebuilds of the same RFQ across workers.
	Lock    *lock.Locker
	LockTTL time.Duration
}

// Build computes a fresh sheet from the stored quotations, bypassing the
// cache.
func (s *Service) Build(ctx context.Context, rfqNumber string) (Sheet, error) {
	start := time.Now()
	docs, err := s.Docs.ListByRFQ(ctx, quotation.DocTypeQuotation, rfqNumber)
	if err != nil {
		return Sheet{}, err
	}
	if len(docs) == 0 {
		return Sheet{}, ErrNoQuotations
	}
	rows := make([]compare.VendorRow, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, compare.RowFromDocument(doc.VendorCode, doc.Amounts))
	}
	sheet := Sheet{
		RFQNumber:   rfqNumber,
		Vendors:     rows,
		Least:       compare.ComputeLeastValues(rows, compare.DefaultItemFields, compare.DefaultDocumentFields),
		GeneratedAt: time.Now().UTC(),
	}
	if obs.ComparisonComputeDuration != nil {
		obs.ComparisonComputeDuration.Observe(float64(time.Since(start).Milliseconds()))
	}
	return sheet, nil
}

// Get returns the sheet for an RFQ, serving from cache when possible.
func (s *Service) Get(ctx context.Context, rfqNumber string) (Sheet, error) {
	if sheet, ok := s.fromCache(ctx, rfqNumber); ok {
		s.observeCache("hit")
		return sheet, nil
	}
	s.observeCache("miss")
	sheet, err := s.Build(ctx, rfqNumber)
	if err != nil {
		return Sheet{}, err
	}
	s.store(ctx, sheet)
	return sheet, nil
}

// Refresh rebuilds the sheet and overwrites the cache. An RFQ left with no
// quotations has its cache entry dropped instead.
func (s *Service) Refresh(ctx context.Context, rfqNumber string) error {
	if s.Lock != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		return s.Lock.WithLock(ctx, lock.Key("comparison", rfqNumber), ttl, func(ctx context.Context) error {
			return s.refresh(ctx, rfqNumber)
		})
	}
	return s.refresh(ctx, rfqNumber)
}

func (s *Service) refresh(ctx context.Context, rfqNumber string) error {
	sheet, err := s.Build(ctx, rfqNumber)
	if err != nil {
		if errors.Is(err, ErrNoQuotations) {
			s.invalidate(ctx, rfqNumber)
			return nil
		}
		return err
	}
	s.store(ctx, sheet)
	return nil
}

func (s *Service) fromCache(ctx context.Context, rfqNumber string) (Sheet, bool) {
	if s.Cache == nil {
		return Sheet{}, false
	}
	raw, err := s.Cache.Get(ctx, cacheKey(rfqNumber)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.Logger.Warn().Err(err).Str("rfq", rfqNumber).Msg("comparison cache read failed")
		}
		return Sheet{}, false
	}
	var sheet Sheet
	if err := json.Unmarshal(raw, &sheet); err != nil {
		return Sheet{}, false
	}
	return sheet, true
}

func (s *Service) store(ctx context.Context, sheet Sheet) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(sheet)
	if err != nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if err := s.Cache.Set(ctx, cacheKey(sheet.RFQNumber), raw, ttl).Err(); err != nil {
		s.Logger.Warn().Err(err).Str("rfq", sheet.RFQNumber).Msg("comparison cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, rfqNumber string) {
	if s.Cache == nil {
		return
	}
	_ = s.Cache.Del(ctx, cacheKey(rfqNumber)).Err()
}

func (s *Service) observeCache(result string) {
	if obs.ComparisonCacheTotal != nil {
		obs.ComparisonCacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(rfqNumber string) string {
	return "comparison:sheet:" + rfqNumber
}
