package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/bonetider/internal/extract"
	"github.com/pfrederiksen/bonetider/internal/logger"
	"github.com/pfrederiksen/bonetider/internal/prayer"
	"github.com/pfrederiksen/bonetider/internal/storage"
)

// Source names where a response came from
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceStored   Source = "stored"
	SourceFallback Source = "fallback"
)

// Fetcher retrieves the raw timetable document for a month
type Fetcher interface {
	Fetch(ctx context.Context, month int) (string, error)
}

// Extractor turns a document into a record for a target date
type Extractor interface {
	Extract(document string, target extract.Target) (*extract.Result, error)
}

// Store persists good records between runs
type Store interface {
	Load(date string) (*storage.StoredRecord, error)
	Save(stored *storage.StoredRecord) error
}

// Response is a record plus provenance, serialized flat for clients.
type Response struct {
	prayer.Record `yaml:",inline"`

	Source   Source `json:"_source" yaml:"_source"`
	Tier     string `json:"_tier,omitempty" yaml:"_tier,omitempty"`
	Stale    bool   `json:"_stale,omitempty" yaml:"_stale,omitempty"`
	Fallback bool   `json:"_fallback,omitempty" yaml:"_fallback,omitempty"`
	Error    string `json:"_error,omitempty" yaml:"_error,omitempty"`
}

// Degraded reports whether the response is not live data for the date
func (r *Response) Degraded() bool {
	return r.Fallback || r.Stale
}

// Options configures a Service
type Options struct {
	City     string
	Location *time.Location
	CacheTTL time.Duration
	Fallback [6]string
	Metrics  *logger.Metrics
}

// Service coordinates fetching, extraction, caching and fallback
type Service struct {
	fetcher Fetcher
	engine  Extractor
	store   Store
	cache   *Cache
	metrics *logger.Metrics
	opts    Options
}

// New creates a Service. store may be nil to disable on-disk records.
func New(fetcher Fetcher, engine Extractor, store Store, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.DefaultMetrics()
	}

	return &Service{
		fetcher: fetcher,
		engine:  engine,
		store:   store,
		cache:   NewCache(opts.CacheTTL),
		metrics: opts.Metrics,
		opts:    opts,
	}
}

// Location returns the timezone used to decide what "today" is
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

// Cache exposes the in-memory response cache
func (s *Service) Cache() *Cache {
	return s.cache
}

// Today looks up the record for now's date in the service timezone.
func (s *Service) Today(ctx context.Context, now time.Time) (*Response, error) {
	return s.Lookup(ctx, extract.TargetOf(now.In(s.opts.Location)))
}

// Lookup returns the live record for target, from the memory cache when fresh.
func (s *Service) Lookup(ctx context.Context, target extract.Target) (*Response, error) {
	date := target.Date()
	if !target.Valid() {
		return nil, fmt.Errorf("invalid target date: %s", date)
	}

	if cached := s.cache.Get(date); cached != nil {
		s.metrics.IncrCounter("cache.hit")
		resp := *cached
		resp.Source = SourceCache
		return &resp, nil
	}

	document, err := s.fetcher.Fetch(ctx, target.Month)
	if err != nil {
		s.metrics.IncrCounter("upstream.error")
		return nil, fmt.Errorf("fetching timetable: %w", err)
	}

	start := time.Now()
	result, err := s.engine.Extract(document, target)
	s.metrics.RecordTiming("extract", time.Since(start))
	if err != nil {
		kind := extract.KindOf(err)
		if kind == "" {
			kind = "Other"
		}
		s.metrics.IncrCounter("extract.error." + string(kind))
		return nil, fmt.Errorf("extracting prayer times: %w", err)
	}

	s.metrics.IncrCounter("extract.tier." + result.Tier)
	fields := logger.Fields{
		"date": date,
		"tier": result.Tier,
		"city": s.opts.City,
	}
	if result.Tier == extract.TierShape {
		logger.Warn("Matched timetable row by shape only, times may belong to another day", fields)
	} else {
		logger.Info("Extracted prayer times", fields)
	}

	if s.store != nil {
		stored := &storage.StoredRecord{Record: result.Record, Tier: result.Tier, City: s.opts.City}
		if err := s.store.Save(stored); err != nil {
			logger.Error("Saving record failed", logger.Fields{"date": date}, err)
		}
	}

	resp := &Response{Record: *result.Record, Source: SourceLive, Tier: result.Tier}
	s.cache.Set(date, resp)
	s.metrics.SetGauge("cache.entries", float64(s.cache.Size()))

	return resp, nil
}

// Resolve is Today with the fallback policy applied. It always returns a record:
// live data, then the stored record for the date, then the static times.
func (s *Service) Resolve(ctx context.Context, now time.Time) *Response {
	return s.ResolveTarget(ctx, extract.TargetOf(now.In(s.opts.Location)))
}

// ResolveTarget applies the fallback policy for an explicit target date.
func (s *Service) ResolveTarget(ctx context.Context, target extract.Target) *Response {
	resp, err := s.Lookup(ctx, target)
	if err == nil {
		return resp
	}

	date := target.Date()
	fields := logger.Fields{
		"date": date,
		"kind": string(extract.KindOf(err)),
	}

	if stored := s.loadStored(date); stored != nil {
		s.metrics.IncrCounter("fallback.stored")
		logger.Warn("Serving stored prayer times", fields)
		return &Response{
			Record: *stored.Record,
			Source: SourceStored,
			Tier:   stored.Tier,
			Stale:  true,
			Error:  err.Error(),
		}
	}

	s.metrics.IncrCounter("fallback.static")
	logger.Error("Serving static fallback prayer times", fields, err)
	return &Response{
		Record:   *prayer.NewRecord(date, s.opts.Fallback),
		Source:   SourceFallback,
		Fallback: true,
		Error:    err.Error(),
	}
}

func (s *Service) loadStored(date string) *storage.StoredRecord {
	if s.store == nil {
		return nil
	}

	stored, err := s.store.Load(date)
	if err != nil {
		logger.Error("Loading stored record failed", logger.Fields{"date": date}, err)
		return nil
	}
	return stored
}
