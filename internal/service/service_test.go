package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/bonetider/internal/extract"
	"github.com/pfrederiksen/bonetider/internal/logger"
	"github.com/pfrederiksen/bonetider/internal/storage"
)

const marchTable = `<table><tbody id="ifis_bonetider">` +
	`<tr class="odd"><td>13</td><td>06:28</td><td>08:58</td><td>12:17</td><td>13:23</td><td>15:33</td><td>18:43</td></tr>` +
	`<tr class="even today"><td>14</td><td>06:26</td><td>08:54</td><td>12:17</td><td>13:19</td><td>15:31</td><td>18:55</td></tr>` +
	`</tbody></table>`

var fallbackTimes = [6]string{"06:00", "08:00", "12:00", "13:00", "15:00", "18:00"}

type fakeFetcher struct {
	doc    string
	err    error
	calls  int
	months []int
}

func (f *fakeFetcher) Fetch(_ context.Context, month int) (string, error) {
	f.calls++
	f.months = append(f.months, month)
	return f.doc, f.err
}

func newTestService(t *testing.T, fetcher Fetcher, ttl time.Duration) (*Service, *storage.Storage, *logger.Metrics) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error: %v", err)
	}
	metrics := logger.NewMetrics()
	svc := New(fetcher, extract.New(extract.Options{}), store, Options{
		City:     "Uddevalla, SE",
		Location: time.UTC,
		CacheTTL: ttl,
		Fallback: fallbackTimes,
		Metrics:  metrics,
	})
	return svc, store, metrics
}

var march14 = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func TestToday_Live(t *testing.T) {
	fetcher := &fakeFetcher{doc: marchTable}
	svc, store, metrics := newTestService(t, fetcher, time.Minute)

	resp, err := svc.Today(context.Background(), march14)
	if err != nil {
		t.Fatalf("Today() error: %v", err)
	}

	if resp.Source != SourceLive || resp.Tier != extract.TierMarker {
		t.Errorf("Today() source/tier = %s/%s", resp.Source, resp.Tier)
	}
	if resp.Date != "2024-03-14" || resp.Fajr != "06:26" || resp.Isha != "18:55" {
		t.Errorf("Today() record = %+v", resp.Record)
	}
	if resp.Degraded() {
		t.Error("live response reported as degraded")
	}
	if len(fetcher.months) != 1 || fetcher.months[0] != 3 {
		t.Errorf("fetched months = %v, want [3]", fetcher.months)
	}
	if metrics.Counter("extract.tier.marker") != 1 {
		t.Error("tier counter not incremented")
	}

	stored, err := store.Load("2024-03-14")
	if err != nil || stored == nil {
		t.Fatalf("record not stored: %v", err)
	}
	if stored.Tier != extract.TierMarker || stored.City != "Uddevalla, SE" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestToday_UsesServiceTimezone(t *testing.T) {
	fetcher := &fakeFetcher{doc: marchTable}
	store, _ := storage.New(t.TempDir())
	loc := time.FixedZone("UTC+2", 2*60*60)
	svc := New(fetcher, extract.New(extract.Options{}), store, Options{Location: loc, Fallback: fallbackTimes})

	// 23:30 UTC on the 13th is already the 14th at UTC+2
	resp, err := svc.Today(context.Background(), time.Date(2024, 3, 13, 23, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Today() error: %v", err)
	}
	if resp.Date != "2024-03-14" {
		t.Errorf("Date = %q, want 2024-03-14", resp.Date)
	}
}

func TestToday_Cache(t *testing.T) {
	fetcher := &fakeFetcher{doc: marchTable}
	svc, _, metrics := newTestService(t, fetcher, time.Hour)

	if _, err := svc.Today(context.Background(), march14); err != nil {
		t.Fatalf("first Today() error: %v", err)
	}
	resp, err := svc.Today(context.Background(), march14)
	if err != nil {
		t.Fatalf("second Today() error: %v", err)
	}

	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
	if resp.Source != SourceCache {
		t.Errorf("Source = %s, want cache", resp.Source)
	}
	if metrics.Counter("cache.hit") != 1 {
		t.Error("cache hit not counted")
	}
}

func TestToday_CacheDisabled(t *testing.T) {
	fetcher := &fakeFetcher{doc: marchTable}
	svc, _, _ := newTestService(t, fetcher, 0)

	svc.Today(context.Background(), march14)
	svc.Today(context.Background(), march14)

	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}
}

func TestToday_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fetcher  *fakeFetcher
		wantKind extract.Kind
		counter  string
	}{
		{
			name:    "fetch failure",
			fetcher: &fakeFetcher{err: errors.New("connection refused")},
			counter: "upstream.error",
		},
		{
			name:     "table missing",
			fetcher:  &fakeFetcher{doc: "<html><body>Ett fel uppstod</body></html>"},
			wantKind: extract.KindTableMissing,
			counter:  "extract.error.TableMissing",
		},
		{
			name:     "no valid row",
			fetcher:  &fakeFetcher{doc: `<tbody id="ifis_bonetider"></tbody>`},
			wantKind: extract.KindNoValidRow,
			counter:  "extract.error.NoValidRow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, metrics := newTestService(t, tt.fetcher, time.Minute)

			_, err := svc.Today(context.Background(), march14)
			if err == nil {
				t.Fatal("Today() expected error")
			}
			if got := extract.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf() = %q, want %q", got, tt.wantKind)
			}
			if metrics.Counter(tt.counter) != 1 {
				t.Errorf("counter %s = %d, want 1", tt.counter, metrics.Counter(tt.counter))
			}
		})
	}
}

func TestLookup_ImpossibleDate(t *testing.T) {
	fetcher := &fakeFetcher{doc: marchTable}
	svc, store, _ := newTestService(t, fetcher, time.Minute)

	_, err := svc.Lookup(context.Background(), extract.Target{Year: 2024, Month: 2, Day: 31})
	if err == nil {
		t.Fatal("Lookup() expected error for 2024-02-31")
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times, want 0", fetcher.calls)
	}
	if dates, _ := store.Dates(); len(dates) != 0 {
		t.Errorf("stored dates = %v, want none", dates)
	}
}

func TestResolve_StaticFallback(t *testing.T) {
	svc, _, metrics := newTestService(t, &fakeFetcher{doc: "<html></html>"}, time.Minute)

	resp := svc.Resolve(context.Background(), march14)

	if !resp.Fallback || resp.Source != SourceFallback {
		t.Errorf("Resolve() = %+v, want static fallback", resp)
	}
	if resp.Date != "2024-03-14" {
		t.Errorf("Date = %q, want 2024-03-14", resp.Date)
	}
	if resp.Times() != fallbackTimes {
		t.Errorf("Times() = %v, want %v", resp.Times(), fallbackTimes)
	}
	if !strings.Contains(resp.Error, "TableMissing") {
		t.Errorf("Error = %q, want TableMissing detail", resp.Error)
	}
	if metrics.Counter("fallback.static") != 1 {
		t.Error("fallback counter not incremented")
	}
}

func TestResolve_StoredRecord(t *testing.T) {
	fetcher := &fakeFetcher{doc: marchTable}
	svc, _, metrics := newTestService(t, fetcher, 0)

	if resp := svc.Resolve(context.Background(), march14); resp.Source != SourceLive {
		t.Fatalf("first Resolve() source = %s, want live", resp.Source)
	}

	fetcher.doc = ""
	fetcher.err = errors.New("timeout")

	resp := svc.Resolve(context.Background(), march14)
	if resp.Source != SourceStored || !resp.Stale || resp.Fallback {
		t.Errorf("Resolve() = %+v, want stale stored record", resp)
	}
	if resp.Fajr != "06:26" || resp.Tier != extract.TierMarker {
		t.Errorf("Resolve() record = %+v", resp)
	}
	if !strings.Contains(resp.Error, "timeout") {
		t.Errorf("Error = %q", resp.Error)
	}
	if metrics.Counter("fallback.stored") != 1 {
		t.Error("stored fallback counter not incremented")
	}
}

func TestResolve_WithoutStore(t *testing.T) {
	svc := New(&fakeFetcher{err: errors.New("down")}, extract.New(extract.Options{}), nil, Options{
		Location: time.UTC,
		Fallback: fallbackTimes,
		Metrics:  logger.NewMetrics(),
	})

	resp := svc.Resolve(context.Background(), march14)
	if !resp.Fallback {
		t.Errorf("Resolve() = %+v, want fallback", resp)
	}
}

func TestResponse_JSON(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeFetcher{err: errors.New("down")}, 0)
	resp := svc.Resolve(context.Background(), march14)

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	for _, key := range []string{"date", "fajr", "shuruk", "dhohr", "asr", "magrib", "isha", "_fallback", "_error", "_source"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON missing key %q: %s", key, data)
		}
	}
	if _, ok := decoded["_stale"]; ok {
		t.Error("JSON should omit _stale when false")
	}
}

func TestCache_TTL(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("2024-03-14", &Response{Source: SourceLive})
	c.Set("2024-03-13", &Response{Source: SourceLive})

	if c.Get("2024-03-14") == nil {
		t.Error("Get() missed fresh entry")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	now = now.Add(2 * time.Minute)
	if c.Get("2024-03-14") != nil {
		t.Error("Get() returned expired entry")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() removed %d, want 1", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}
