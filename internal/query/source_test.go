package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-history/internal/domain/history"
)

var errTestBackend = errors.New("test backend failure")

// fakeBackend is a deterministic history.Backend counting its calls.
type fakeBackend struct {
	// records is returned by every call.
	records []history.AlarmRecord
	// err is returned by every call.
	err error
	// release, when set, blocks each call until it is closed.
	release chan struct{}
	// calls counts FetchHistoricalAlarms invocations.
	calls atomic.Int32

	// mu protects filters.
	mu sync.Mutex
	// filters records every filter received.
	filters []history.FetchFilter
}

// FetchHistoricalAlarms records the filter and returns the configured outcome.
func (f *fakeBackend) FetchHistoricalAlarms(_ context.Context, filter history.FetchFilter) ([]history.AlarmRecord, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}

	return f.records, f.err
}

// lastFilter returns the most recent filter received.
func (f *fakeBackend) lastFilter() history.FetchFilter {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.filters[len(f.filters)-1]
}

var (
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
)

// testRecords returns two records created in a non-UTC zone.
func testRecords() []history.AlarmRecord {
	cet := time.FixedZone("CET", 3600)

	return []history.AlarmRecord{
		{
			DeviceID:      346,
			AlarmID:       10021,
			ElementName:   "Encoder 01",
			ParameterName: "CPU Load",
			DisplayValue:  "97 %",
			CreationTime:  time.Date(2024, 1, 1, 10, 0, 0, 0, cet),
			Severity:      "Critical",
			Owner:         "noc",
			ServiceName:   "Service_1",
		},
		{
			DeviceID:      346,
			AlarmID:       10007,
			ElementName:   "Decoder 02",
			ParameterName: "Input Bitrate",
			DisplayValue:  "0 Mbps",
			CreationTime:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			Severity:      "Major",
			Owner:         "",
			ServiceName:   "Service_1",
		},
	}
}

// newPreparedSource runs a Source up to PrepareFetch with the given service.
func newPreparedSource(t *testing.T, backend history.Backend, raw RawArguments) *Source {
	t.Helper()

	ctx := context.Background()
	s := NewSource()

	require.NoError(t, s.Init(ctx, backend))
	require.NoError(t, s.ProcessArguments(ctx, raw))
	require.NoError(t, s.PrepareFetch(ctx))

	return s
}

// validArgs returns raw arguments for the test window.
func validArgs(service any) RawArguments {
	raw := RawArguments{
		ArgStartTime: testStart,
		ArgEndTime:   testEnd,
	}

	if service != nil {
		raw[ArgService] = service
	}

	return raw
}

// TestSource_Scenario exercises the two-record scenario end to end.
func TestSource_Scenario(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{records: testRecords()}
	s := newPreparedSource(t, backend, validArgs("Service:1"))

	page, err := s.ReadPage(context.Background())
	require.NoError(t, err)
	require.False(t, page.HasNextPage)
	require.Len(t, page.Rows, 2)

	require.Equal(t, history.OutputRow{
		ID:        "346/10021",
		Element:   "Encoder 01",
		Parameter: "CPU Load",
		Value:     "97 %",
		Time:      time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Severity:  "Critical",
		Owner:     "noc",
	}, page.Rows[0])
	require.Equal(t, "346/10007", page.Rows[1].ID)
	require.Equal(t, time.UTC, page.Rows[0].Time.Location())

	filter := backend.lastFilter()
	require.Equal(t, "*Service_1*", filter.ServicePattern)
	require.Equal(t, testStart, filter.StartTime)
	require.Equal(t, testEnd, filter.EndTime)
	require.Equal(t, history.ScopeAlarmTable, filter.Scope)
	require.Equal(t, history.FetchReady, s.State())
	require.EqualValues(t, 1, backend.calls.Load())
}

// TestSource_BlankService checks that absent or blank services never reach the backend.
func TestSource_BlankService(t *testing.T) {
	t.Parallel()

	for _, service := range []any{nil, "", "   \t", 42} {
		backend := &fakeBackend{records: testRecords()}
		s := newPreparedSource(t, backend, validArgs(service))

		require.Equal(t, history.FetchIdle, s.State())

		page, err := s.ReadPage(context.Background())
		require.NoError(t, err)
		require.Empty(t, page.Rows)
		require.False(t, page.HasNextPage)
		require.Zero(t, backend.calls.Load())

		_, ok := s.Filter()
		require.False(t, ok)
	}
}

// TestSource_Failure checks that a backend failure surfaces the fixed message and no rows.
func TestSource_Failure(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{records: testRecords(), err: errTestBackend}
	s := newPreparedSource(t, backend, validArgs("Service:1"))

	for i := 0; i < 2; i++ {
		page, err := s.ReadPage(context.Background())
		require.ErrorIs(t, err, ErrNoAlarms)
		require.EqualError(t, err, "No alarms found.")
		require.Nil(t, page)
	}

	require.Equal(t, history.FetchFailed, s.State())
	require.EqualValues(t, 1, backend.calls.Load())
}

// TestSource_Empty checks that zero matches is an empty final page, not an error.
func TestSource_Empty(t *testing.T) {
	t.Parallel()

	for _, records := range [][]history.AlarmRecord{nil, {}} {
		backend := &fakeBackend{records: records}
		s := newPreparedSource(t, backend, validArgs("svc"))

		page, err := s.ReadPage(context.Background())
		require.NoError(t, err)
		require.NotNil(t, page)
		require.Empty(t, page.Rows)
		require.False(t, page.HasNextPage)
		require.Equal(t, history.FetchEmpty, s.State())
	}
}

// TestSource_ReadPageIsIdempotent verifies repeated reads return the same page without re-fetching.
func TestSource_ReadPageIsIdempotent(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{records: testRecords()}
	s := newPreparedSource(t, backend, validArgs("Service:1"))

	first, err := s.ReadPage(context.Background())
	require.NoError(t, err)

	second, err := s.ReadPage(context.Background())
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, backend.calls.Load())
}

// TestSource_ConcurrentReads verifies concurrent readers observe one outcome.
func TestSource_ConcurrentReads(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	backend := &fakeBackend{records: testRecords(), release: release}
	s := newPreparedSource(t, backend, validArgs("Service:1"))

	const readers = 8

	var (
		wg    sync.WaitGroup
		pages = make([]*history.Page, readers)
		errs  = make([]error, readers)
	)

	for i := range readers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			pages[i], errs[i] = s.ReadPage(context.Background())
		}()
	}

	close(release)
	wg.Wait()

	for i := range readers {
		require.NoError(t, errs[i])
		require.Equal(t, pages[0], pages[i])
	}

	require.EqualValues(t, 1, backend.calls.Load())
}

// TestSource_PrepareDoesNotBlock checks that the fetch overlaps with setup and
// that only ReadPage waits for it.
func TestSource_PrepareDoesNotBlock(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		release := make(chan struct{})
		backend := &fakeBackend{records: testRecords(), release: release}

		// PrepareFetch returns while the backend is still blocked.
		s := newPreparedSource(t, backend, validArgs("Service:1"))

		synctest.Wait()
		require.EqualValues(t, 1, backend.calls.Load())
		require.Equal(t, history.FetchStarted, s.State())

		// Columns are available without waiting for the fetch.
		require.Len(t, s.Columns(), 7)

		done := make(chan *history.Page)

		go func() {
			page, err := s.ReadPage(context.Background())
			if err != nil {
				close(done)
				return
			}

			done <- page
		}()

		// The reader is now parked on the join.
		synctest.Wait()
		require.Equal(t, history.FetchPending, s.State())

		close(release)

		page := <-done
		require.NotNil(t, page)
		require.Len(t, page.Rows, 2)
		require.Equal(t, history.FetchReady, s.State())
	})
}

// TestSource_PrepareTwice verifies a Source fetches at most once.
func TestSource_PrepareTwice(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{records: testRecords()}
	s := newPreparedSource(t, backend, validArgs("Service:1"))

	require.ErrorIs(t, s.PrepareFetch(context.Background()), ErrAlreadyPrepared)

	_, err := s.ReadPage(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, backend.calls.Load())
}

// TestSource_BackendPanic verifies a panicking backend is reported as a failed fetch.
func TestSource_BackendPanic(t *testing.T) {
	t.Parallel()

	backend := history.BackendFunc(func(context.Context, history.FetchFilter) ([]history.AlarmRecord, error) {
		panic("boom")
	})
	s := newPreparedSource(t, backend, validArgs("Service:1"))

	page, err := s.ReadPage(context.Background())
	require.ErrorIs(t, err, ErrNoAlarms)
	require.Nil(t, page)
}

// TestSource_InitRequiresBackend checks Init and PrepareFetch preconditions.
func TestSource_InitRequiresBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s := NewSource()
	require.Error(t, s.Init(ctx, nil))

	require.NoError(t, s.ProcessArguments(ctx, validArgs("svc")))
	require.Error(t, s.PrepareFetch(ctx))
}

// TestSource_Descriptors checks argument and column schemas and their isolation.
func TestSource_Descriptors(t *testing.T) {
	t.Parallel()

	a, b := NewSource(), NewSource()
	require.NotEqual(t, a.ID(), b.ID())

	args := a.Arguments()
	require.Equal(t, []history.Argument{
		{Name: "Service", Type: history.ArgumentString, Required: true},
		{Name: "Start Time", Type: history.ArgumentDateTime, Required: true},
		{Name: "End Time", Type: history.ArgumentDateTime, Required: true},
	}, args)

	columns := a.Columns()
	names := make([]string, 0, len(columns))

	for _, c := range columns {
		names = append(names, c.Name)
	}

	require.Equal(t, []string{"ID", "Element", "Parameter", "Value", "Time", "Severity", "Owner"}, names)
	require.Equal(t, history.ColumnDateTime, columns[4].Type)

	// Mutating a returned schema must not leak into any Source.
	columns[0].Name = "changed"
	args[0].Required = false

	require.Equal(t, "ID", a.Columns()[0].Name)
	require.True(t, a.Arguments()[0].Required)
	require.Equal(t, "ID", b.Columns()[0].Name)
}

// TestRun drives every stage through the orchestrator.
func TestRun(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{records: testRecords()}

	columns, page, err := Run(context.Background(), backend, validArgs("Service:1"))
	require.NoError(t, err)
	require.Len(t, columns, 7)
	require.Len(t, page.Rows, 2)

	_, _, err = Run(context.Background(), &fakeBackend{err: errTestBackend}, validArgs("Service:1"))
	require.EqualError(t, err, "No alarms found.")

	_, _, err = Run(context.Background(), backend, RawArguments{ArgService: "svc"})
	require.ErrorIs(t, err, ErrMissingArgument)
}
