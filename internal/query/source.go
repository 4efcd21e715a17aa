package query

import (
	"context"
	"errors"
	"slices"

	"github.com/gofrs/uuid"

	"github.com/oshokin/alarm-history/internal/domain/history"
	"github.com/oshokin/alarm-history/internal/logger"
)

// Column names as exposed to the host.
const (
	ColumnID        = "ID"
	ColumnElement   = "Element"
	ColumnParameter = "Parameter"
	ColumnValue     = "Value"
	ColumnTime      = "Time"
	ColumnSeverity  = "Severity"
	ColumnOwner     = "Owner"
)

var (
	// ErrNoAlarms is returned by ReadPage when the backend call failed.
	//nolint:revive,staticcheck // The message is shown verbatim to query users.
	ErrNoAlarms = errors.New("No alarms found.")
	// ErrAlreadyPrepared is returned when PrepareFetch is called twice on one Source.
	ErrAlreadyPrepared = errors.New("fetch already prepared")
	// errBackendRequired is returned when Init receives no backend.
	errBackendRequired = errors.New("backend must be provided")
	// errNotInitialised is returned when a fetch is prepared before Init.
	errNotInitialised = errors.New("source is not initialised")
)

// Source is one invocation of the service history alarms data source.
// A Source is single-use: it produces its page exactly once and is never
// pooled or shared between queries.
type Source struct {
	// id correlates log lines of this invocation.
	id string
	// backend answers the historical alarm fetch.
	backend history.Backend
	// arguments is the input schema of this instance.
	arguments []history.Argument
	// columns is the output schema of this instance.
	columns []history.Column

	// args are the values extracted by ProcessArguments.
	args history.QueryArguments
	// filter is built by PrepareFetch when a service is given.
	filter *history.FetchFilter
	// fetch is nil until PrepareFetch starts it.
	fetch *Fetch
	// prepared guards against a second PrepareFetch.
	prepared bool
}

// NewSource creates a Source with its own argument and column descriptors.
func NewSource() *Source {
	return &Source{
		id:        uuid.Must(uuid.NewV4()).String(),
		arguments: newArgumentDescriptors(),
		columns:   newColumnDescriptors(),
	}
}

// newColumnDescriptors builds the output schema of one Source.
func newColumnDescriptors() []history.Column {
	return []history.Column{
		{Name: ColumnID, Type: history.ColumnString},
		{Name: ColumnElement, Type: history.ColumnString},
		{Name: ColumnParameter, Type: history.ColumnString},
		{Name: ColumnValue, Type: history.ColumnString},
		{Name: ColumnTime, Type: history.ColumnDateTime},
		{Name: ColumnSeverity, Type: history.ColumnString},
		{Name: ColumnOwner, Type: history.ColumnString},
	}
}

// ID returns the correlation identifier of this Source.
func (s *Source) ID() string {
	return s.id
}

// Init binds the backend the fetch will be sent to.
func (s *Source) Init(ctx context.Context, backend history.Backend) error {
	if backend == nil {
		return errBackendRequired
	}

	s.backend = backend

	logger.Debug(s.scope(ctx), "Source initialised")

	return nil
}

// Arguments returns the input arguments the host must supply.
func (s *Source) Arguments() []history.Argument {
	return slices.Clone(s.arguments)
}

// Columns returns the output columns in row order.
func (s *Source) Columns() []history.Column {
	return slices.Clone(s.columns)
}

// ProcessArguments validates and stores the host arguments.
// A missing or blank service is accepted and later yields an empty page.
func (s *Source) ProcessArguments(ctx context.Context, raw RawArguments) error {
	args, err := parseArguments(raw)
	if err != nil {
		return err
	}

	s.args = args

	logger.DebugKV(s.scope(ctx), "Arguments processed",
		"service", args.Service,
		"start_time", args.StartTime,
		"end_time", args.EndTime,
	)

	return nil
}

// PrepareFetch builds the filter and starts the backend fetch without
// waiting for it. With a blank service nothing is started.
func (s *Source) PrepareFetch(ctx context.Context) error {
	if s.prepared {
		return ErrAlreadyPrepared
	}

	s.prepared = true
	ctx = s.scope(ctx)

	if isBlank(s.args.Service) {
		logger.Info(ctx, "No service given, skipping fetch")

		return nil
	}

	if s.backend == nil {
		return errNotInitialised
	}

	filter := BuildFilter(s.args)
	s.filter = &filter
	s.fetch = StartFetch(ctx, s.backend, filter)

	logger.InfoKV(ctx, "Fetch started",
		"service_pattern", filter.ServicePattern,
		"start_time", filter.StartTime,
		"end_time", filter.EndTime,
	)

	return nil
}

// Filter returns the filter built by PrepareFetch, if any.
func (s *Source) Filter() (history.FetchFilter, bool) {
	if s.filter == nil {
		return history.FetchFilter{}, false
	}

	return *s.filter, true
}

// State returns the fetch state without blocking.
func (s *Source) State() history.FetchState {
	return s.fetch.State()
}

// ReadPage waits for the fetch and returns all rows as one final page.
// Calling it again returns the same outcome without fetching again.
func (s *Source) ReadPage(ctx context.Context) (*history.Page, error) {
	ctx = s.scope(ctx)

	records, state := s.fetch.Wait()

	switch state {
	case history.FetchFailed:
		logger.ErrorKV(ctx, "Fetch failed", "error", s.fetch.Err())

		return nil, ErrNoAlarms
	case history.FetchReady:
		rows := MapRows(records)

		logger.InfoKV(ctx, "Page ready", "rows", len(rows))

		return &history.Page{Rows: rows, HasNextPage: false}, nil
	default:
		logger.InfoKV(ctx, "Empty page", "state", state.String())

		return &history.Page{Rows: []history.OutputRow{}, HasNextPage: false}, nil
	}
}

// scope returns ctx with the query logger attached.
func (s *Source) scope(ctx context.Context) context.Context {
	return logger.WithKV(logger.WithName(ctx, "query"), "query_id", s.id)
}

// Run drives a fresh Source through every stage in host order and returns
// the column schema with the single page.
func Run(
	ctx context.Context,
	backend history.Backend,
	raw RawArguments,
) ([]history.Column, *history.Page, error) {
	source := NewSource()

	if err := source.Init(ctx, backend); err != nil {
		return nil, nil, err
	}

	if err := source.ProcessArguments(ctx, raw); err != nil {
		return nil, nil, err
	}

	if err := source.PrepareFetch(ctx); err != nil {
		return nil, nil, err
	}

	columns := source.Columns()

	page, err := source.ReadPage(ctx)
	if err != nil {
		return columns, nil, err
	}

	return columns, page, nil
}
