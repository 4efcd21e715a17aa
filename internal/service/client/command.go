package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/oshokin/alarm-history/internal/config"
	"github.com/oshokin/alarm-history/internal/domain/history"
	"github.com/oshokin/alarm-history/internal/logger"
	"github.com/oshokin/alarm-history/internal/query"
	"github.com/oshokin/alarm-history/internal/service/common"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Options configures one alarm history query.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// LogLevel overrides the configured log level.
	LogLevel string

	// Service is the service name to search alarms for.
	Service string

	// Start is the inclusive lower bound of the creation time window.
	Start time.Time

	// End is the inclusive upper bound of the creation time window.
	End time.Time

	// Output is the rendering format: "table" or "json".
	Output string

	// Writer receives the rendered result; defaults to stdout.
	Writer io.Writer
}

// errUnknownOutput is returned for an unsupported output format.
var errUnknownOutput = errors.New("unknown output format")

// Run queries the alarm history server and renders the result.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	levelName := cfg.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	if err = logger.Configure(levelName); err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-history")

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for the server audit log.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress, common.WithActor(actor))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Querying alarm history",
		"server_address", serverAddress,
		"service", opts.Service,
		"start_time", opts.Start,
		"end_time", opts.End,
	)

	return execute(ctx, client, opts)
}

// execute runs the query against backend and writes the rendered page.
func execute(ctx context.Context, backend history.Backend, opts *Options) error {
	if opts.Output != "" && opts.Output != OutputTable && opts.Output != OutputJSON {
		return fmt.Errorf("%w %q", errUnknownOutput, opts.Output)
	}

	raw := query.RawArguments{
		query.ArgService:   opts.Service,
		query.ArgStartTime: opts.Start,
		query.ArgEndTime:   opts.End,
	}

	columns, page, err := query.Run(ctx, backend, raw)
	if err != nil {
		return err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	return render(w, opts.Output, columns, page)
}

// jsonResult is the JSON rendering of a query result.
type jsonResult struct {
	Columns     []history.Column    `json:"columns"`
	Rows        []history.OutputRow `json:"rows"`
	HasNextPage bool                `json:"has_next_page"`
}

// render writes the page in the requested format.
func render(w io.Writer, format string, columns []history.Column, page *history.Page) error {
	switch format {
	case "", OutputTable:
		renderTable(w, columns, page)

		return nil
	case OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(jsonResult{
			Columns:     columns,
			Rows:        page.Rows,
			HasNextPage: page.HasNextPage,
		})
	default:
		return fmt.Errorf("%w %q", errUnknownOutput, format)
	}
}

// renderTable prints the page as an aligned table, one alarm per line.
func renderTable(w io.Writer, columns []history.Column, page *history.Page) {
	header := make([]string, 0, len(columns))
	for _, column := range columns {
		header = append(header, column.Name)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)

	for i := range page.Rows {
		row := &page.Rows[i]
		table.Append([]string{
			row.ID,
			row.Element,
			row.Parameter,
			row.Value,
			row.Time.Format(time.RFC3339),
			row.Severity,
			row.Owner,
		})
	}

	table.Render()
}
