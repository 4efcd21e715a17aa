package history

import "time"

// ColumnType is the value type of an output column.
type ColumnType string

// Column value types.
const (
	ColumnString   ColumnType = "string"
	ColumnDateTime ColumnType = "datetime"
)

// Column describes one output column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// ArgumentType is the value type of an input argument.
type ArgumentType string

// Argument value types.
const (
	ArgumentString   ArgumentType = "string"
	ArgumentDateTime ArgumentType = "datetime"
)

// Argument describes one input argument the host must supply.
type Argument struct {
	Name     string
	Type     ArgumentType
	Required bool
}

// OutputRow is one materialized alarm.
type OutputRow struct {
	ID        string    `json:"id"`
	Element   string    `json:"element"`
	Parameter string    `json:"parameter"`
	Value     string    `json:"value"`
	Time      time.Time `json:"time"`
	Severity  string    `json:"severity"`
	Owner     string    `json:"owner"`
}

// Cells returns the row values in column order.
func (r *OutputRow) Cells() []any {
	return []any{r.ID, r.Element, r.Parameter, r.Value, r.Time, r.Severity, r.Owner}
}

// Page is a batch of rows handed to the host.
type Page struct {
	Rows        []OutputRow `json:"rows"`
	HasNextPage bool        `json:"has_next_page"`
}

// FetchState is the lifecycle of the single fetch of a query.
type FetchState int32

// Fetch states. Transitions only move forward; the last three are terminal.
const (
	FetchIdle FetchState = iota
	FetchStarted
	FetchPending
	FetchFailed
	FetchEmpty
	FetchReady
)

// String returns the lower-case name of the state.
func (s FetchState) String() string {
	switch s {
	case FetchIdle:
		return "idle"
	case FetchStarted:
		return "started"
	case FetchPending:
		return "pending"
	case FetchFailed:
		return "failed"
	case FetchEmpty:
		return "empty"
	case FetchReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s FetchState) Terminal() bool {
	return s == FetchFailed || s == FetchEmpty || s == FetchReady
}
