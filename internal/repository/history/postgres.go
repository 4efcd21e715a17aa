package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" database/sql driver.
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"

	domain "github.com/oshokin/alarm-history/internal/domain/history"
)

// PostgresRepository serves historical alarms from the alarm_history table.
type PostgresRepository struct {
	db *sqlx.DB
}

var _ domain.Backend = (*PostgresRepository)(nil)

// NewPostgresRepository wraps an open database handle.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Connect opens a PostgreSQL handle, checks it and applies migrations.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err = migrate.Exec(db.DB, "postgres", Migration(), migrate.Up); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}

// Migration returns the schema of the historical alarm store.
func Migration() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "alarm_history_01",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS alarm_history (
						device_id		INTEGER NOT NULL,
						alarm_id		INTEGER NOT NULL,
						element_name	TEXT NOT NULL,
						parameter_name	TEXT NOT NULL DEFAULT '',
						display_value	TEXT NOT NULL DEFAULT '',
						created_at		TIMESTAMPTZ NOT NULL,
						severity		VARCHAR(64) NOT NULL,
						owner			VARCHAR(254) NOT NULL DEFAULT '',
						service_name	TEXT NOT NULL DEFAULT '',
						alarm_table		BOOLEAN NOT NULL DEFAULT TRUE,
						PRIMARY KEY (device_id, alarm_id, created_at)
					);`,
					`CREATE INDEX IF NOT EXISTS alarm_history_created_at_idx ON alarm_history (created_at);`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS alarm_history`,
				},
			},
		},
	}
}

// dbAlarm is the row layout of alarm_history.
type dbAlarm struct {
	DeviceID      int       `db:"device_id"`
	AlarmID       int       `db:"alarm_id"`
	ElementName   string    `db:"element_name"`
	ParameterName string    `db:"parameter_name"`
	DisplayValue  string    `db:"display_value"`
	CreatedAt     time.Time `db:"created_at"`
	Severity      string    `db:"severity"`
	Owner         string    `db:"owner"`
	ServiceName   string    `db:"service_name"`
	AlarmTable    bool      `db:"alarm_table"`
}

// FetchHistoricalAlarms selects matching alarms ordered by creation time.
func (r *PostgresRepository) FetchHistoricalAlarms(
	ctx context.Context,
	filter domain.FetchFilter,
) ([]domain.AlarmRecord, error) {
	conditions := []string{
		`service_name LIKE :pattern ESCAPE '\'`,
		"created_at >= :start_time",
		"created_at <= :end_time",
	}

	if filter.Scope == domain.ScopeAlarmTable {
		conditions = append(conditions, "alarm_table")
	}

	q := fmt.Sprintf(`SELECT device_id, alarm_id, element_name, parameter_name, display_value,
			created_at, severity, owner, service_name, alarm_table
		FROM alarm_history WHERE %s
		ORDER BY created_at, device_id, alarm_id;`, strings.Join(conditions, " AND "))

	params := map[string]any{
		"pattern":    LikePattern(filter.ServicePattern),
		"start_time": filter.StartTime,
		"end_time":   filter.EndTime,
	}

	rows, err := r.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, fmt.Errorf("query alarm history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AlarmRecord, 0)

	for rows.Next() {
		var row dbAlarm
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan alarm history: %w", err)
		}

		records = append(records, toAlarmRecord(&row))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alarm history: %w", err)
	}

	return records, nil
}

// Save inserts alarm-table records in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, records []domain.AlarmRecord) error {
	return r.insert(ctx, records, true)
}

// insert writes records into either the alarm table or the information events.
func (r *PostgresRepository) insert(ctx context.Context, records []domain.AlarmRecord, alarmTable bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	q := `INSERT INTO alarm_history (device_id, alarm_id, element_name, parameter_name, display_value,
			created_at, severity, owner, service_name, alarm_table)
		VALUES (:device_id, :alarm_id, :element_name, :parameter_name, :display_value,
			:created_at, :severity, :owner, :service_name, :alarm_table);`

	for i := range records {
		if _, err := tx.NamedExecContext(ctx, q, toDBAlarm(&records[i], alarmTable)); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("insert alarm %s: %w", records[i].Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// LikePattern translates a '*'/'?' wildcard pattern into a LIKE pattern,
// escaping LIKE metacharacters that appear literally.
func LikePattern(wildcard string) string {
	var b strings.Builder

	b.Grow(len(wildcard) + 4)

	for _, r := range wildcard {
		switch r {
		case '\\', '%', '_':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '*':
			b.WriteRune('%')
		case '?':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// toAlarmRecord converts a database row into the domain model.
func toAlarmRecord(row *dbAlarm) domain.AlarmRecord {
	return domain.AlarmRecord{
		DeviceID:      row.DeviceID,
		AlarmID:       row.AlarmID,
		ElementName:   row.ElementName,
		ParameterName: row.ParameterName,
		DisplayValue:  row.DisplayValue,
		CreationTime:  row.CreatedAt,
		Severity:      row.Severity,
		Owner:         row.Owner,
		ServiceName:   row.ServiceName,
	}
}

// toDBAlarm converts the domain model into a database row.
func toDBAlarm(rec *domain.AlarmRecord, alarmTable bool) dbAlarm {
	return dbAlarm{
		DeviceID:      rec.DeviceID,
		AlarmID:       rec.AlarmID,
		ElementName:   rec.ElementName,
		ParameterName: rec.ParameterName,
		DisplayValue:  rec.DisplayValue,
		CreatedAt:     rec.CreationTime,
		Severity:      rec.Severity,
		Owner:         rec.Owner,
		ServiceName:   rec.ServiceName,
		AlarmTable:    alarmTable,
	}
}
