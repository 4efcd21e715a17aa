package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-history/internal/config"
	domain "github.com/oshokin/alarm-history/internal/domain/history"
)

// ErrNotFound is returned when the records file does not exist.
var ErrNotFound = errors.New("records file not found")

// Table names a record may belong to in the records file.
const (
	tableAlarm       = "alarm"
	tableInformation = "information"
)

// FileRepository serves historical alarms from a YAML file on disk.
// The file is read on every fetch, so edits are visible without a restart.
type FileRepository struct {
	// path is the filesystem location of the records file.
	path string
	// mu serializes access to the file.
	mu sync.Mutex
}

var _ domain.Backend = (*FileRepository)(nil)

// recordsFile is the on-disk layout.
type recordsFile struct {
	Alarms []fileRecord `yaml:"alarms"`
}

// fileRecord is one alarm in the records file.
type fileRecord struct {
	DeviceID  int       `yaml:"device_id"`
	AlarmID   int       `yaml:"alarm_id"`
	Element   string    `yaml:"element"`
	Parameter string    `yaml:"parameter"`
	Value     string    `yaml:"value"`
	Time      time.Time `yaml:"time"`
	Severity  string    `yaml:"severity"`
	Owner     string    `yaml:"owner,omitempty"`
	Service   string    `yaml:"service"`
	// Table is "alarm" (default) or "information".
	Table string `yaml:"table,omitempty"`
}

// NewFileRepository creates a repository reading records at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// FetchHistoricalAlarms returns the alarm-table records whose service name
// matches the filter pattern and whose time lies in the window, in file order.
func (r *FileRepository) FetchHistoricalAlarms(_ context.Context, filter domain.FetchFilter) ([]domain.AlarmRecord, error) {
	records, err := r.load()
	if err != nil {
		return nil, err
	}

	result := make([]domain.AlarmRecord, 0, len(records))

	for _, rec := range records {
		if filter.Scope == domain.ScopeAlarmTable && rec.Table != "" && rec.Table != tableAlarm {
			continue
		}

		if !filter.Contains(rec.Time) || !domain.MatchWildcard(filter.ServicePattern, rec.Service) {
			continue
		}

		result = append(result, fromFileRecord(&rec))
	}

	return result, nil
}

// Save replaces the records file with the provided alarm-table records.
func (r *FileRepository) Save(_ context.Context, records []domain.AlarmRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file := recordsFile{
		Alarms: make([]fileRecord, 0, len(records)),
	}

	for i := range records {
		file.Alarms = append(file.Alarms, toFileRecord(&records[i]))
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write records file: %w", err)
	}

	return nil
}

// load reads and decodes the records file.
func (r *FileRepository) load() ([]fileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read records file: %w", err)
	}

	var file recordsFile
	if err = yaml.Unmarshal(contents, &file); err != nil {
		return nil, fmt.Errorf("decode records file: %w", err)
	}

	for i := range file.Alarms {
		switch file.Alarms[i].Table {
		case "", tableAlarm, tableInformation:
		default:
			return nil, fmt.Errorf("decode records file: unknown table %q", file.Alarms[i].Table)
		}
	}

	return file.Alarms, nil
}

// fromFileRecord converts a file record into the domain model.
func fromFileRecord(rec *fileRecord) domain.AlarmRecord {
	return domain.AlarmRecord{
		DeviceID:      rec.DeviceID,
		AlarmID:       rec.AlarmID,
		ElementName:   rec.Element,
		ParameterName: rec.Parameter,
		DisplayValue:  rec.Value,
		CreationTime:  rec.Time,
		Severity:      rec.Severity,
		Owner:         rec.Owner,
		ServiceName:   rec.Service,
	}
}

// toFileRecord converts the domain model into a file record.
func toFileRecord(rec *domain.AlarmRecord) fileRecord {
	return fileRecord{
		DeviceID:  rec.DeviceID,
		AlarmID:   rec.AlarmID,
		Element:   rec.ElementName,
		Parameter: rec.ParameterName,
		Value:     rec.DisplayValue,
		Time:      rec.CreationTime,
		Severity:  rec.Severity,
		Owner:     rec.Owner,
		Service:   rec.ServiceName,
		Table:     tableAlarm,
	}
}
