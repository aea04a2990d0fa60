package mysql

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"CarrierDesk/internal/calllog"
	xerrors "CarrierDesk/internal/errors"
)

const callLogColumns = `call_id, load_id, call_started_at, sentiment, outcome,
notes, created_at, updated_at`

// CallLogStore is the MySQL-backed calllog.Store.
type CallLogStore struct {
	db *sql.DB
}

// NewCallLogStore binds a store to the shared handle.
func NewCallLogStore(handle *DB) *CallLogStore {
	return &CallLogStore{db: handle.db}
}

// Create implements calllog.Store.
func (s *CallLogStore) Create(ctx context.Context, record *calllog.CallLog) error {
	if err := record.Validate(); err != nil {
		return err
	}
	now := time.Now().Unix()
	createdAt := record.CreatedAt
	if createdAt == 0 {
		createdAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_logs (`+callLogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.CallID, nullString(record.LoadID), record.CallStartedAt,
		nullString(record.Sentiment), nullString(record.Outcome),
		nullString(record.Notes), createdAt, now,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return calllog.ErrCallLogConflict
		}
		return wrapCallLogError(err, "failed to insert call log %s", record.CallID)
	}
	return nil
}

// Get implements calllog.Store.
func (s *CallLogStore) Get(ctx context.Context, callID string) (*calllog.CallLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+callLogColumns+` FROM call_logs WHERE call_id = ?`, callID)
	record, err := scanCallLog(row)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, calllog.ErrCallLogNotFound
		}
		return nil, wrapCallLogError(err, "failed to read call log %s", callID)
	}
	return record, nil
}

// List implements calllog.Store.
func (s *CallLogStore) List(ctx context.Context, opts ...calllog.ListOption) ([]*calllog.CallLog, error) {
	options := calllog.ListOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.Limit <= 0 {
		options.Limit = 20
	}
	if options.Limit > 100 {
		options.Limit = 100
	}
	if options.Offset < 0 {
		options.Offset = 0
	}

	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE 1 = 1`
	var args []any
	if loadID := strings.TrimSpace(options.LoadID); loadID != "" {
		query += ` AND load_id = ?`
		args = append(args, loadID)
	}
	if sentiment := strings.TrimSpace(options.Sentiment); sentiment != "" {
		query += ` AND LOWER(sentiment) = ?`
		args = append(args, strings.ToLower(sentiment))
	}
	if outcome := strings.TrimSpace(options.Outcome); outcome != "" {
		query += ` AND LOWER(outcome) = ?`
		args = append(args, strings.ToLower(outcome))
	}
	if options.Order == calllog.SortByStartedAsc {
		query += ` ORDER BY call_started_at ASC, call_id ASC`
	} else {
		query += ` ORDER BY call_started_at DESC, call_id ASC`
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, options.Limit, options.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapCallLogError(err, "failed to list call logs")
	}
	defer rows.Close()

	var results []*calllog.CallLog
	for rows.Next() {
		record, err := scanCallLog(rows)
		if err != nil {
			return nil, wrapCallLogError(err, "failed to scan call log row")
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapCallLogError(err, "failed to iterate call log rows")
	}
	return results, nil
}

// Update implements calllog.Store.
func (s *CallLogStore) Update(ctx context.Context, record *calllog.CallLog) error {
	if err := record.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE call_logs SET load_id = ?, call_started_at = ?, sentiment = ?,
outcome = ?, notes = ?, updated_at = ? WHERE call_id = ?`,
		nullString(record.LoadID), record.CallStartedAt, nullString(record.Sentiment),
		nullString(record.Outcome), nullString(record.Notes), time.Now().Unix(),
		record.CallID,
	)
	if err != nil {
		return wrapCallLogError(err, "failed to update call log %s", record.CallID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapCallLogError(err, "failed to confirm update of call log %s", record.CallID)
	}
	if affected == 0 {
		var one int
		if err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM call_logs WHERE call_id = ?`, record.CallID).Scan(&one); err != nil {
			if stdErrors.Is(err, sql.ErrNoRows) {
				return calllog.ErrCallLogNotFound
			}
			return wrapCallLogError(err, "failed to confirm call log %s exists", record.CallID)
		}
	}
	return nil
}

// Delete implements calllog.Store.
func (s *CallLogStore) Delete(ctx context.Context, callID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM call_logs WHERE call_id = ?`, callID)
	if err != nil {
		return wrapCallLogError(err, "failed to delete call log %s", callID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapCallLogError(err, "failed to confirm deletion of call log %s", callID)
	}
	if affected == 0 {
		return calllog.ErrCallLogNotFound
	}
	return nil
}

// Close is a no-op; the shared handle owns the pool.
func (s *CallLogStore) Close() error {
	return nil
}

func scanCallLog(row rowScanner) (*calllog.CallLog, error) {
	var (
		record    calllog.CallLog
		loadID    sql.NullString
		sentiment sql.NullString
		outcome   sql.NullString
		notes     sql.NullString
	)
	err := row.Scan(
		&record.CallID, &loadID, &record.CallStartedAt, &sentiment, &outcome,
		&notes, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.LoadID = loadID.String
	record.Sentiment = sentiment.String
	record.Outcome = outcome.String
	record.Notes = notes.String
	return &record, nil
}

func isDuplicateKey(err error) bool {
	var driverErr *driver.MySQLError
	return stdErrors.As(err, &driverErr) && driverErr.Number == 1062
}

func wrapCallLogError(err error, format string, args ...any) error {
	return xerrors.Wrap(calllog.CodeCallLogStorage, err, fmt.Sprintf(format, args...))
}

var _ calllog.Store = (*CallLogStore)(nil)
