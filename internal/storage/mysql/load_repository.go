package mysql

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"strings"

	xerrors "CarrierDesk/internal/errors"
	"CarrierDesk/internal/load"
)

const loadColumns = `load_id, load_booked, origin, destination, pickup_datetime,
delivery_datetime, equipment_type, loadboard_rate, notes, weight,
commodity_type, num_of_pieces, miles, dimensions`

// LoadRepository is the MySQL-backed load.Repository.
type LoadRepository struct {
	db *sql.DB
}

// NewLoadRepository binds a repository to the shared handle.
func NewLoadRepository(handle *DB) *LoadRepository {
	return &LoadRepository{db: handle.db}
}

// Put implements load.Repository with an upsert.
func (r *LoadRepository) Put(ctx context.Context, l *load.Load) error {
	if l == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "load cannot be nil")
	}
	if strings.TrimSpace(l.LoadID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "load_id cannot be empty")
	}
	booked := l.LoadBooked
	if booked == "" {
		booked = load.BookedNo
	}
	query := `INSERT INTO loads (` + loadColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    load_booked = VALUES(load_booked),
    origin = VALUES(origin),
    destination = VALUES(destination),
    pickup_datetime = VALUES(pickup_datetime),
    delivery_datetime = VALUES(delivery_datetime),
    equipment_type = VALUES(equipment_type),
    loadboard_rate = VALUES(loadboard_rate),
    notes = VALUES(notes),
    weight = VALUES(weight),
    commodity_type = VALUES(commodity_type),
    num_of_pieces = VALUES(num_of_pieces),
    miles = VALUES(miles),
    dimensions = VALUES(dimensions)`
	_, err := r.db.ExecContext(ctx, query,
		l.LoadID, booked, l.Origin, l.Destination, l.PickupDatetime,
		l.DeliveryDatetime, l.EquipmentType, l.LoadboardRate, nullString(l.Notes), l.Weight,
		nullString(l.CommodityType), l.NumOfPieces, l.Miles, nullString(l.Dimensions),
	)
	if err != nil {
		return xerrors.Wrap(load.CodeLoadStorageFailure, err,
			fmt.Sprintf("failed to upsert load %s", l.LoadID))
	}
	return nil
}

// Get implements load.Repository.
func (r *LoadRepository) Get(ctx context.Context, loadID string) (*load.Load, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loadColumns+` FROM loads WHERE load_id = ?`, loadID)
	record, err := scanLoad(row)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, load.ErrLoadNotFound
		}
		return nil, xerrors.Wrap(load.CodeLoadStorageFailure, err,
			fmt.Sprintf("failed to read load %s", loadID))
	}
	return record, nil
}

// Search implements load.Repository. Filters translate to case-insensitive
// LIKE matches and only unbooked loads are returned.
func (r *LoadRepository) Search(ctx context.Context, origin, destination, equipmentType string) ([]*load.Load, error) {
	query := `SELECT ` + loadColumns + ` FROM loads WHERE load_booked = ?`
	args := []any{load.BookedNo}
	for _, filter := range []struct {
		column string
		value  string
	}{
		{column: "origin", value: origin},
		{column: "destination", value: destination},
		{column: "equipment_type", value: equipmentType},
	} {
		if strings.TrimSpace(filter.value) == "" {
			continue
		}
		query += ` AND LOWER(` + filter.column + `) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.value)+"%")
	}
	query += ` ORDER BY load_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Wrap(load.CodeLoadStorageFailure, err, "failed to search loads")
	}
	defer rows.Close()

	var results []*load.Load
	for rows.Next() {
		record, err := scanLoad(rows)
		if err != nil {
			return nil, xerrors.Wrap(load.CodeLoadStorageFailure, err, "failed to scan load row")
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(load.CodeLoadStorageFailure, err, "failed to iterate load rows")
	}
	return results, nil
}

// SetBooked implements load.Repository.
func (r *LoadRepository) SetBooked(ctx context.Context, loadID string, booked bool) error {
	flag := load.BookedNo
	if booked {
		flag = load.BookedYes
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE loads SET load_booked = ? WHERE load_id = ?`, flag, loadID)
	if err != nil {
		return xerrors.Wrap(load.CodeLoadStorageFailure, err,
			fmt.Sprintf("failed to update booking flag for load %s", loadID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return xerrors.Wrap(load.CodeLoadStorageFailure, err,
			fmt.Sprintf("failed to confirm booking update for load %s", loadID))
	}
	if affected == 0 {
		// Zero rows also happens when the flag already holds the target
		// value, so confirm the load exists before reporting not found.
		var one int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM loads WHERE load_id = ?`, loadID).Scan(&one); err != nil {
			if stdErrors.Is(err, sql.ErrNoRows) {
				return load.ErrLoadNotFound
			}
			return xerrors.Wrap(load.CodeLoadStorageFailure, err,
				fmt.Sprintf("failed to confirm load %s exists", loadID))
		}
	}
	return nil
}

// Close is a no-op; the shared handle owns the pool.
func (r *LoadRepository) Close() error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoad(row rowScanner) (*load.Load, error) {
	var (
		record    load.Load
		pickup    sql.NullTime
		delivery  sql.NullTime
		rate      sql.NullFloat64
		notes     sql.NullString
		weight    sql.NullInt64
		commodity sql.NullString
		pieces    sql.NullInt64
		miles     sql.NullInt64
		dims      sql.NullString
	)
	err := row.Scan(
		&record.LoadID, &record.LoadBooked, &record.Origin, &record.Destination, &pickup,
		&delivery, &record.EquipmentType, &rate, &notes, &weight,
		&commodity, &pieces, &miles, &dims,
	)
	if err != nil {
		return nil, err
	}
	if pickup.Valid {
		t := pickup.Time
		record.PickupDatetime = &t
	}
	if delivery.Valid {
		t := delivery.Time
		record.DeliveryDatetime = &t
	}
	if rate.Valid {
		v := rate.Float64
		record.LoadboardRate = &v
	}
	record.Notes = notes.String
	if weight.Valid {
		v := int(weight.Int64)
		record.Weight = &v
	}
	record.CommodityType = commodity.String
	if pieces.Valid {
		v := int(pieces.Int64)
		record.NumOfPieces = &v
	}
	if miles.Valid {
		v := int(miles.Int64)
		record.Miles = &v
	}
	record.Dimensions = dims.String
	return &record, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

var _ load.Repository = (*LoadRepository)(nil)
