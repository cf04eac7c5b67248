package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads catalog data from Postgres.
type Repository struct {
	db Querier
}

// NewRepository creates a catalog repository backed by a pgx pool.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("catalog: querier required")
	}
	return &Repository{db: db}
}

// Districts returns all districts ordered by name.
func (r *Repository) Districts(ctx context.Context) ([]District, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM districts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list districts: %w", err)
	}
	defer rows.Close()

	var districts []District
	for rows.Next() {
		var d District
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan district: %w", err)
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list districts: %w", err)
	}
	return districts, nil
}

// HospitalsByDistrict returns a district's hospitals with their count of
// unbooked future slots, so the menu can show "(k free)" per entry.
func (r *Repository) HospitalsByDistrict(ctx context.Context, districtID string) ([]Hospital, error) {
	rows, err := r.db.Query(ctx, `
		SELECT h.id, h.name,
		       (SELECT COUNT(*) FROM appointment_slots s
		        WHERE s.hospital_id = h.id
		          AND s.is_booked = FALSE
		          AND s.slot_datetime > now()) AS available_slots
		FROM hospitals h
		WHERE h.district_id = $1
		ORDER BY h.name`, districtID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []Hospital
	for rows.Next() {
		var h Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.AvailableSlots); err != nil {
			return nil, fmt.Errorf("catalog: scan hospital: %w", err)
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list hospitals: %w", err)
	}
	return hospitals, nil
}

// AvailableSlots returns up to ten upcoming unbooked slots for a hospital.
// Ten keeps the rendered menu inside a single USSD screen.
func (r *Repository) AvailableSlots(ctx context.Context, hospitalID string) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id,
		       to_char(s.slot_datetime, 'YYYY-MM-DD'),
		       to_char(s.slot_datetime, 'HH24:MI'),
		       s.doctor_id, d.name
		FROM appointment_slots s
		JOIN doctors d ON d.id = s.doctor_id
		WHERE s.hospital_id = $1
		  AND s.is_booked = FALSE
		  AND s.slot_datetime > now()
		ORDER BY s.slot_datetime
		LIMIT 10`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.Date, &s.Time, &s.DoctorID, &s.DoctorName); err != nil {
			return nil, fmt.Errorf("catalog: scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list slots: %w", err)
	}
	return slots, nil
}

// SpecialistCategories returns all specialist categories ordered by name.
func (r *Repository) SpecialistCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM specialist_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return categories, nil
}

// SpecialistsByCategory returns a category's doctors with their hospital.
func (r *Repository) SpecialistsByCategory(ctx context.Context, categoryID string) ([]Specialist, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.name, h.id, h.name
		FROM doctors d
		JOIN hospitals h ON h.id = d.hospital_id
		WHERE d.specialist_category_id = $1
		ORDER BY d.name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list specialists: %w", err)
	}
	defer rows.Close()

	var specialists []Specialist
	for rows.Next() {
		var sp Specialist
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.HospitalID, &sp.HospitalName); err != nil {
			return nil, fmt.Errorf("catalog: scan specialist: %w", err)
		}
		specialists = append(specialists, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list specialists: %w", err)
	}
	return specialists, nil
}
