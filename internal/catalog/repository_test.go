package catalog

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestDistricts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, name FROM districts").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow("d-1", "Kigali").
			AddRow("d-2", "Rusizi District"))

	repo := NewRepository(mock)
	districts, err := repo.Districts(context.Background())
	if err != nil {
		t.Fatalf("Districts: %v", err)
	}
	if len(districts) != 2 {
		t.Fatalf("expected 2 districts, got %d", len(districts))
	}
	if districts[0].Name != "Kigali" {
		t.Errorf("expected Kigali first, got %s", districts[0].Name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHospitalsByDistrictCarriesSlotCounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM hospitals h").
		WithArgs("d-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "available_slots"}).
			AddRow("h-1", "King Faisal Hospital", 4).
			AddRow("h-2", "CHUK", 0))

	repo := NewRepository(mock)
	hospitals, err := repo.HospitalsByDistrict(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("HospitalsByDistrict: %v", err)
	}
	if len(hospitals) != 2 {
		t.Fatalf("expected 2 hospitals, got %d", len(hospitals))
	}
	if hospitals[0].AvailableSlots != 4 {
		t.Errorf("expected 4 free slots, got %d", hospitals[0].AvailableSlots)
	}
}

func TestAvailableSlots(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM appointment_slots s").
		WithArgs("h-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "date", "time", "doctor_id", "name"}).
			AddRow("s-1", "2026-09-01", "09:00", "doc-1", "Dr. Uwimana"))

	repo := NewRepository(mock)
	slots, err := repo.AvailableSlots(context.Background(), "h-1")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Date != "2026-09-01" || slots[0].Time != "09:00" {
		t.Errorf("unexpected slot rendering fields: %+v", slots[0])
	}
	if slots[0].DoctorName != "Dr. Uwimana" {
		t.Errorf("unexpected doctor name: %s", slots[0].DoctorName)
	}
}

func TestSpecialistsByCategory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM doctors d").
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "hid", "hname"}).
			AddRow("doc-2", "Dr. Mukamana", "h-2", "CHUK"))

	repo := NewRepository(mock)
	specialists, err := repo.SpecialistsByCategory(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("SpecialistsByCategory: %v", err)
	}
	if len(specialists) != 1 {
		t.Fatalf("expected 1 specialist, got %d", len(specialists))
	}
	if specialists[0].HospitalName != "CHUK" {
		t.Errorf("unexpected hospital: %s", specialists[0].HospitalName)
	}
}

func TestQueryFaultPropagates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, name FROM specialist_categories").
		WillReturnError(errors.New("connection refused"))

	repo := NewRepository(mock)
	if _, err := repo.SpecialistCategories(context.Background()); err == nil {
		t.Fatal("expected a collaborator fault, got nil")
	}
}
