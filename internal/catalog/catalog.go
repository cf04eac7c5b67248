// Package catalog exposes the read-only reference data the USSD menus are
// built from: districts, hospitals, bookable slots and specialists.
package catalog

import "context"

// District is an administrative region hospitals are grouped under.
type District struct {
	ID   string
	Name string
}

// Hospital carries the free-slot count shown next to its menu entry.
type Hospital struct {
	ID             string
	Name           string
	AvailableSlots int
}

// Slot is an unbooked (hospital, doctor, date-time) unit offered to callers.
type Slot struct {
	ID         string
	Date       string
	Time       string
	DoctorID   string
	DoctorName string
}

// Category groups specialist doctors (cardiology, dermatology, ...).
type Category struct {
	ID   string
	Name string
}

// Specialist is a doctor listed under a category together with the
// hospital they practice at.
type Specialist struct {
	ID           string
	Name         string
	HospitalID   string
	HospitalName string
}

// Lookup is the read-only catalog interface the menu engine depends on.
type Lookup interface {
	Districts(ctx context.Context) ([]District, error)
	HospitalsByDistrict(ctx context.Context, districtID string) ([]Hospital, error)
	AvailableSlots(ctx context.Context, hospitalID string) ([]Slot, error)
	SpecialistCategories(ctx context.Context) ([]Category, error)
	SpecialistsByCategory(ctx context.Context, categoryID string) ([]Specialist, error)
}
