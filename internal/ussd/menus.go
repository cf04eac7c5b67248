package ussd

import (
	"fmt"
	"strings"

	"github.com/hospitalquick/platform/internal/accounts"
	"github.com/hospitalquick/platform/internal/booking"
	"github.com/hospitalquick/platform/internal/catalog"
)

// menuRenderer builds the caller-facing menu text. Rendering is pure
// string construction from already-fetched data.
type menuRenderer struct {
	serviceCode  string
	supportPhone string
}

func (m *menuRenderer) main() string {
	return `CON Welcome to Hospital Quick
1. Book appointment with doctor
2. Review historical appointments
3. Specialist doctor
4. Emergency booking`
}

func (m *menuRenderer) accountSelection() string {
	return `CON Book appointment
1. I have an account
2. Create temporary account
0. Back to main menu`
}

func (m *menuRenderer) accountAuth() string {
	return "CON Enter your account PIN:"
}

func (m *menuRenderer) tempAccountType() string {
	return `CON Create temporary account using:
1. Email
2. Phone number
0. Back`
}

func (m *menuRenderer) tempAccountContact(method string) string {
	if method == "email" {
		return "CON Enter your email address:"
	}
	return "CON Enter your phone number:"
}

func (m *menuRenderer) tempAccountCreated(pin string) string {
	return fmt.Sprintf(`END Your temporary account has been created.
This account will be available for 48 hours.
Appointment PIN: %s

For assistance call: %s`, pin, m.supportPhone)
}

func (m *menuRenderer) districts(districts []catalog.District, emergency bool) string {
	var b strings.Builder
	if emergency {
		b.WriteString("CON EMERGENCY BOOKING\nSelect your district:\n")
	} else {
		b.WriteString("CON Select district:\n")
	}
	for i, d := range districts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Name)
	}
	b.WriteString("0. Back")
	return b.String()
}

func (m *menuRenderer) hospitals(districtName string, hospitals []catalog.Hospital) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CON Hospitals in %s:\n", districtName)
	for i, h := range hospitals {
		fmt.Fprintf(&b, "%d. %s (%d free)\n", i+1, h.Name, h.AvailableSlots)
	}
	b.WriteString("0. Back")
	return b.String()
}

func (m *menuRenderer) slots(hospitalName string, slots []catalog.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CON Available appointments at %s:\n", hospitalName)
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, s.Date, s.Time)
	}
	b.WriteString("0. Back")
	return b.String()
}

func (m *menuRenderer) noSlots(hospitalName string) string {
	return fmt.Sprintf("END No available appointments at %s. Please dial %s to try another hospital.", hospitalName, m.serviceCode)
}

func (m *menuRenderer) confirmation(hospitalName, date, timeOfDay string) string {
	return fmt.Sprintf(`CON Confirm appointment:
Hospital: %s
Date: %s
Time: %s

1. Confirm
2. Cancel`, hospitalName, date, timeOfDay)
}

func (m *menuRenderer) bookingSuccess(result booking.Result) string {
	return fmt.Sprintf(`END Appointment confirmed!
Hospital: %s
Date: %s
Time: %s
Reference: %s

You will receive an SMS confirmation shortly.
Thank you for using Hospital Quick.`,
		result.HospitalName, result.Date, result.Time, result.Reference)
}

func (m *menuRenderer) slotTaken() string {
	return fmt.Sprintf("END This appointment slot has just been taken. Please dial %s again and choose another slot.", m.serviceCode)
}

func (m *menuRenderer) slotGone() string {
	return fmt.Sprintf("END This appointment slot is no longer available. Please dial %s to start again.", m.serviceCode)
}

func (m *menuRenderer) bookingCancelled() string {
	return "END Appointment cancelled. Thank you for using Hospital Quick."
}

func (m *menuRenderer) historyAuth() string {
	return "CON To view appointment history\nEnter your PIN:"
}

func (m *menuRenderer) invalidPIN() string {
	return fmt.Sprintf("END Invalid PIN. Please try again by dialing %s.", m.serviceCode)
}

func (m *menuRenderer) history(appointments []accounts.Appointment) string {
	var b strings.Builder
	b.WriteString("CON Your appointments:\n")
	if len(appointments) == 0 {
		b.WriteString("No appointments found.\n")
	}
	for i, a := range appointments {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, a.Date, a.Hospital)
	}
	b.WriteString("0. Back to main menu")
	return b.String()
}

func (m *menuRenderer) appointmentDetails(a accounts.Appointment) string {
	status := a.Status
	if a.IsEmergency {
		status += " (emergency)"
	}
	return fmt.Sprintf(`END Appointment %s
Hospital: %s
Doctor: %s
Date: %s
Time: %s
Status: %s`, a.Reference, a.Hospital, a.Doctor, a.Date, a.Time, status)
}

func (m *menuRenderer) specialistCategories(categories []catalog.Category) string {
	var b strings.Builder
	b.WriteString("CON Select specialist type:\n")
	for i, c := range categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Name)
	}
	b.WriteString("0. Back to main menu")
	return b.String()
}

func (m *menuRenderer) specialists(specialists []catalog.Specialist) string {
	var b strings.Builder
	b.WriteString("CON Select specialist:\n")
	for i, s := range specialists {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, s.Name, s.HospitalName)
	}
	b.WriteString("0. Back")
	return b.String()
}

func (m *menuRenderer) noSpecialists() string {
	return fmt.Sprintf("END No specialists available in this category. Please dial %s to try another one.", m.serviceCode)
}
