// Package ussd implements the menu state machine behind the USSD gateway.
// Each round trip carries one input token; the engine decides the next
// prompt from (current state, input, accumulated session data) alone.
package ussd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hospitalquick/platform/internal/accounts"
	"github.com/hospitalquick/platform/internal/booking"
	"github.com/hospitalquick/platform/internal/catalog"
	"github.com/hospitalquick/platform/internal/session"
	"github.com/hospitalquick/platform/pkg/logging"
)

// Menu states. Every session's CurrentMenu is one of these.
const (
	StateMain                    = session.StateMain
	StateAccountSelection        = "account_selection"
	StateAccountAuth             = "account_auth"
	StateTempAccountCreation     = "temp_account_creation"
	StateTempAccountContact      = "temp_account_contact"
	StateDistrictSelection       = "district_selection"
	StateHospitalSelection       = "hospital_selection"
	StateAppointmentSlots        = "appointment_slots"
	StateAppointmentConfirmation = "appointment_confirmation"
	StateHistory                 = "history"
	StateHistoryList             = "history_list"
	StateSpecialistSelection     = "specialist_selection"
	StateSpecialistList          = "specialist_list"
	StateEmergencyBooking        = "emergency_booking"
)

// Session data keys. Values accumulated in earlier states are read-only
// for later ones.
const (
	keyFlow          = "flow"
	keyHasAccount    = "hasAccount"
	keyAuthenticated = "authenticated"
	keyUserID        = "userID"
	keyContactMethod = "contactMethod"
	keyDistrictID    = "districtID"
	keyDistrictName  = "districtName"
	keyHospitalID    = "hospitalID"
	keyHospitalName  = "hospitalName"
	keySlotID        = "slotID"
	keySlotDate      = "slotDate"
	keySlotTime      = "slotTime"
	keyDoctorName    = "doctorName"
	keyCategoryID    = "categoryID"
	keyDoctorID      = "doctorID"

	// Rendered option lists, so a numbered reply can be mapped back to the
	// entity it referred to without re-deriving the earlier menu.
	keyDistrictOptions  = "districtOptions"
	keyDistrictNames    = "districtNames"
	keyHospitalOptions  = "hospitalOptions"
	keyHospitalNames    = "hospitalNames"
	keySlotOptions      = "slotOptions"
	keySlotDates        = "slotDates"
	keySlotTimes        = "slotTimes"
	keySlotDoctors      = "slotDoctors"
	keyCategoryOptions  = "categoryOptions"
	keySpecialistIDs    = "specialistIDs"
	keySpecialistHosps  = "specialistHospitals"
	keySpecialistHNames = "specialistHospitalNames"
	keyApptOptions      = "apptOptions"
)

// Flow names stored under keyFlow.
const (
	flowBooking    = "book_appointment"
	flowHistory    = "history"
	flowSpecialist = "specialist"
	flowEmergency  = "emergency"
)

// StepResult is the engine's decision for one round trip.
type StepResult struct {
	// Response is the full gateway reply including the CON/END marker.
	Response string
	// NextState is persisted as the session's menu state when the flow
	// continues.
	NextState string
	// DataPatch is merged into the session data; existing keys not named
	// here are retained.
	DataPatch map[string]string
	// Terminal marks an END response: the session is done and should be
	// terminated rather than persisted.
	Terminal bool
}

// Booker reserves a confirmed slot selection.
type Booker interface {
	Reserve(ctx context.Context, userID, slotID string, isEmergency bool) (booking.Result, error)
}

type stepFunc func(ctx context.Context, input string, sess *session.Session) (StepResult, error)

// Engine walks callers through the menu graph. Transitions are registered
// in a state table so the full graph stays introspectable.
type Engine struct {
	catalog  catalog.Lookup
	accounts accounts.Gateway
	booker   Booker
	menus    *menuRenderer
	logger   *logging.Logger
	handlers map[string]stepFunc
}

// NewEngine creates the menu engine. serviceCode and supportPhone appear
// in caller-facing copy.
func NewEngine(cat catalog.Lookup, acc accounts.Gateway, booker Booker, serviceCode, supportPhone string, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		catalog:  cat,
		accounts: acc,
		booker:   booker,
		menus:    &menuRenderer{serviceCode: serviceCode, supportPhone: supportPhone},
		logger:   logger,
	}
	e.handlers = map[string]stepFunc{
		StateMain:                    e.stepMain,
		StateAccountSelection:        e.stepAccountSelection,
		StateAccountAuth:             e.stepAccountAuth,
		StateTempAccountCreation:     e.stepTempAccountCreation,
		StateTempAccountContact:      e.stepTempAccountContact,
		StateDistrictSelection:       e.stepDistrictSelection,
		StateHospitalSelection:       e.stepHospitalSelection,
		StateAppointmentSlots:        e.stepAppointmentSlots,
		StateAppointmentConfirmation: e.stepAppointmentConfirmation,
		StateHistory:                 e.stepHistory,
		StateHistoryList:             e.stepHistoryList,
		StateSpecialistSelection:     e.stepSpecialistSelection,
		StateSpecialistList:          e.stepSpecialistList,
		StateEmergencyBooking:        e.stepEmergencyBooking,
	}
	return e
}

// States lists every registered menu state.
func (e *Engine) States() []string {
	states := make([]string, 0, len(e.handlers))
	for s := range e.handlers {
		states = append(states, s)
	}
	return states
}

// Step runs one transition. Invalid caller input is data: it yields a
// terminal StepResult and a nil error. A returned error always means a
// collaborator fault the request boundary must surface generically.
func (e *Engine) Step(ctx context.Context, state, input string, sess *session.Session) (StepResult, error) {
	handler, ok := e.handlers[state]
	if !ok {
		// A session can only get here through store corruption; reset.
		e.logger.Warn("unknown menu state", "state", state, "session_id", sess.ID)
		return StepResult{
			Response:  fmt.Sprintf("END Invalid menu state. Please dial %s to start again.", e.menus.serviceCode),
			NextState: StateMain,
			Terminal:  true,
		}, nil
	}

	result, err := handler(ctx, strings.TrimSpace(input), sess)
	if err != nil {
		return StepResult{}, fmt.Errorf("ussd: step %s: %w", state, err)
	}
	if result.DataPatch == nil {
		result.DataPatch = map[string]string{}
	}
	return result, nil
}

// invalidOption is the uniform reply to input outside a state's accepted
// set. The flow logically restarts even though the session record may
// linger until eviction.
func (e *Engine) invalidOption() StepResult {
	return StepResult{
		Response:  fmt.Sprintf("END Invalid option. Please try again by dialing %s.", e.menus.serviceCode),
		NextState: StateMain,
		Terminal:  true,
	}
}

// chooseOption maps a numbered reply onto the option list rendered by the
// previous step.
func chooseOption(input string, options []string) (string, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(options) {
		return "", false
	}
	return options[n-1], true
}

// joinIDs/splitIDs encode option lists into session data values.
func joinIDs(ids []string) string { return strings.Join(ids, "|") }

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}
