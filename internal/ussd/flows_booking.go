package ussd

import (
	"context"

	"github.com/hospitalquick/platform/internal/accounts"
	"github.com/hospitalquick/platform/internal/booking"
	"github.com/hospitalquick/platform/internal/session"
)

func (e *Engine) stepMain(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	switch input {
	case "":
		// First round trip of a dial.
		return StepResult{Response: e.menus.main(), NextState: StateMain}, nil
	case "1":
		return StepResult{
			Response:  e.menus.accountSelection(),
			NextState: StateAccountSelection,
			DataPatch: map[string]string{keyFlow: flowBooking},
		}, nil
	case "2":
		return StepResult{
			Response:  e.menus.historyAuth(),
			NextState: StateHistory,
			DataPatch: map[string]string{keyFlow: flowHistory},
		}, nil
	case "3":
		menu, patch, err := e.renderCategoryMenu(ctx)
		if err != nil {
			return StepResult{}, err
		}
		patch[keyFlow] = flowSpecialist
		return StepResult{Response: menu, NextState: StateSpecialistSelection, DataPatch: patch}, nil
	case "4":
		menu, patch, err := e.renderDistrictMenu(ctx, true)
		if err != nil {
			return StepResult{}, err
		}
		patch[keyFlow] = flowEmergency
		return StepResult{Response: menu, NextState: StateEmergencyBooking, DataPatch: patch}, nil
	default:
		return e.invalidOption(), nil
	}
}

func (e *Engine) stepAccountSelection(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	switch input {
	case "1":
		return StepResult{
			Response:  e.menus.accountAuth(),
			NextState: StateAccountAuth,
			DataPatch: map[string]string{keyHasAccount: "true"},
		}, nil
	case "2":
		return StepResult{
			Response:  e.menus.tempAccountType(),
			NextState: StateTempAccountCreation,
			DataPatch: map[string]string{keyHasAccount: "false"},
		}, nil
	case "0":
		return StepResult{Response: e.menus.main(), NextState: StateMain}, nil
	default:
		return e.invalidOption(), nil
	}
}

// stepAccountAuth consumes the PIN. After a successful check the flow
// resumes where it was headed: straight to the slot list when a
// specialist's hospital is already chosen, otherwise to district
// selection.
func (e *Engine) stepAccountAuth(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "" {
		return e.invalidOption(), nil
	}

	verification, err := e.accounts.VerifyCredentials(ctx, sess.PhoneNumber, input)
	if err != nil {
		return StepResult{}, err
	}
	if !verification.Success {
		return StepResult{Response: e.menus.invalidPIN(), NextState: StateMain, Terminal: true}, nil
	}

	patch := map[string]string{
		keyUserID:        verification.UserID,
		keyAuthenticated: "true",
	}

	if hospitalID := sess.Data[keyHospitalID]; hospitalID != "" {
		menu, slotPatch, hasSlots, err := e.renderSlotMenu(ctx, hospitalID, sess.Data[keyHospitalName])
		if err != nil {
			return StepResult{}, err
		}
		if !hasSlots {
			return StepResult{Response: menu, NextState: StateMain, Terminal: true}, nil
		}
		for k, v := range slotPatch {
			patch[k] = v
		}
		return StepResult{Response: menu, NextState: StateAppointmentSlots, DataPatch: patch}, nil
	}

	menu, districtPatch, err := e.renderDistrictMenu(ctx, false)
	if err != nil {
		return StepResult{}, err
	}
	for k, v := range districtPatch {
		patch[k] = v
	}
	return StepResult{Response: menu, NextState: StateDistrictSelection, DataPatch: patch}, nil
}

func (e *Engine) stepTempAccountCreation(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	switch input {
	case "1":
		return StepResult{
			Response:  e.menus.tempAccountContact("email"),
			NextState: StateTempAccountContact,
			DataPatch: map[string]string{keyContactMethod: "email"},
		}, nil
	case "2":
		return StepResult{
			Response:  e.menus.tempAccountContact("phone"),
			NextState: StateTempAccountContact,
			DataPatch: map[string]string{keyContactMethod: "phone"},
		}, nil
	case "0":
		return StepResult{Response: e.menus.accountSelection(), NextState: StateAccountSelection}, nil
	default:
		return e.invalidOption(), nil
	}
}

// stepTempAccountContact creates the account and ends the call; the
// caller dials again and authenticates with the texted PIN.
func (e *Engine) stepTempAccountContact(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "" {
		return e.invalidOption(), nil
	}

	account, err := e.accounts.CreateTemporaryAccount(ctx, accounts.TempAccountDetails{
		PhoneNumber: sess.PhoneNumber,
		Contact:     input,
		Method:      sess.Data[keyContactMethod],
	})
	if err != nil {
		return StepResult{}, err
	}

	return StepResult{
		Response:  e.menus.tempAccountCreated(account.PIN),
		NextState: StateMain,
		Terminal:  true,
	}, nil
}

func (e *Engine) stepDistrictSelection(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "0" {
		return StepResult{Response: e.menus.main(), NextState: StateMain}, nil
	}

	options := splitIDs(sess.Data[keyDistrictOptions])
	names := splitIDs(sess.Data[keyDistrictNames])
	districtID, ok := chooseOption(input, options)
	if !ok {
		return e.invalidOption(), nil
	}
	districtName, _ := chooseOption(input, names)

	menu, patch, err := e.renderHospitalMenu(ctx, districtID, districtName)
	if err != nil {
		return StepResult{}, err
	}
	patch[keyDistrictID] = districtID
	patch[keyDistrictName] = districtName
	return StepResult{Response: menu, NextState: StateHospitalSelection, DataPatch: patch}, nil
}

func (e *Engine) stepHospitalSelection(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "0" {
		menu, patch, err := e.renderDistrictMenu(ctx, sess.Data[keyFlow] == flowEmergency)
		if err != nil {
			return StepResult{}, err
		}
		next := StateDistrictSelection
		if sess.Data[keyFlow] == flowEmergency {
			next = StateEmergencyBooking
		}
		return StepResult{Response: menu, NextState: next, DataPatch: patch}, nil
	}

	options := splitIDs(sess.Data[keyHospitalOptions])
	names := splitIDs(sess.Data[keyHospitalNames])
	hospitalID, ok := chooseOption(input, options)
	if !ok {
		return e.invalidOption(), nil
	}
	hospitalName, _ := chooseOption(input, names)

	menu, patch, hasSlots, err := e.renderSlotMenu(ctx, hospitalID, hospitalName)
	if err != nil {
		return StepResult{}, err
	}
	if !hasSlots {
		return StepResult{Response: menu, NextState: StateMain, Terminal: true}, nil
	}
	patch[keyHospitalID] = hospitalID
	patch[keyHospitalName] = hospitalName
	return StepResult{Response: menu, NextState: StateAppointmentSlots, DataPatch: patch}, nil
}

func (e *Engine) stepAppointmentSlots(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "0" {
		menu, patch, err := e.renderHospitalMenu(ctx, sess.Data[keyDistrictID], sess.Data[keyDistrictName])
		if err != nil {
			return StepResult{}, err
		}
		return StepResult{Response: menu, NextState: StateHospitalSelection, DataPatch: patch}, nil
	}

	options := splitIDs(sess.Data[keySlotOptions])
	slotID, ok := chooseOption(input, options)
	if !ok {
		return e.invalidOption(), nil
	}
	slotDate, _ := chooseOption(input, splitIDs(sess.Data[keySlotDates]))
	slotTime, _ := chooseOption(input, splitIDs(sess.Data[keySlotTimes]))
	doctorName, _ := chooseOption(input, splitIDs(sess.Data[keySlotDoctors]))

	return StepResult{
		Response:  e.menus.confirmation(sess.Data[keyHospitalName], slotDate, slotTime),
		NextState: StateAppointmentConfirmation,
		DataPatch: map[string]string{
			keySlotID:     slotID,
			keySlotDate:   slotDate,
			keySlotTime:   slotTime,
			keyDoctorName: doctorName,
		},
	}, nil
}

func (e *Engine) stepAppointmentConfirmation(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	switch input {
	case "1":
		result, err := e.booker.Reserve(ctx, sess.Data[keyUserID], sess.Data[keySlotID], sess.Data[keyFlow] == flowEmergency)
		if err != nil {
			return StepResult{}, err
		}
		return e.renderBookingOutcome(result), nil
	case "2":
		return StepResult{Response: e.menus.bookingCancelled(), NextState: StateMain, Terminal: true}, nil
	default:
		return e.invalidOption(), nil
	}
}

func (e *Engine) renderBookingOutcome(result booking.Result) StepResult {
	switch {
	case result.Success:
		return StepResult{Response: e.menus.bookingSuccess(result), NextState: StateMain, Terminal: true}
	case result.FailureReason == booking.ReasonSlotAlreadyBooked:
		// Distinct from the generic failure: the caller should simply pick
		// another slot.
		return StepResult{Response: e.menus.slotTaken(), NextState: StateMain, Terminal: true}
	default:
		return StepResult{Response: e.menus.slotGone(), NextState: StateMain, Terminal: true}
	}
}

// renderDistrictMenu lists districts and records the option mapping.
func (e *Engine) renderDistrictMenu(ctx context.Context, emergency bool) (string, map[string]string, error) {
	districts, err := e.catalog.Districts(ctx)
	if err != nil {
		return "", nil, err
	}
	ids := make([]string, len(districts))
	names := make([]string, len(districts))
	for i, d := range districts {
		ids[i] = d.ID
		names[i] = d.Name
	}
	patch := map[string]string{
		keyDistrictOptions: joinIDs(ids),
		keyDistrictNames:   joinIDs(names),
	}
	return e.menus.districts(districts, emergency), patch, nil
}

// renderHospitalMenu lists a district's hospitals and records the option
// mapping.
func (e *Engine) renderHospitalMenu(ctx context.Context, districtID, districtName string) (string, map[string]string, error) {
	hospitals, err := e.catalog.HospitalsByDistrict(ctx, districtID)
	if err != nil {
		return "", nil, err
	}
	ids := make([]string, len(hospitals))
	names := make([]string, len(hospitals))
	for i, h := range hospitals {
		ids[i] = h.ID
		names[i] = h.Name
	}
	patch := map[string]string{
		keyHospitalOptions: joinIDs(ids),
		keyHospitalNames:   joinIDs(names),
	}
	return e.menus.hospitals(districtName, hospitals), patch, nil
}

// renderSlotMenu lists a hospital's free slots. hasSlots is false when the
// hospital has nothing left, in which case the menu is a terminal message.
func (e *Engine) renderSlotMenu(ctx context.Context, hospitalID, hospitalName string) (string, map[string]string, bool, error) {
	slots, err := e.catalog.AvailableSlots(ctx, hospitalID)
	if err != nil {
		return "", nil, false, err
	}
	if len(slots) == 0 {
		return e.menus.noSlots(hospitalName), nil, false, nil
	}
	ids := make([]string, len(slots))
	dates := make([]string, len(slots))
	times := make([]string, len(slots))
	doctors := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
		dates[i] = s.Date
		times[i] = s.Time
		doctors[i] = s.DoctorName
	}
	patch := map[string]string{
		keySlotOptions: joinIDs(ids),
		keySlotDates:   joinIDs(dates),
		keySlotTimes:   joinIDs(times),
		keySlotDoctors: joinIDs(doctors),
	}
	return e.menus.slots(hospitalName, slots), patch, true, nil
}
