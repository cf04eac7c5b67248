package ussd

import (
	"context"

	"github.com/hospitalquick/platform/internal/session"
)

// stepHistory consumes the PIN for the history flow and renders the
// caller's appointment list.
func (e *Engine) stepHistory(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
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

	appointments, err := e.accounts.UserAppointments(ctx, verification.UserID)
	if err != nil {
		return StepResult{}, err
	}
	ids := make([]string, len(appointments))
	for i, a := range appointments {
		ids[i] = a.ID
	}
	return StepResult{
		Response:  e.menus.history(appointments),
		NextState: StateHistoryList,
		DataPatch: map[string]string{
			keyUserID:        verification.UserID,
			keyAuthenticated: "true",
			keyApptOptions:   joinIDs(ids),
		},
	}, nil
}

// stepHistoryList resolves a numbered pick into that appointment's
// details.
func (e *Engine) stepHistoryList(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "0" {
		return StepResult{Response: e.menus.main(), NextState: StateMain}, nil
	}

	appointmentID, ok := chooseOption(input, splitIDs(sess.Data[keyApptOptions]))
	if !ok {
		return e.invalidOption(), nil
	}

	appointments, err := e.accounts.UserAppointments(ctx, sess.Data[keyUserID])
	if err != nil {
		return StepResult{}, err
	}
	for _, a := range appointments {
		if a.ID == appointmentID {
			return StepResult{Response: e.menus.appointmentDetails(a), NextState: StateMain, Terminal: true}, nil
		}
	}
	return e.invalidOption(), nil
}

func (e *Engine) stepSpecialistSelection(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "0" {
		return StepResult{Response: e.menus.main(), NextState: StateMain}, nil
	}

	categoryID, ok := chooseOption(input, splitIDs(sess.Data[keyCategoryOptions]))
	if !ok {
		return e.invalidOption(), nil
	}

	specialists, err := e.catalog.SpecialistsByCategory(ctx, categoryID)
	if err != nil {
		return StepResult{}, err
	}
	if len(specialists) == 0 {
		return StepResult{Response: e.menus.noSpecialists(), NextState: StateMain, Terminal: true}, nil
	}

	ids := make([]string, len(specialists))
	hospitalIDs := make([]string, len(specialists))
	hospitalNames := make([]string, len(specialists))
	for i, s := range specialists {
		ids[i] = s.ID
		hospitalIDs[i] = s.HospitalID
		hospitalNames[i] = s.HospitalName
	}
	return StepResult{
		Response:  e.menus.specialists(specialists),
		NextState: StateSpecialistList,
		DataPatch: map[string]string{
			keyCategoryID:       categoryID,
			keySpecialistIDs:    joinIDs(ids),
			keySpecialistHosps:  joinIDs(hospitalIDs),
			keySpecialistHNames: joinIDs(hospitalNames),
		},
	}, nil
}

// stepSpecialistList picks a doctor. Booking a specialist slot still
// requires an account, so unauthenticated callers detour through account
// selection and come back out at the slot list.
func (e *Engine) stepSpecialistList(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
	if input == "0" {
		menu, patch, err := e.renderCategoryMenu(ctx)
		if err != nil {
			return StepResult{}, err
		}
		return StepResult{Response: menu, NextState: StateSpecialistSelection, DataPatch: patch}, nil
	}

	doctorID, ok := chooseOption(input, splitIDs(sess.Data[keySpecialistIDs]))
	if !ok {
		return e.invalidOption(), nil
	}
	hospitalID, _ := chooseOption(input, splitIDs(sess.Data[keySpecialistHosps]))
	hospitalName, _ := chooseOption(input, splitIDs(sess.Data[keySpecialistHNames]))

	patch := map[string]string{
		keyDoctorID:     doctorID,
		keyHospitalID:   hospitalID,
		keyHospitalName: hospitalName,
	}

	if sess.Data[keyAuthenticated] != "true" {
		return StepResult{
			Response:  e.menus.accountSelection(),
			NextState: StateAccountSelection,
			DataPatch: patch,
		}, nil
	}

	menu, slotPatch, hasSlots, err := e.renderSlotMenu(ctx, hospitalID, hospitalName)
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

// stepEmergencyBooking picks the district and fast-tracks identity: the
// caller is resolved (or silently registered) by phone number so no PIN
// entry stands between them and a slot.
func (e *Engine) stepEmergencyBooking(ctx context.Context, input string, sess *session.Session) (StepResult, error) {
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

	userID, err := e.accounts.EnsureUserByPhone(ctx, sess.PhoneNumber)
	if err != nil {
		return StepResult{}, err
	}

	menu, patch, err := e.renderHospitalMenu(ctx, districtID, districtName)
	if err != nil {
		return StepResult{}, err
	}
	patch[keyDistrictID] = districtID
	patch[keyDistrictName] = districtName
	patch[keyUserID] = userID
	patch[keyAuthenticated] = "true"
	return StepResult{Response: menu, NextState: StateHospitalSelection, DataPatch: patch}, nil
}

// renderCategoryMenu lists specialist categories and records the option
// mapping.
func (e *Engine) renderCategoryMenu(ctx context.Context) (string, map[string]string, error) {
	categories, err := e.catalog.SpecialistCategories(ctx)
	if err != nil {
		return "", nil, err
	}
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	patch := map[string]string{keyCategoryOptions: joinIDs(ids)}
	return e.menus.specialistCategories(categories), patch, nil
}
