// Package wizard models the two-step inscription form as an explicit
// state machine: step 1 collects player and selection details, step 2
// the payment choices. Forward navigation is gated on validation,
// backward navigation always allowed and value-preserving.
package wizard

import (
	"net/mail"
	"time"
)

type Step int

const (
	StepDetails Step = 1
	StepPayment Step = 2
)

// Form holds everything both steps collect. The session package is an
// explicit id, not an index into the activity's package list.
type Form struct {
	// player
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate"` // YYYY-MM-DD
	Club      string `json:"club"`

	// selection
	ActivityID string `json:"activityId"`
	SessionID  string `json:"sessionId"`
	GroupID    string `json:"groupId"`

	// parent / contact
	Email  string `json:"email"`
	Phone1 string `json:"phone1"`
	Phone2 string `json:"phone2,omitempty"`

	// address
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`

	MedicalInfo string `json:"medicalInfo,omitempty"`

	// equipment
	EquipmentIncluded bool   `json:"equipmentIncluded"`
	TshirtSize        string `json:"tshirtSize,omitempty"`
	ShortSize         string `json:"shortSize,omitempty"`

	PromoCode string `json:"promoCode,omitempty"`

	// payment
	PaymentMethod string `json:"paymentMethod"` // stripe | virement | especes
	TermsAccepted bool   `json:"termsAccepted"`
	PhotoConsent  bool   `json:"photoConsent"`

	Lang string `json:"lang,omitempty"` // fr | nl
}

// FieldErrors maps a field name to a translation key describing what
// is wrong with it. Empty map means valid.
type FieldErrors map[string]string

func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

type Wizard struct {
	step Step
	form Form
}

func New() *Wizard {
	return &Wizard{step: StepDetails}
}

func (w *Wizard) Step() Step { return w.step }
func (w *Wizard) Form() Form { return w.form }

// Update merges the latest submitted values without moving steps, so
// going back never loses what was already entered.
func (w *Wizard) Update(f Form) {
	w.form = f
}

// SelectActivity switches the activity from the secondary chooser. The
// previously chosen package and group belong to the old activity and
// are reset; the caller then fetches the new activity's groups.
func (w *Wizard) SelectActivity(activityID string) {
	w.form.ActivityID = activityID
	w.form.SessionID = ""
	w.form.GroupID = ""
}

// Next validates exactly the step-1 field set and advances on success.
// On failure the wizard stays put and the offending fields come back.
func (w *Wizard) Next() FieldErrors {
	if w.step != StepDetails {
		return nil
	}
	errs := ValidateDetails(w.form)
	if errs.Valid() {
		w.step = StepPayment
	}
	return errs
}

func (w *Wizard) Back() {
	if w.step > StepDetails {
		w.step--
	}
}

// Submit validates the step-2 fields. Both steps must pass before the
// registration is handed to the backend workflow.
func (w *Wizard) Submit() FieldErrors {
	if w.step != StepPayment {
		return FieldErrors{"step": "inscription.errors.incompleteForm"}
	}
	return ValidatePayment(w.form)
}

// ValidateDetails checks the step-1 required fields.
func ValidateDetails(f Form) FieldErrors {
	errs := FieldErrors{}
	if len(f.FirstName) < 2 {
		errs["firstName"] = "inscription.validation.firstNameRequired"
	}
	if len(f.LastName) < 2 {
		errs["lastName"] = "inscription.validation.lastNameRequired"
	}
	if _, err := time.Parse("2006-01-02", f.BirthDate); err != nil {
		errs["birthDate"] = "inscription.validation.birthDateInvalid"
	}
	if f.Club == "" {
		errs["club"] = "inscription.validation.clubRequired"
	}
	if f.ActivityID == "" {
		errs["activityId"] = "inscription.errors.activityMissing"
	}
	if f.SessionID == "" {
		errs["sessionId"] = "inscription.validation.activityRequired"
	}
	if f.GroupID == "" {
		errs["groupId"] = "inscription.validation.groupRequired"
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		errs["email"] = "inscription.validation.emailInvalid"
	}
	if len(f.Phone1) < 10 {
		errs["phone1"] = "inscription.validation.phoneInvalid"
	}
	if f.Address == "" {
		errs["address"] = "inscription.validation.addressRequired"
	}
	if len(f.PostalCode) < 4 {
		errs["postalCode"] = "inscription.validation.postalCodeInvalid"
	}
	if f.City == "" {
		errs["city"] = "inscription.validation.cityRequired"
	}
	return errs
}

// ValidatePayment checks the step-2 required fields. Photo consent is
// deliberately absent: it is recorded but never blocks submission.
func ValidatePayment(f Form) FieldErrors {
	errs := FieldErrors{}
	switch f.PaymentMethod {
	case "stripe", "virement", "especes":
	default:
		errs["paymentMethod"] = "inscription.validation.paymentMethodRequired"
	}
	if !f.TermsAccepted {
		errs["termsAccepted"] = "inscription.validation.termsRequired"
	}
	return errs
}
