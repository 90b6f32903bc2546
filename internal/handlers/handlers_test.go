package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/itskold/befa/internal/domain"
	"github.com/itskold/befa/internal/notify"
	"github.com/itskold/befa/internal/payment"
	"github.com/itskold/befa/internal/registration"
	"github.com/itskold/befa/internal/repository"
	"github.com/itskold/befa/internal/wizard"
)

type nopPub struct{}

func (nopPub) PublishJSON(context.Context, string, any) error { return nil }

// fakeProvider answers from an in-memory session table; unknown ids
// fail like the real provider does.
type fakeProvider struct {
	sessions    map[string]*payment.SessionStatus
	lastParams  payment.CheckoutParams
	nextSession int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*payment.SessionStatus{}}
}

func (f *fakeProvider) CreateIntent(_ context.Context, amount int64, currency string, _ []string) (*payment.Intent, error) {
	if err := payment.CheckAmount(amount); err != nil {
		return nil, err
	}
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, in payment.CheckoutParams) (*payment.CheckoutSession, error) {
	f.nextSession++
	id := fmt.Sprintf("cs_test_%d", f.nextSession)
	f.lastParams = in
	f.sessions[id] = &payment.SessionStatus{
		Paid:          true,
		CustomerEmail: in.CustomerEmail,
		AmountTotal:   in.Amount,
		Currency:      in.Currency,
	}
	return &payment.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, id string) (*payment.SessionStatus, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such session: " + id)
	}
	return s, nil
}

type recordMailer struct {
	sent []notify.ConfirmationEmail
	fail bool
}

func (m *recordMailer) SendConfirmation(_ context.Context, c notify.ConfirmationEmail) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, c)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	svc      *registration.Service
	provider *fakeProvider
	mailer   *recordMailer
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	now := time.Now().UTC()
	require.NoError(t, db.Create(&domain.Activity{
		ID: "act-1", TitleFR: "Stage technique", TitleNL: "Technische stage",
		Duration: 90, EquipmentPrice: 30,
		SpecificDays: []string{"wednesday"},
		Dates:        []string{"03/09/2025", "10/09/2025"},
		Visible:      true, CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&domain.Session{
		ID: "sess-1", ActivityID: "act-1", Name: "10 séances",
		NumberOfSessions: 10, PricePerSession: 15,
		CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&domain.Group{
		ID: "grp-1", ActivityID: "act-1", Name: "U10",
		StartTime: "13:00", MaxPlayers: 12, CreatedAt: now, UpdatedAt: now,
	}).Error)

	svc := registration.NewService(
		repository.NewActivityRepo(db),
		repository.NewGroupRepo(db),
		repository.NewPlayerRepo(db),
		repository.NewReservationRepo(db),
		repository.NewPromoRepo(db),
		nopPub{},
		registration.Config{EquipmentPrice: 30, Location: "KSC Grimbergen"},
	)

	provider := newFakeProvider()
	mailer := &recordMailer{}

	router := gin.New()
	RegisterRoutes(router, New(svc, provider, mailer, Config{
		BaseURL:  "https://befa.test",
		Currency: "eur",
	}))

	return &testEnv{router: router, db: db, svc: svc, provider: provider, mailer: mailer}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	out := map[string]any{}
	if len(w.Body.Bytes()) > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func validForm() wizard.Form {
	return wizard.Form{
		FirstName:     "Noa",
		LastName:      "Peeters",
		BirthDate:     "2015-04-02",
		Club:          "KSC Grimbergen",
		ActivityID:    "act-1",
		SessionID:     "sess-1",
		GroupID:       "grp-1",
		Email:         "parent@example.be",
		Phone1:        "0470123456",
		Address:       "Rue du Stade 1",
		PostalCode:    "1850",
		City:          "Grimbergen",
		PaymentMethod: "stripe",
		TermsAccepted: true,
	}
}

func (e *testEnv) register(t *testing.T) (reservationID string) {
	t.Helper()
	w, out := e.do(t, http.MethodPost, "/api/registrations", validForm())
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := out["reservationId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestActivitiesEndpoint(t *testing.T) {
	e := setup(t)

	now := time.Now().UTC()
	require.NoError(t, e.db.Create(&domain.Activity{
		ID: "act-hidden", TitleFR: "Brouillon", Duration: 60,
		Visible: false, CreatedAt: now, UpdatedAt: now,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/activities?lang=nl", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var activities []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &activities))
	require.Len(t, activities, 1) // hidden activity excluded
	require.Equal(t, "Technische stage", activities[0]["title"])
	require.Equal(t, "Woensdag", activities[0]["day"])

	packages := activities[0]["packages"].([]any)
	require.Len(t, packages, 1)
	pkg := packages[0].(map[string]any)
	require.Equal(t, "sess-1", pkg["id"])
	require.EqualValues(t, 150, pkg["totalPrice"])
}

func TestGroupsEndpoint(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/groups?activityId=act-1&lang=nl", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var groups []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	require.Equal(t, "U10", groups[0]["name"])
	require.Equal(t, "14:30", groups[0]["endTime"])
	require.Equal(t, "Woensdag", groups[0]["day"])
}

func TestGroupsRequiresActivityID(t *testing.T) {
	e := setup(t)
	w, _ := e.do(t, http.MethodGet, "/api/groups", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidatesStepOne(t *testing.T) {
	e := setup(t)

	f := validForm()
	f.Email = "not-an-address"
	w, out := e.do(t, http.MethodPost, "/api/registrations", f)
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields := out["fields"].(map[string]any)
	require.Equal(t, "inscription.validation.emailInvalid", fields["email"])
}

func TestRegisterValidatesStepTwo(t *testing.T) {
	e := setup(t)

	f := validForm()
	f.TermsAccepted = false
	w, out := e.do(t, http.MethodPost, "/api/registrations", f)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.EqualValues(t, 2, out["step"])
}

func TestRegisterFullGroupConflicts(t *testing.T) {
	e := setup(t)

	now := time.Now().UTC()
	require.NoError(t, e.db.Create(&domain.Group{
		ID: "grp-tiny", ActivityID: "act-1", Name: "U8",
		StartTime: "12:00", MaxPlayers: 0, CreatedAt: now, UpdatedAt: now,
	}).Error)

	f := validForm()
	f.GroupID = "grp-tiny"
	w, out := e.do(t, http.MethodPost, "/api/registrations", f)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "group_full", out["error"])
}

func TestCreatePaymentIntent(t *testing.T) {
	e := setup(t)

	w, out := e.do(t, http.MethodPost, "/api/create-payment-intent", gin.H{"amount": 18000})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pi_test_secret", out["clientSecret"])
}

func TestCreatePaymentIntentRejectsBelowMinimum(t *testing.T) {
	e := setup(t)

	w, _ := e.do(t, http.MethodPost, "/api/create-payment-intent", gin.H{"amount": 49})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCheckoutSessionFlipsProcessing(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	// a client-supplied amount is ignored; the stored total is charged
	w, out := e.do(t, http.MethodPost, "/api/create-checkout-session", gin.H{
		"reservationId": id,
		"amount":        1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "cs_test_1", out["sessionId"])
	require.Equal(t, "https://checkout.test/cs_test_1", out["url"])

	r, err := e.svc.Reservation(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentProcessing, r.Payment.Status)
	require.Equal(t, "cs_test_1", r.Payment.StripeSessionID)

	// reservation total (150 EUR) in minor units, return URLs carry the id
	require.EqualValues(t, 15000, e.provider.lastParams.Amount)
	require.Contains(t, e.provider.lastParams.SuccessURL, "reservation_id="+id)
	require.Contains(t, e.provider.lastParams.SuccessURL, "{CHECKOUT_SESSION_ID}")
	require.Contains(t, e.provider.lastParams.CancelURL, "reservation_id="+id)
}

func TestCreateCheckoutSessionRejectsFreeReservation(t *testing.T) {
	e := setup(t)

	now := time.Now().UTC()
	require.NoError(t, e.db.Create(&domain.Reservation{
		ID: "res-free", SessionID: "sess-1", GroupID: "grp-1", ActivityID: "act-1",
		PlayerID: "p-1",
		Payment:  domain.Payment{Amount: 0, Status: domain.PaymentPending, Date: now},
	}).Error)

	// a fully discounted reservation has nothing to charge
	w, _ := e.do(t, http.MethodPost, "/api/create-checkout-session", gin.H{"reservationId": "res-free"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCheckoutSessionUnknownReservation(t *testing.T) {
	e := setup(t)

	w, _ := e.do(t, http.MethodPost, "/api/create-checkout-session", gin.H{
		"reservationId": "nope",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyPaymentBogusSessionNeverCompletes(t *testing.T) {
	e := setup(t)

	w, out := e.do(t, http.MethodGet, "/api/verify-payment?session_id=cs_forged", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, "incomplete", out["status"])
}

func TestVerifyPaymentPaidSession(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	_, out := e.do(t, http.MethodPost, "/api/create-checkout-session", gin.H{"reservationId": id})
	sessionID := out["sessionId"].(string)

	w, out := e.do(t, http.MethodGet, "/api/verify-payment?session_id="+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "complete", out["status"])
	require.Equal(t, "parent@example.be", out["customer_email"])
	require.EqualValues(t, 15000, out["amount_total"])
}

func TestPaymentReturnCompletesReservation(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	_, out := e.do(t, http.MethodPost, "/api/create-checkout-session", gin.H{"reservationId": id})
	sessionID := out["sessionId"].(string)

	url := fmt.Sprintf("/api/payment-return?session_id=%s&reservation_id=%s", sessionID, id)
	w, out := e.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "complete", out["status"])

	r, err := e.svc.Reservation(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentCompleted, r.Payment.Status)

	// replayed redirect stays complete and adds nothing
	w, _ = e.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var members int64
	require.NoError(t, e.db.Model(&domain.GroupMember{}).
		Where("group_id = ?", "grp-1").Count(&members).Error)
	require.EqualValues(t, 1, members)
}

func TestPaymentReturnRejectsAmountMismatch(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	_, out := e.do(t, http.MethodPost, "/api/create-checkout-session", gin.H{"reservationId": id})
	sessionID := out["sessionId"].(string)

	// paid session for the wrong amount must not complete the reservation
	e.provider.sessions[sessionID].AmountTotal = 100

	url := fmt.Sprintf("/api/payment-return?session_id=%s&reservation_id=%s", sessionID, id)
	w, out := e.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "incomplete", out["status"])

	r, err := e.svc.Reservation(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentProcessing, r.Payment.Status)
}

func TestPaymentReturnRejectsForgedSession(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	url := fmt.Sprintf("/api/payment-return?session_id=cs_forged&reservation_id=%s", id)
	w, _ := e.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	r, err := e.svc.Reservation(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPending, r.Payment.Status)
}

func TestPaymentReturnUnpaidSessionIsIncomplete(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	e.provider.sessions["cs_open"] = &payment.SessionStatus{Paid: false}
	url := fmt.Sprintf("/api/payment-return?session_id=cs_open&reservation_id=%s", id)
	w, out := e.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	require.Equal(t, "incomplete", out["status"])
}

func TestPaymentCancelMarksFailed(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	w, out := e.do(t, http.MethodGet, "/api/payment-cancel?reservation_id="+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "cancelled", out["status"])

	r, err := e.svc.Reservation(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentFailed, r.Payment.Status)
}

func TestPaymentCancelAfterCompletionConflicts(t *testing.T) {
	e := setup(t)
	id := e.register(t)

	_, out := e.do(t, http.MethodPost, "/api/create-checkout-session", gin.H{"reservationId": id})
	sessionID := out["sessionId"].(string)
	e.do(t, http.MethodGet, fmt.Sprintf("/api/payment-return?session_id=%s&reservation_id=%s", sessionID, id), nil)

	w, _ := e.do(t, http.MethodGet, "/api/payment-cancel?reservation_id="+id, nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestValidatePromoEndpoint(t *testing.T) {
	e := setup(t)

	require.NoError(t, e.db.Create(&domain.PromoCode{
		ID: "promo-1", Name: "Rentrée", Code: "RENTREE50",
		Amount: 50, Type: domain.DiscountFixed,
	}).Error)

	w, out := e.do(t, http.MethodPost, "/api/validate-promo", gin.H{
		"code":       "RENTREE50",
		"activityId": "act-1",
		"sessionId":  "sess-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["applied"])
	require.EqualValues(t, 50, out["discountAmount"])
}

func TestValidatePromoUnknownCode(t *testing.T) {
	e := setup(t)

	w, out := e.do(t, http.MethodPost, "/api/validate-promo", gin.H{
		"code":       "NOPE",
		"activityId": "act-1",
		"sessionId":  "sess-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, out["applied"])
	require.Equal(t, "invalid", out["reason"])
}

func TestSendConfirmationEmail(t *testing.T) {
	e := setup(t)

	w, out := e.do(t, http.MethodPost, "/api/send-confirmation-email", gin.H{
		"email":         "parent@example.be",
		"first_name":    "Noa",
		"lang":          "fr",
		"session_count": 10,
		"location":      "KSC Grimbergen",
		"category":      "U10",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])
	require.Len(t, e.mailer.sent, 1)
	require.Equal(t, "Noa", e.mailer.sent[0].FirstName)
}

func TestSendConfirmationEmailMissingFields(t *testing.T) {
	e := setup(t)

	w, out := e.do(t, http.MethodPost, "/api/send-confirmation-email", gin.H{"email": "parent@example.be"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, false, out["success"])
}

func TestSendConfirmationEmailReportsFailure(t *testing.T) {
	e := setup(t)
	e.mailer.fail = true

	w, out := e.do(t, http.MethodPost, "/api/send-confirmation-email", gin.H{
		"email":      "parent@example.be",
		"first_name": "Noa",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, out["success"])
}
