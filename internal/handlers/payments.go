package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/itskold/befa/internal/notify"
	"github.com/itskold/befa/internal/payment"
	"github.com/itskold/befa/internal/repository"
)

type createIntentBody struct {
	// Amount in minor units, the way the provider counts.
	Amount             int64    `json:"amount"`
	Currency           string   `json:"currency"`
	PaymentMethodTypes []string `json:"payment_method_types"`
}

// POST /api/create-payment-intent
func (h *Handlers) CreatePaymentIntent(c *gin.Context) {
	var body createIntentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payment.CheckAmount(body.Amount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("amount must be at least %d minor units", payment.MinChargeAmount)})
		return
	}
	currency := body.Currency
	if currency == "" {
		currency = h.cfg.Currency
	}
	methods := body.PaymentMethodTypes
	if len(methods) == 0 {
		methods = []string{"card", "bancontact"}
	}

	intent, err := h.provider.CreateIntent(c.Request.Context(), body.Amount, currency, methods)
	if err != nil {
		log.Printf("[handlers] create intent: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": intent.ClientSecret})
}

type createCheckoutBody struct {
	ReservationID string `json:"reservationId"`
	Email         string `json:"email"`
	Description   string `json:"description"`
}

// POST /api/create-checkout-session
// Creates the hosted checkout and flips the reservation to processing
// with the provider session id, so the return leg can re-verify it.
// The charged amount is the reservation's stored total; the client
// never names a price.
func (h *Handlers) CreateCheckoutSession(c *gin.Context) {
	var body createCheckoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.ReservationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservationId is required"})
		return
	}

	res, err := h.svc.Reservation(c.Request.Context(), body.ReservationID)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reservation"})
		return
	}

	minor := int64(res.Payment.Amount) * 100
	if err := payment.CheckAmount(minor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("amount must be at least %d minor units", payment.MinChargeAmount)})
		return
	}

	description := body.Description
	if description == "" {
		description = fmt.Sprintf("Inscription BEFA Academy — %d séances", res.SessionData.NumberOfSessions)
	}
	email := body.Email
	if email == "" {
		email = res.PlayerData.Email
	}

	// {CHECKOUT_SESSION_ID} is substituted by the provider on redirect.
	successURL := fmt.Sprintf("%s/api/payment-return?session_id={CHECKOUT_SESSION_ID}&reservation_id=%s",
		h.cfg.BaseURL, url.QueryEscape(res.ID))
	cancelURL := fmt.Sprintf("%s/api/payment-cancel?reservation_id=%s",
		h.cfg.BaseURL, url.QueryEscape(res.ID))

	session, err := h.provider.CreateCheckoutSession(c.Request.Context(), payment.CheckoutParams{
		Amount:        minor,
		Currency:      h.cfg.Currency,
		Description:   description,
		CustomerEmail: email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Metadata: map[string]string{
			"reservationId": res.ID,
			"playerId":      res.PlayerID,
			"groupId":       res.GroupID,
			"activityId":    res.ActivityID,
			"sessionId":     res.SessionID,
		},
	})
	if err != nil {
		log.Printf("[handlers] create checkout session: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
		return
	}

	if _, err := h.svc.MarkProcessing(c.Request.Context(), res.ID, session.ID); err != nil {
		if errors.Is(err, repository.ErrCompleted) {
			c.JSON(http.StatusConflict, gin.H{"error": "payment already completed"})
			return
		}
		log.Printf("[handlers] mark processing %s: %v", res.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update reservation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": session.ID, "url": session.URL})
}

// GET /api/verify-payment?session_id=
// Asks the provider, never the query string, whether the session is
// paid. An unknown or failing session id reports incomplete rather than
// succeeding.
func (h *Handlers) VerifyPayment(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	status, err := h.provider.RetrieveSession(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("[handlers] verify session %s: %v", sessionID, err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "incomplete", "error": "session could not be verified"})
		return
	}

	out := gin.H{
		"status":         "incomplete",
		"session_id":     sessionID,
		"customer_email": status.CustomerEmail,
		"amount_total":   status.AmountTotal,
		"currency":       status.Currency,
	}
	if status.Paid {
		out["status"] = "complete"
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/payment-return?session_id=&reservation_id=
// Success leg of the hosted checkout. The session is re-verified with
// the provider, and the paid amount checked against the reservation,
// before the reservation is completed.
func (h *Handlers) PaymentReturn(c *gin.Context) {
	sessionID := c.Query("session_id")
	reservationID := c.Query("reservation_id")
	if sessionID == "" || reservationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and reservation_id are required"})
		return
	}

	res, err := h.svc.Reservation(c.Request.Context(), reservationID)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reservation"})
		return
	}

	status, err := h.provider.RetrieveSession(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("[handlers] return verify %s: %v", sessionID, err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "incomplete", "error": "session could not be verified"})
		return
	}
	if !status.Paid {
		c.JSON(http.StatusPaymentRequired, gin.H{"status": "incomplete", "reservationId": reservationID})
		return
	}
	if status.AmountTotal != int64(res.Payment.Amount)*100 {
		log.Printf("[handlers] return %s: session %s paid %d, reservation expects %d",
			reservationID, sessionID, status.AmountTotal, int64(res.Payment.Amount)*100)
		c.JSON(http.StatusConflict, gin.H{"status": "incomplete", "error": "paid amount does not match the reservation"})
		return
	}

	res, err = h.svc.Complete(c.Request.Context(), reservationID)
	if err != nil {
		// payment is in; surface the roster problem without undoing it
		log.Printf("[handlers] complete %s: %v", reservationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "complete", "error": "confirmation incomplete, support has been notified"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "complete",
		"reservationId": res.ID,
		"amount":        res.Payment.Amount,
	})
}

// GET /api/payment-cancel?reservation_id=
func (h *Handlers) PaymentCancel(c *gin.Context) {
	reservationID := c.Query("reservation_id")
	if reservationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_id is required"})
		return
	}

	res, err := h.svc.Cancel(c.Request.Context(), reservationID)
	switch {
	case errors.Is(err, repository.ErrCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "payment already completed"})
	case err != nil && repository.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
	case err != nil:
		log.Printf("[handlers] cancel %s: %v", reservationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "cancelled", "reservationId": res.ID})
	}
}

// POST /api/send-confirmation-email
// Direct send, used by the back office to replay a confirmation. The
// result envelope always reports success explicitly.
func (h *Handlers) SendConfirmationEmail(c *gin.Context) {
	var m notify.ConfirmationEmail
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if m.Email == "" || m.FirstName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email and firstName are required"})
		return
	}

	if err := h.mailer.SendConfirmation(c.Request.Context(), m); err != nil {
		log.Printf("[handlers] send confirmation to %s: %v", m.Email, err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "send failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
