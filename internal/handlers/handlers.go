package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itskold/befa/internal/i18n"
	"github.com/itskold/befa/internal/notify"
	"github.com/itskold/befa/internal/payment"
	"github.com/itskold/befa/internal/registration"
	"github.com/itskold/befa/internal/repository"
	"github.com/itskold/befa/internal/wizard"
)

type Config struct {
	// BaseURL of the public site, for checkout return URLs.
	BaseURL  string
	Currency string
}

type Handlers struct {
	svc      *registration.Service
	provider payment.Provider
	mailer   notify.Mailer
	cfg      Config
}

func New(svc *registration.Service, provider payment.Provider, mailer notify.Mailer, cfg Config) *Handlers {
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	return &Handlers{svc: svc, provider: provider, mailer: mailer, cfg: cfg}
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")
	{
		api.GET("/activities", h.Activities)
		api.GET("/groups", h.Groups)
		api.POST("/registrations", h.Register)
		api.POST("/validate-promo", h.ValidatePromo)
		api.POST("/create-payment-intent", h.CreatePaymentIntent)
		api.POST("/create-checkout-session", h.CreateCheckoutSession)
		api.GET("/verify-payment", h.VerifyPayment)
		api.GET("/payment-return", h.PaymentReturn)
		api.GET("/payment-cancel", h.PaymentCancel)
		api.POST("/send-confirmation-email", h.SendConfirmationEmail)
	}
}

// GET /api/activities?lang=
func (h *Handlers) Activities(c *gin.Context) {
	lang := i18n.Parse(c.Query("lang"))
	activities, err := h.svc.Activities(c.Request.Context(), lang)
	if err != nil {
		log.Printf("[handlers] list activities: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activities"})
		return
	}
	c.JSON(http.StatusOK, activities)
}

// GET /api/groups?activityId=&lang=
func (h *Handlers) Groups(c *gin.Context) {
	activityID := c.Query("activityId")
	if activityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activityId is required"})
		return
	}
	lang := i18n.Parse(c.Query("lang"))

	groups, err := h.svc.GroupsByActivity(c.Request.Context(), activityID, lang)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch groups"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// POST /api/registrations
// Runs both wizard steps server-side before handing the form to the
// workflow; field errors come back keyed by field so the client can
// highlight them without navigating.
func (h *Handlers) Register(c *gin.Context) {
	var form wizard.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w := wizard.New()
	w.Update(form)
	if errs := w.Next(); !errs.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"step": 1, "fields": errs})
		return
	}
	if errs := w.Submit(); !errs.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"step": 2, "fields": errs})
		return
	}

	res, err := h.svc.Register(c.Request.Context(), form)
	switch {
	case errors.Is(err, repository.ErrGroupFull):
		c.JSON(http.StatusConflict, gin.H{"error": "group_full"})
	case errors.Is(err, registration.ErrSessionMismatch), errors.Is(err, registration.ErrGroupMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil && repository.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "selection not found"})
	case err != nil:
		log.Printf("[handlers] register: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed, please retry"})
	default:
		c.JSON(http.StatusCreated, res)
	}
}

type validatePromoBody struct {
	Code              string `json:"code"`
	ActivityID        string `json:"activityId"`
	SessionID         string `json:"sessionId"`
	EquipmentIncluded bool   `json:"equipmentIncluded"`
	Email             string `json:"email"`
	Phone1            string `json:"phone1"`
	LastName          string `json:"lastName"`
}

// POST /api/validate-promo
// Rejections are 200s: the user may always continue without a code.
func (h *Handlers) ValidatePromo(c *gin.Context) {
	var body validatePromoBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.CheckPromo(c.Request.Context(), body.Code, wizard.Form{
		ActivityID:        body.ActivityID,
		SessionID:         body.SessionID,
		EquipmentIncluded: body.EquipmentIncluded,
		Email:             body.Email,
		Phone1:            body.Phone1,
		LastName:          body.LastName,
	})
	if err != nil {
		log.Printf("[handlers] validate promo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promo check failed"})
		return
	}
	c.JSON(http.StatusOK, d)
}
