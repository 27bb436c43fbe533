package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/middleware"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

// CardRegistrar stores payment cards.
type CardRegistrar interface {
	RegisterCard(ctx context.Context, id model.Identity, in service.CardInput) (model.CreditCard, error)
}

type PaymentHandler struct {
	Cards CardRegistrar
}

func NewPaymentHandler(cards CardRegistrar) *PaymentHandler { return &PaymentHandler{Cards: cards} }

type cardReq struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY, MM/YYYY, YYYY-MM or YYYY-MM-DD
}

type cardResp struct {
	ID        uint64         `json:"id"`
	Type      model.CardType `json:"type"`
	Name      string         `json:"name"`
	Last4     string         `json:"last4"`
	ExpiresOn string         `json:"expires_on"`
}

// RegisterCard handles POST /v1/credit-cards.
func (h *PaymentHandler) RegisterCard(c echo.Context) error {
	var body cardReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	exp, err := service.ParseExpiry(body.Expiry)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	card, err := h.Cards.RegisterCard(ctx, middleware.CurrentIdentity(c), service.CardInput{
		Type:   body.Type,
		Name:   body.Name,
		Number: body.Number,
		Expiry: exp,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cardResp{
		ID:        card.ID,
		Type:      card.Type,
		Name:      card.Name,
		Last4:     card.Last4,
		ExpiresOn: card.ExpiresOn.Format("2006-01-02"),
	})
}
