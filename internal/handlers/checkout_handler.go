package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkout-session/internal/checkout"
	"github.com/imrishuroy/go-checkout-session/internal/validation"
)

const msgSessionActive = "Order Session is active!"

type checkoutHandler struct {
	checkout  Checkout
	validator *validatorv10.Validate
}

func (h *checkoutHandler) createOrderSession(c *gin.Context) {
	var req checkout.CreateSessionRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		_ = c.Error(err)
		return
	}

	tok, err := h.checkout.CreateOrderSession(c.Request.Context(), UserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response{
		Status:     true,
		Message:    "Successfully added the cart or product info.",
		OrderToken: tok,
	})
}

// getOrderSession only reaches here if the token verified.
func (h *checkoutHandler) getOrderSession(c *gin.Context) {
	c.JSON(http.StatusOK, response{Status: true, Message: msgSessionActive})
}

func (h *checkoutHandler) addShippingInfo(c *gin.Context) {
	var info checkout.ShippingInfo
	if err := validation.BindAndValidate(c, &info, h.validator); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.checkout.AddShippingInfo(c.Request.Context(), OrderSession(c), info); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response{Status: true, Message: "Successfully added the Shipping info."})
}

func (h *checkoutHandler) getShippingInfo(c *gin.Context) {
	info, err := h.checkout.ShippingInfo(c.Request.Context(), OrderSession(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response{Status: true, Message: msgSessionActive + ".", Result: info})
}

func (h *checkoutHandler) confirmOrder(c *gin.Context) {
	conf, err := h.checkout.ConfirmOrder(c.Request.Context(), OrderSession(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response{Status: true, Message: msgSessionActive + ".", Result: conf})
}

func (h *checkoutHandler) processPayment(c *gin.Context) {
	res, err := h.checkout.ProcessPayment(c.Request.Context(), OrderSession(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	msg := "Payment intents created."
	if res.Reused {
		msg = "Payment already created."
	}
	c.JSON(http.StatusOK, response{Status: true, Message: msg, Result: res.Intent})
}

func (h *checkoutHandler) publicKey(c *gin.Context) {
	key, err := h.checkout.PublicKey(OrderSession(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response{
		Status:  true,
		Message: "Sending the stripe public key.",
		Result:  gin.H{"stripeApiKey": key},
	})
}
