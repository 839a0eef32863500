// Package handlers exposes the payment-detector HTTP surface: order
// creation, payment matching, direct payments, code redemption and a
// liveness probe. The game server's detector plugin is the only
// intended caller.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/number27/premiumbot/internal/codes"
	"github.com/number27/premiumbot/internal/orders"
	"github.com/number27/premiumbot/internal/validation"
)

// HandlerConfig groups dependencies for the payment API.
type HandlerConfig struct {
	Service *orders.Service
	Logger  *zap.Logger
}

// RegisterRoutes registers the payment API on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	log := cfg.Logger

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "payment-api"})
	})

	r.POST("/create_order", func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		o, err := cfg.Service.CreateOrder(req.RequesterID, *req.Amount, req.PlanID, req.Duration, *req.IsCodeRedemption)
		if err != nil {
			log.Error("create_order failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "order_id": o.OrderID})
	})

	r.POST("/verify_payment", func(c *gin.Context) {
		var req validation.PaymentNotification
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		o, err := cfg.Service.MatchPayment(req.PayerName, req.Amount)
		if err != nil {
			if errors.Is(err, orders.ErrNoMatch) {
				c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
				return
			}
			log.Error("verify_payment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "order_id": o.OrderID})
	})

	r.POST("/direct_payment", func(c *gin.Context) {
		var req validation.PaymentNotification
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		o, err := cfg.Service.DirectPayment(req.PayerName, req.Amount)
		if err != nil {
			log.Error("direct_payment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "success",
			"order_id": o.OrderID,
			"plan":     o.PlanID,
			"message":  "payment recorded, awaiting admin verification",
		})
	})

	r.POST("/redeem_code", func(c *gin.Context) {
		var req validation.RedeemCodeRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		o, _, err := cfg.Service.RedeemCode(req.RequesterID, req.Code)
		if err != nil {
			if errors.Is(err, codes.ErrInvalidCode) {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_or_redeemed_code"})
				return
			}
			log.Error("redeem_code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "order_id": o.OrderID, "plan": o.PlanID})
	})
}
