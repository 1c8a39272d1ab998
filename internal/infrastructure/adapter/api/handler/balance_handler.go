package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/dto"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/auth"
)

// BalanceHandler handles balance verification polls
type BalanceHandler struct {
	balanceUseCase usecase.BalanceUseCase
	logger         coreport.Logger
}

// NewBalanceHandler creates a new balance handler instance
func NewBalanceHandler(balanceUseCase usecase.BalanceUseCase, logger coreport.Logger) *BalanceHandler {
	return &BalanceHandler{
		balanceUseCase: balanceUseCase,
		logger:         logger,
	}
}

// VerifyBalance handles GET /api/payment/verify-balance
func (h *BalanceHandler) VerifyBalance(c *gin.Context) {
	userID := auth.UserIDFrom(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}

	verification, err := h.balanceUseCase.VerifyBalance(c.Request.Context(), usecase.BalanceQuery{
		UserID:             userID,
		TransactionID:      c.Query("transactionId"),
		ExpectedMinBalance: c.Query("expectedMinBalance"),
	})
	if err != nil {
		switch {
		case errs.IsUserNotFoundError(err):
			c.JSON(http.StatusNotFound, dto.BalanceErrorResponse{
				Error:          "User not found",
				BalanceUpdated: false,
			})
		case errs.HTTPStatus(err) == http.StatusUnauthorized:
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		default:
			h.logger.Error("Balance verification error", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Internal server error",
				Details: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewVerifyBalanceResponse(verification))
}
