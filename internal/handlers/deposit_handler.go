package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"esarbank/internal/models"
	"esarbank/internal/notify"
	"esarbank/internal/services"
)

// DepositHandler handles fixed deposit requests.
type DepositHandler struct {
	depositService services.DepositServicer
	auditService   services.AuditServicer
	notifier       notify.Notifier
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositService services.DepositServicer, auditService services.AuditServicer, notifier notify.Notifier) *DepositHandler {
	return &DepositHandler{depositService: depositService, auditService: auditService, notifier: notifier}
}

// ListDepositsRequest selects the deposits of one email.
type ListDepositsRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateDepositRequest opens a fixed deposit.
type CreateDepositRequest struct {
	EmailID         string          `json:"emailId" binding:"required,email"`
	PrincipalAmount decimal.Decimal `json:"principalAmount" swaggertype:"number" binding:"required,gt=0,money"`
	Tenure          int             `json:"tenure" binding:"required,gte=1,lte=100"`
}

// CreateDepositResponse is returned after a deposit is opened.
type CreateDepositResponse struct {
	Message string               `json:"message"`
	FD      *models.FixedDeposit `json:"fd"`
}

// WithdrawDepositRequest closes a fixed deposit.
type WithdrawDepositRequest struct {
	FDID string `json:"fdId" binding:"required,fd_id"`
}

// WithdrawDepositResponse reports the amount credited to savings.
type WithdrawDepositResponse struct {
	Message     string          `json:"message"`
	AmountAdded decimal.Decimal `json:"amountAdded" swaggertype:"number"`
	Matured     bool            `json:"matured"`
}

// ListDeposits returns the fixed deposits of an email
// @Summary     List fixed deposits
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ListDepositsRequest true "Owner email"
// @Success     200 {array}  models.FixedDeposit "Fixed deposits"
// @Failure     400 {object} ErrorResponse "Email is required"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /fds [post]
func (h *DepositHandler) ListDeposits(c *gin.Context) {
	var req ListDepositsRequest
	if !bindJSON(c, &req) {
		return
	}

	fds, err := h.depositService.GetDepositsByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fds)
}

// CreateDeposit opens a fixed deposit funded from savings
// @Summary     Create a fixed deposit
// @Description Debits the principal from the savings account of emailId. Rate: 5.0% up to 5 years, 6.5% up to 10, 7.5% beyond.
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDepositRequest true "Deposit details"
// @Success     200 {object} CreateDepositResponse "FD created"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Savings account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /deposit [post]
func (h *DepositHandler) CreateDeposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	fd, err := h.depositService.CreateDeposit(c.Request.Context(), req.EmailID, req.PrincipalAmount, req.Tenure)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreateDeposit, "fixed_deposit", fd.FDID, c.ClientIP(),
		map[string]interface{}{"principal": fd.PrincipalAmount.String(), "tenure": fd.Tenure})

	c.JSON(http.StatusOK, CreateDepositResponse{Message: "FD created successfully", FD: fd})
}

// WithdrawDeposit closes a fixed deposit into savings
// @Summary     Withdraw a fixed deposit
// @Description Credits the maturity amount when matured, otherwise principal plus simple interest at the rate less 0.2 points.
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WithdrawDepositRequest true "FD id"
// @Success     200 {object} WithdrawDepositResponse "Withdrawal successful"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "FD or savings account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /withdraw [post]
func (h *DepositHandler) WithdrawDeposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req WithdrawDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	w, err := h.depositService.WithdrawDeposit(c.Request.Context(), req.FDID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionWithdrawDeposit, "fixed_deposit", w.FDID, c.ClientIP(),
		map[string]interface{}{"amount": w.AmountCredited.String(), "matured": w.Matured})

	receipt := notify.WithdrawalReceipt{
		FDID:          w.FDID,
		Email:         w.Email,
		AccountNumber: w.AccountNumber,
		Amount:        w.AmountCredited,
		Matured:       w.Matured,
	}
	notify.Async("fd_withdrawal", func(ctx context.Context) error {
		return h.notifier.DepositWithdrawn(ctx, receipt)
	})

	c.JSON(http.StatusOK, WithdrawDepositResponse{
		Message:     "Withdrawal successful",
		AmountAdded: w.AmountCredited,
		Matured:     w.Matured,
	})
}
