package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/models"
	"esarbank/internal/notify"
	"esarbank/internal/pagination"
	"esarbank/internal/services"
)

// TransferHandler handles money transfers and transaction history.
type TransferHandler struct {
	transferService services.TransferServicer
	auditService    services.AuditServicer
	notifier        notify.Notifier
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer, auditService services.AuditServicer, notifier notify.Notifier) *TransferHandler {
	return &TransferHandler{transferService: transferService, auditService: auditService, notifier: notifier}
}

// TransferData is the money movement itself.
type TransferData struct {
	SenderAccountNumber   string          `json:"senderAccountNumber" binding:"required,account_number"`
	ReceiverAccountNumber string          `json:"receiverAccountNumber" binding:"required,account_number"`
	Email                 string          `json:"email" binding:"required,email"`
	Amount                decimal.Decimal `json:"amount" swaggertype:"number" binding:"required,gt=0,money"`
	Remarks               string          `json:"remarks" binding:"max=255"`
}

// TransferRequest wraps the transfer as the frontend sends it.
type TransferRequest struct {
	TransferData TransferData `json:"transferData" binding:"required"`
}

// TransferResponse is returned after a successful transfer.
type TransferResponse struct {
	Message     string              `json:"message"`
	Transaction *models.Transaction `json:"transaction"`
}

// TransactionHistoryResponse is one page of an account's transactions.
type TransactionHistoryResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
	Page         pagination.Meta          `json:"page"`
}

// Transfer moves money between two accounts
// @Summary     Transfer money
// @Description Debit the sender and credit the receiver atomically. The receiver is identified by account number and email.
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransferRequest true "Transfer details"
// @Success     200 {object} TransferResponse "Transfer successful"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Sender or receiver not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfer [post]
func (h *TransferHandler) Transfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if !bindJSON(c, &req) {
		return
	}

	d := req.TransferData
	result, err := h.transferService.Transfer(c.Request.Context(), services.TransferRequest{
		SenderAccountNumber:   d.SenderAccountNumber,
		ReceiverAccountNumber: d.ReceiverAccountNumber,
		ReceiverEmail:         d.Email,
		Amount:                d.Amount,
		Remarks:               d.Remarks,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	txn := result.Transaction

	h.auditService.Log(userID, services.AuditActionTransfer, "transaction", txn.TransactionID, c.ClientIP(),
		map[string]interface{}{
			"from":   txn.SenderAccountNumber,
			"to":     txn.ReceiverAccountNumber,
			"amount": txn.Amount.String(),
		})

	receipt := notify.TransferReceipt{
		Transaction:   txn,
		SenderEmail:   result.SenderEmail,
		ReceiverEmail: result.ReceiverEmail,
	}
	notify.Async("transfer", func(ctx context.Context) error {
		return h.notifier.TransferCompleted(ctx, receipt)
	})

	c.JSON(http.StatusOK, TransferResponse{Message: "Transfer successful.", Transaction: txn})
}

// GetAccountTransactions lists the transfers touching an account
// @Summary     Transaction history
// @Description Newest first. Each entry carries type debit or credit relative to the account.
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       accountNumber path  string true  "Account number"
// @Param       page          query int    false "Page number (default 1)"
// @Param       pageSize      query int    false "Items per page (default 50, max 200)"
// @Success     200 {object} TransactionHistoryResponse "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{accountNumber} [get]
func (h *TransferHandler) GetAccountTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.transferService.GetAccountTransactions(c.Request.Context(), c.Param("accountNumber"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TransactionHistoryResponse{Transactions: result.Items, Page: result.Meta})
}

// GetTransaction returns a transfer receipt
// @Summary     Transaction receipt
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       transactionId path string true "Transaction ID"
// @Success     200 {object} map[string]models.Transaction "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /success/{transactionId} [get]
func (h *TransferHandler) GetTransaction(c *gin.Context) {
	txn, err := h.transferService.GetTransactionByID(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}
