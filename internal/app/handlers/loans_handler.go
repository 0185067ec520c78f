package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	dbModels "github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/service/loans"

	"github.com/gin-gonic/gin"
)

type LoanHandler struct {
	service loans.LoanServiceInterface
}

func NewLoanHandler(service loans.LoanServiceInterface) *LoanHandler {
	return &LoanHandler{service: service}
}

type loanRequest struct {
	Kind          consts.LoanKind      `json:"kind" binding:"required"`
	GroupName     string               `json:"groupName" binding:"required"`
	MemberName    string               `json:"memberName"`
	Guarantors    []dbModels.Guarantor `json:"guarantors"`
	Amount        json.Number          `json:"amount"`
	Term          json.Number          `json:"term"`
	Interest      json.Number          `json:"interest"`
	CompanyPayout json.Number          `json:"companyPayout"`
	LoanFormFee   json.Number          `json:"loanFormFee"`
	DateIssued    string               `json:"dateIssued"`
	DateToRepay   string               `json:"dateToRepay"`
}

func (r loanRequest) toService() (loans.LoanRequest, error) {
	out := loans.LoanRequest{
		Kind:        r.Kind,
		GroupName:   r.GroupName,
		MemberName:  r.MemberName,
		Guarantors:  r.Guarantors,
		DateIssued:  r.DateIssued,
		DateToRepay: r.DateToRepay,
	}
	var err error
	if out.Amount, err = amount("amount", r.Amount); err != nil {
		return out, err
	}
	optional := []struct {
		field string
		raw   json.Number
		dst   *float64
	}{
		{"term", r.Term, &out.Term},
		{"interest", r.Interest, &out.Interest},
		{"companyPayout", r.CompanyPayout, &out.CompanyPayout},
		{"loanFormFee", r.LoanFormFee, &out.LoanFormFee},
	}
	for _, o := range optional {
		if *o.dst, err = optionalAmount(o.field, o.raw); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (h *LoanHandler) RecordLoan(c *gin.Context) {
	var req loanRequest
	if !bindJSON(c, &req) {
		return
	}
	serviceReq, err := req.toService()
	if err != nil {
		respondError(c, err)
		return
	}
	loan, err := h.service.RecordLoan(c.Request.Context(), serviceReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

func (h *LoanHandler) UpdateLoan(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var loan dbModels.Loan
	if !bindJSON(c, &loan) {
		return
	}
	loan.ID = id
	updated, err := h.service.UpdateLoan(c.Request.Context(), loan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// List returns all loans, or those in ?status=active|defaulted|repaid.
func (h *LoanHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []dbModels.Loan
		err  error
	)
	switch c.Query("status") {
	case "":
		list, err = h.service.FetchAllLoans(ctx)
	case "active":
		list, err = h.service.GetActiveLoans(ctx)
	case "defaulted":
		list, err = h.service.GetDefaultedLoans(ctx)
	case "repaid":
		list, err = h.service.GetFullyRepaidLoans(ctx)
	default:
		err = error_handling.NewValidationError("status", "must be one of active, defaulted, repaid")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	loan, err := h.service.GetLoan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) Summary(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.GetLoanSummary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type defaulterRequest struct {
	Description string `json:"description" binding:"required"`
	Date        string `json:"date"`
}

func (h *LoanHandler) RecordDefaulter(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req defaulterRequest
	if !bindJSON(c, &req) {
		return
	}
	defaulter, err := h.service.RecordDefaulter(c.Request.Context(), id, req.Description, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, defaulter)
}

func (h *LoanHandler) RemoveDefaulter(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	defaulterID, ok := int64Param(c, "defaulterId")
	if !ok {
		return
	}
	if err := h.service.RemoveDefaulterStatus(c.Request.Context(), id, defaulterID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LoanHandler) Defaulters(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	list, err := h.service.FetchDefaulterInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type paymentRequest struct {
	Amount json.Number `json:"amount"`
	Date   string      `json:"date"`
}

func (h *LoanHandler) RecordPayment(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}
	value, err := amount("amount", req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	payment, err := h.service.RecordContinuingPayment(c.Request.Context(), id, value, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *LoanHandler) Payments(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	list, err := h.service.FetchContinuingPayments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
