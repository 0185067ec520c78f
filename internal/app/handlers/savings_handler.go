package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/savings"

	"github.com/gin-gonic/gin"
)

type SavingsHandler struct {
	service savings.SavingsServiceInterface
}

func NewSavingsHandler(service savings.SavingsServiceInterface) *SavingsHandler {
	return &SavingsHandler{service: service}
}

type savingRequest struct {
	GroupName  string      `json:"groupName" binding:"required"`
	MemberName string      `json:"memberName" binding:"required"`
	Amount     json.Number `json:"amount"`
	Date       string      `json:"date"`
}

type withdrawalRequest struct {
	GroupName     string      `json:"groupName" binding:"required"`
	MemberName    string      `json:"memberName" binding:"required"`
	Amount        json.Number `json:"amount"`
	CompanyPayout json.Number `json:"companyPayout"`
	AmountGiven   json.Number `json:"amountGiven"`
	Date          string      `json:"date"`
}

func (h *SavingsHandler) RecordSaving(c *gin.Context) {
	var req savingRequest
	if !bindJSON(c, &req) {
		return
	}
	value, err := amount("amount", req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	saving, err := h.service.RecordSaving(c.Request.Context(), req.GroupName, req.MemberName, value, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saving)
}

func (h *SavingsHandler) RecordWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if !bindJSON(c, &req) {
		return
	}
	value, err := amount("amount", req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	payout, err := optionalAmount("companyPayout", req.CompanyPayout)
	if err != nil {
		respondError(c, err)
		return
	}
	given, err := optionalAmount("amountGiven", req.AmountGiven)
	if err != nil {
		respondError(c, err)
		return
	}
	withdrawal, err := h.service.RecordWithdrawal(c.Request.Context(), savings.WithdrawalRequest{
		GroupName:     req.GroupName,
		MemberName:    req.MemberName,
		Amount:        value,
		CompanyPayout: payout,
		AmountGiven:   given,
		Date:          req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withdrawal)
}

func (h *SavingsHandler) GetTotalSavings(c *gin.Context) {
	totals, err := h.service.GetTotalSavings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// GetMemberSavings returns the savings history of ?group=&member=.
func (h *SavingsHandler) GetMemberSavings(c *gin.Context) {
	history, err := h.service.GetMemberSavings(c.Request.Context(), c.Query("group"), c.Query("member"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetWithdrawals returns every withdrawal, or one member's when
// ?group=&member= are given.
func (h *SavingsHandler) GetWithdrawals(c *gin.Context) {
	ctx := c.Request.Context()
	group, member := c.Query("group"), c.Query("member")
	if group != "" || member != "" {
		history, err := h.service.GetMemberWithdrawals(ctx, group, member)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
		return
	}
	all, err := h.service.GetWithdrawals(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// GetBalance returns the running total of ?group=&member=.
func (h *SavingsHandler) GetBalance(c *gin.Context) {
	group, member := c.Query("group"), c.Query("member")
	if group == "" || member == "" {
		respondError(c, error_handling.NewValidationError("member", "group and member are required"))
		return
	}
	total, err := h.service.TotalFor(c.Request.Context(), group, member)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"groupName":   utils.NormalizeName(group),
		"memberName":  utils.NormalizeName(member),
		"totalAmount": total,
	})
}
