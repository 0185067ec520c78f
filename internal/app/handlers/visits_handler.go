package handlers

import (
	"net/http"

	dbModels "github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/service/visits"

	"github.com/gin-gonic/gin"
)

type VisitHandler struct {
	service visits.VisitServiceInterface
}

func NewVisitHandler(service visits.VisitServiceInterface) *VisitHandler {
	return &VisitHandler{service: service}
}

type visitRequest struct {
	GroupName     string                    `json:"groupName" binding:"required"`
	VisitDate     string                    `json:"visitDate" binding:"required"`
	VisitTime     string                    `json:"visitTime"`
	NextVisitDate string                    `json:"nextVisitDate"`
	Members       []dbModels.VisitMemberRow `json:"members"`
}

func (h *VisitHandler) GroupsAndMembers(c *gin.Context) {
	groups, err := h.service.GetGroupsAndMembers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *VisitHandler) RecordVisit(c *gin.Context) {
	var req visitRequest
	if !bindJSON(c, &req) {
		return
	}
	visit, err := h.service.RecordVisit(c.Request.Context(), visits.VisitMeta{
		GroupName:     req.GroupName,
		Date:          req.VisitDate,
		Time:          req.VisitTime,
		NextVisitDate: req.NextVisitDate,
	}, req.Members)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, visit)
}

// List returns every visit, or those on ?date=.
func (h *VisitHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []dbModels.Visit
		err  error
	)
	if date := c.Query("date"); date != "" {
		list, err = h.service.FindVisitsByDate(ctx, date)
	} else {
		list, err = h.service.FetchAllVisits(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
