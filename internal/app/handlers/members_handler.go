package handlers

import (
	"net/http"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	dbModels "github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/service/members"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	service members.MemberServiceInterface
}

func NewMemberHandler(service members.MemberServiceInterface) *MemberHandler {
	return &MemberHandler{service: service}
}

// List returns every member, or the single match of ?group=&name=.
func (h *MemberHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	group, name := c.Query("group"), c.Query("name")
	if group != "" || name != "" {
		member, err := h.service.FindByName(ctx, group, name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, []dbModels.Member{member})
		return
	}
	list, err := h.service.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.service.Get(c.Request.Context(), c.Param("nationalId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) Add(c *gin.Context) {
	var member dbModels.Member
	if !bindJSON(c, &member) {
		return
	}
	created, err := h.service.Add(c.Request.Context(), member)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *MemberHandler) Update(c *gin.Context) {
	var member dbModels.Member
	if !bindJSON(c, &member) {
		return
	}
	member.NationalID = c.Param("nationalId")
	updated, err := h.service.Update(c.Request.Context(), member)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("nationalId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MemberHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

type renameGroupRequest struct {
	NewName string `json:"newName" binding:"required"`
}

func (h *MemberHandler) RenameGroup(c *gin.Context) {
	var req renameGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	oldName := c.Param("groupName")
	if oldName == "" {
		respondError(c, error_handling.NewValidationError("groupName", "is required"))
		return
	}
	changed, err := h.service.RenameGroup(c.Request.Context(), oldName, req.NewName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groupName": req.NewName, "recordsChanged": changed})
}
