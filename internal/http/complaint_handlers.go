package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"civic-complaints/internal/service"
)

type submitComplaintRequest struct {
	Description string          `json:"description"`
	ImageBase64 string          `json:"imageBase64"`
	Location    json.RawMessage `json:"location"`
}

type resolveComplaintRequest struct {
	ResolvedImageBase64 string `json:"resolvedImageBase64"`
}

func (h *Handler) listComplaints(c *gin.Context) {
	complaints, err := h.complaints.List(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]ComplaintResponse, len(complaints))
	for i := range complaints {
		resp[i] = complaintToResponse(complaints[i])
	}
	c.JSON(http.StatusOK, gin.H{"message": "success", "data": resp})
}

func (h *Handler) submitComplaint(c *gin.Context) {
	var req submitComplaintRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.complaints.Submit(c.Request.Context(), bearerToken(c), service.SubmitInput{
		Description: req.Description,
		ImageBase64: req.ImageBase64,
		Location:    req.Location,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Complaint submitted",
		"data": SubmitResponse{
			ID:         res.ID,
			Category:   res.Category,
			Department: res.Department,
			Status:     res.Status,
		},
	})
}

func (h *Handler) resolveComplaint(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid complaint id"})
		return
	}

	// The body is optional: a resolve without a photo is allowed.
	var req resolveComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeBindError(c, err)
		return
	}

	res, err := h.complaints.Resolve(c.Request.Context(), bearerToken(c), id, req.ResolvedImageBase64)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Complaint resolved", "changes": res.Changed})
}
