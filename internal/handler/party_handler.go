package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/watchparty-service/internal/errs"
	"github.com/psds-microservice/watchparty-service/internal/service"
)

// PartyHandler handles the auxiliary REST surface for parties.
type PartyHandler struct {
	mgr *service.LifecycleManager
}

// NewPartyHandler creates a party handler.
func NewPartyHandler(mgr *service.LifecycleManager) *PartyHandler {
	return &PartyHandler{mgr: mgr}
}

// GetParty godoc
// GET /api/party/:id — public summary, no state mutation.
func (h *PartyHandler) GetParty(c *gin.Context) {
	partyID := c.Param("id")
	if partyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "party id required"})
		return
	}
	summary, err := h.mgr.Summary(partyID)
	if err != nil {
		if errors.Is(err, errs.ErrPartyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Party not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get party"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
