package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vat-einvoice/drafts"
	"github.com/yourusername/vat-einvoice/middleware"
	"github.com/yourusername/vat-einvoice/models"
)

// DraftHandler saves and restores the current user's unfinished invoice form.
type DraftHandler struct {
	store drafts.Store
}

func NewDraftHandler(store drafts.Store) *DraftHandler {
	return &DraftHandler{store: store}
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	d, err := h.store.Load(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No saved draft"})
		return
	}

	c.JSON(http.StatusOK, d)
}

func (h *DraftHandler) SaveDraft(c *gin.Context) {
	var inv models.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.CurrentUser(c)
	d := drafts.Draft{Invoice: inv}
	if err := h.store.Save(c.Request.Context(), userID, d); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Draft saved"})
}

func (h *DraftHandler) ClearDraft(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	if err := h.store.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
