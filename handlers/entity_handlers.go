package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lpstudio/api/models"
	"lpstudio/api/store"
)

// Landing-page statuses. Pages start as drafts and are published
// explicitly from the builder.
const (
	PageDraft     = "rascunho"
	PagePublished = "publicada"
)

// EntityHandlers serves CRUD for clients, landing pages and leads over
// the remote-first repositories.
type EntityHandlers struct {
	Clients *store.FallbackRepo
	Pages   *store.FallbackRepo
	Leads   *store.FallbackRepo
}

func NewEntityHandlers(clients, pages, leads *store.FallbackRepo) *EntityHandlers {
	return &EntityHandlers{Clients: clients, Pages: pages, Leads: leads}
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ---- clients ----

func (h *EntityHandlers) ListClients(c *gin.Context) {
	c.JSON(http.StatusOK, h.Clients.List(c.Request.Context()))
}

func (h *EntityHandlers) CreateClient(c *gin.Context) {
	var req models.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.Clients.Add(c.Request.Context(), store.Record{
		"nome":      req.Nome,
		"email":     req.Email,
		"telefone":  req.Telefone,
		"criado_em": nowStamp(),
	})
	if err != nil {
		log.Printf("Error creating client: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *EntityHandlers) GetClient(c *gin.Context) {
	rec := h.Clients.Get(c.Request.Context(), c.Param("id"))
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *EntityHandlers) UpdateClient(c *gin.Context) {
	var patch store.Record
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rec, err := h.Clients.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		log.Printf("Error updating client: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update client"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *EntityHandlers) DeleteClient(c *gin.Context) {
	if err := h.Clients.Remove(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("Error deleting client: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- landing pages ----

func (h *EntityHandlers) ListPages(c *gin.Context) {
	c.JSON(http.StatusOK, h.Pages.List(c.Request.Context()))
}

func (h *EntityHandlers) CreatePage(c *gin.Context) {
	var req models.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = PageDraft
	}
	config := req.Config
	if config == nil {
		config = map[string]any{}
	}

	rec, err := h.Pages.Add(c.Request.Context(), store.Record{
		"client_id":     req.ClientID,
		"nome":          req.Nome,
		"template":      req.Template,
		"status":        status,
		"config":        config,
		"criado_em":     nowStamp(),
		"atualizado_em": nowStamp(),
	})
	if err != nil {
		log.Printf("Error creating landing page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create landing page"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *EntityHandlers) GetPage(c *gin.Context) {
	rec := h.Pages.Get(c.Request.Context(), c.Param("id"))
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Landing page not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *EntityHandlers) UpdatePage(c *gin.Context) {
	var patch store.Record
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	patch["atualizado_em"] = nowStamp()

	rec, err := h.Pages.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		log.Printf("Error updating landing page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update landing page"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Landing page not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// PublishPage flips a draft to published.
func (h *EntityHandlers) PublishPage(c *gin.Context) {
	rec, err := h.Pages.Update(c.Request.Context(), c.Param("id"), store.Record{
		"status":        PagePublished,
		"atualizado_em": nowStamp(),
	})
	if err != nil {
		log.Printf("Error publishing landing page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish landing page"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Landing page not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *EntityHandlers) DeletePage(c *gin.Context) {
	if err := h.Pages.Remove(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("Error deleting landing page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete landing page"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- leads ----

func (h *EntityHandlers) ListLeads(c *gin.Context) {
	c.JSON(http.StatusOK, h.Leads.List(c.Request.Context()))
}

// CreateLead accepts signup submissions from published pages, so it sits
// outside the authenticated group.
func (h *EntityHandlers) CreateLead(c *gin.Context) {
	var req models.LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rec := store.Record{
		"lp_id":     req.LpID,
		"nome":      req.Nome,
		"email":     req.Email,
		"criado_em": nowStamp(),
	}
	for k, v := range req.Extra {
		if _, taken := rec[k]; !taken {
			rec[k] = v
		}
	}

	out, err := h.Leads.Add(c.Request.Context(), rec)
	if err != nil {
		log.Printf("Error creating lead: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record lead"})
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *EntityHandlers) DeleteLead(c *gin.Context) {
	if err := h.Leads.Remove(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("Error deleting lead: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete lead"})
		return
	}
	c.Status(http.StatusNoContent)
}
