package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devbuild/doctorate-api/internal/models"
	"github.com/devbuild/doctorate-api/internal/service"
	"github.com/devbuild/doctorate-api/pkg/response"
)

// DocumentHandler exposes enrollment document endpoints and raw document
// downloads for both workflows.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Attach a document to an enrollment
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param kind formData string true "Document kind"
// @Param file formData file true "File payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	kind := models.DocumentKind(strings.ToUpper(c.PostForm("kind")))
	fileName, contentType, data, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.documents.Upload(c.Request.Context(), models.DocumentParentEnrollment, c.Param("id"), kind, fileName, contentType, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// ListByEnrollment godoc
// @Summary List the documents of an enrollment
// @Tags Documents
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/documents [get]
func (h *DocumentHandler) ListByEnrollment(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), models.DocumentParentEnrollment, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Download godoc
// @Summary Download a document payload
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {string} string "File payload"
// @Router /documents/{id} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, data, err := h.documents.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Delete godoc
// @Summary Delete a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204 {object} nil
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
