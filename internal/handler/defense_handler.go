package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devbuild/doctorate-api/internal/models"
	"github.com/devbuild/doctorate-api/internal/service"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
	"github.com/devbuild/doctorate-api/pkg/response"
)

// DefenseHandler exposes the thesis-defense workflow endpoints.
type DefenseHandler struct {
	defenses *service.DefenseService
	exports  *service.ExportService
}

// NewDefenseHandler constructs DefenseHandler.
func NewDefenseHandler(defenses *service.DefenseService, exports *service.ExportService) *DefenseHandler {
	return &DefenseHandler{defenses: defenses, exports: exports}
}

// List godoc
// @Summary List defense requests
// @Tags Defenses
// @Produce json
// @Param candidateId query string false "Filter by candidate"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /defenses [get]
func (h *DefenseHandler) List(c *gin.Context) {
	var filter models.DefenseFilter
	filter.CandidateID = c.Query("candidateId")
	filter.Status = models.DefenseStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	defenses, total, err := h.defenses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, defenses, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get a defense request with jury and documents
// @Tags Defenses
// @Produce json
// @Param id path string true "Defense ID"
// @Success 200 {object} response.Envelope
// @Router /defenses/{id} [get]
func (h *DefenseHandler) Get(c *gin.Context) {
	detail, err := h.defenses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Initiate godoc
// @Summary Open a defense request
// @Tags Defenses
// @Accept json
// @Produce json
// @Param payload body service.InitiateDefenseRequest true "Defense payload"
// @Success 201 {object} response.Envelope
// @Router /defenses [post]
func (h *DefenseHandler) Initiate(c *gin.Context) {
	var req service.InitiateDefenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	defense, err := h.defenses.Initiate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, defense)
}

// AddDocument godoc
// @Summary Attach a supporting document
// @Tags Defenses
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Defense ID"
// @Param kind formData string true "Document kind"
// @Param file formData file true "File payload"
// @Success 201 {object} response.Envelope
// @Router /defenses/{id}/documents [post]
func (h *DefenseHandler) AddDocument(c *gin.Context) {
	kind := models.DocumentKind(strings.ToUpper(c.PostForm("kind")))
	fileName, contentType, data, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.defenses.AddDocument(c.Request.Context(), c.Param("id"), kind, fileName, contentType, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// AdminDecision godoc
// @Summary Record the administrative decision on the prerequisites
// @Tags Defenses
// @Accept json
// @Produce json
// @Param id path string true "Defense ID"
// @Param payload body decisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /defenses/{id}/admin-decision [put]
func (h *DefenseHandler) AdminDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	defense, err := h.defenses.ValidateByAdmin(c.Request.Context(), c.Param("id"), req.Approved, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, defense, nil)
}

// ProposeJury godoc
// @Summary Propose the defense jury
// @Tags Defenses
// @Accept json
// @Produce json
// @Param id path string true "Defense ID"
// @Param payload body service.ProposeJuryRequest true "Jury payload"
// @Success 200 {object} response.Envelope
// @Router /defenses/{id}/jury [put]
func (h *DefenseHandler) ProposeJury(c *gin.Context) {
	var req service.ProposeJuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	members, err := h.defenses.ProposeJury(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// Schedule godoc
// @Summary Schedule the defense
// @Tags Defenses
// @Accept json
// @Produce json
// @Param id path string true "Defense ID"
// @Param payload body service.ScheduleDefenseRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /defenses/{id}/schedule [put]
func (h *DefenseHandler) Schedule(c *gin.Context) {
	var req service.ScheduleDefenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	defense, err := h.defenses.Schedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, defense, nil)
}

// Convocation godoc
// @Summary Download the convocation PDF of a scheduled defense
// @Tags Defenses
// @Produce application/pdf
// @Param id path string true "Defense ID"
// @Success 200 {string} string "PDF payload"
// @Router /defenses/{id}/convocation [get]
func (h *DefenseHandler) Convocation(c *gin.Context) {
	pdf, err := h.exports.ConvocationPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="convocation.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// readUpload extracts the uploaded file from a multipart form.
func readUpload(c *gin.Context) (fileName, contentType string, data []byte, err error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file")
	}
	src, err := file.Open()
	if err != nil {
		return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open upload")
	}
	defer src.Close() //nolint:errcheck

	data, err = io.ReadAll(src)
	if err != nil {
		return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload")
	}
	return file.Filename, file.Header.Get("Content-Type"), data, nil
}
