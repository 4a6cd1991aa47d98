package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/correspondence-tracker/api/middleware"
	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/service/document"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

type DocumentHandler struct {
	service document.DocumentProcessor
	logger  logger.Logger
}

type listQuery struct {
	TipoDocumento string `form:"tipo_documento"`
	Direccion     string `form:"direccion"`
	Busqueda      string `form:"busqueda"`
	OrdenarPor    string `form:"ordenar_por"`
	Pagina        int    `form:"pagina"`
	PorPagina     int    `form:"por_pagina"`
}

func NewDocumentHandler(service document.DocumentProcessor, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  log,
	}
}

func (h *DocumentHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Parámetros de búsqueda inválidos")
		return
	}

	list, err := h.service.List(c.Request.Context(), models.DocumentFilter{
		TipoDocumento: models.TipoDocumento(q.TipoDocumento),
		Direccion:     models.Direccion(q.Direccion),
		Busqueda:      q.Busqueda,
		OrdenarPor:    q.OrdenarPor,
		Pagina:        q.Pagina,
		PorPagina:     q.PorPagina,
	})
	if err != nil {
		handleError(c, h.logger, "Failed to list documents", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var in models.DocumentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Cuerpo de la solicitud inválido")
		return
	}

	createdBy := ""
	if claims, ok := middleware.ClaimsFrom(c); ok {
		createdBy = claims.Subject
	}

	d, err := h.service.Create(c.Request.Context(), in, createdBy)
	if err != nil {
		handleError(c, h.logger, "Failed to create document", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, "Failed to get document", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	var in models.DocumentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Cuerpo de la solicitud inválido")
		return
	}

	d, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		handleError(c, h.logger, "Failed to update document", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handleError(c, h.logger, "Failed to delete document", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadFile attaches the PDF in the "file" form field to a document.
func (h *DocumentHandler) UploadFile(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handleError(c, h.logger, "Invalid file upload", invalidUpload(err))
		return
	}
	defer file.Close()

	res, err := h.service.AttachFile(c.Request.Context(), id, file, header)
	if err != nil {
		handleError(c, h.logger, "Failed to store file", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DocumentHandler) DownloadFile(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	rc, name, err := h.service.OpenFile(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, "Failed to open document file", err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("inline", map[string]string{"filename": name}),
	})
}

// UploadTemporary stores a PDF for analysis before the document exists.
func (h *DocumentHandler) UploadTemporary(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handleError(c, h.logger, "Invalid file upload", invalidUpload(err))
		return
	}
	defer file.Close()

	res, err := h.service.UploadTemporary(c.Request.Context(), file, header)
	if err != nil {
		handleError(c, h.logger, "Failed to store file", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		badRequest(c, "ID de documento inválido")
		return 0, false
	}
	return id, true
}

// invalidUpload keeps size errors distinct so they map to 413.
func invalidUpload(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &document.InvalidInputError{Message: "Se requiere un archivo PDF en el campo file"}
}
