package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/iwtcode/shuiService/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// ListFiles возвращает файлы, загруженные на принтер.
// @Summary Список файлов
// @Tags Files
// @Produce json
// @Success 200 {object} models.FilesResponse
// @Router /printer/files [get]
func (h *Handler) ListFiles(c *gin.Context) {
	files := h.usecase.ListFiles()
	if files == nil {
		files = []models.FileInfo{}
	}
	c.JSON(http.StatusOK, models.FilesResponse{Status: "ok", Files: files})
}

// GetFile возвращает файл по имени 8.3 или длинному имени.
func (h *Handler) GetFile(c *gin.Context) {
	info, err := h.usecase.GetFile(c.Param("name"))
	if err != nil {
		h.StorageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "file": info})
}

// Upload загружает gcode на принтер и ждет ответа принтера.
// @Summary Загрузить файл
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "gcode"
// @Param print formData bool false "Сразу начать печать"
// @Success 200 {object} models.UploadResponse
// @Failure 424 {object} models.ErrorResponse "Принтер отклонил файл"
// @Failure 504 {object} models.ErrorResponse "Превышено время загрузки"
// @Router /printer/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, err, "Missing file")
		return
	}

	startPrinting := false
	if raw := c.PostForm("print"); raw != "" {
		startPrinting, err = strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, err, "Invalid print flag")
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		h.InternalError(c, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.InternalError(c, err)
		return
	}

	short, err := h.usecase.Upload(c.Request.Context(), header.Filename, content, startPrinting)
	if err != nil {
		h.StorageError(c, err)
		return
	}

	h.logger.Info("File uploaded", "file", header.Filename, "short", short)
	c.JSON(http.StatusOK, models.UploadResponse{Status: "ok", ShortName: short})
}
