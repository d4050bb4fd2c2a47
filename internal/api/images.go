package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/platform/imagestore"
)

// maxImageSize bounds uploads read into memory.
const maxImageSize = 10 << 20

// UploadImage stores a resized copy of the uploaded file and returns its public URL.
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Validation("file is required"))
		return
	}

	ext, err := imagestore.Extension(file.Filename)
	if err != nil {
		respondError(c, apperr.Validation("Invalid file type. Only JPEG, JPG, and PNG images are allowed."))
		return
	}
	if file.Size > maxImageSize {
		respondError(c, apperr.Validation("File too large"))
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, apperr.Wrap(err, apperr.TypeInternal, "UPLOAD_OPEN", "Internal server error"))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImageSize))
	if err != nil {
		respondError(c, apperr.Wrap(err, apperr.TypeInternal, "UPLOAD_READ", "Internal server error"))
		return
	}

	name, err := h.Images.Save(data, ext)
	if err != nil {
		if errors.Is(err, imagestore.ErrInvalidImage) {
			respondError(c, apperr.Validation("Invalid image"))
			return
		}
		respondError(c, apperr.Wrap(err, apperr.TypeInternal, "IMAGE_SAVE", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": "/images/" + name})
}
