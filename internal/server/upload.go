package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicepos/internal/upload"
)

func (s *Server) UploadLogo(c *gin.Context) {
	s.handleUpload(c, upload.KindLogo)
}

func (s *Server) UploadSignature(c *gin.Context) {
	s.handleUpload(c, upload.KindSignature)
}

func (s *Server) handleUpload(c *gin.Context, kind upload.Kind) {
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	resp, err := s.uploadSvc.Store(c.Request.Context(), strings.TrimSpace(c.Param("id")), kind, header.Filename, file)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
