package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type certificateService interface {
	Eligibility(ctx context.Context, eventID, studentID string) (*models.CertificateEligibility, error)
	Generate(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.ExportFile, error)
	Verify(ctx context.Context, code string) (*models.CertificateVerification, error)
}

// CertificateHandler exposes certificate download and verification.
type CertificateHandler struct {
	service certificateService
}

// NewCertificateHandler constructs a CertificateHandler.
func NewCertificateHandler(svc certificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Download godoc
// @Summary Download participation certificate
// @Tags Certificates
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /events/{id}/certificate [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	file, err := h.service.Generate(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Title, file.Extension, file.Payload)
}

// Eligibility godoc
// @Summary Certificate eligibility for the caller
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/certificate/eligibility [get]
func (h *CertificateHandler) Eligibility(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.Eligibility(c.Request.Context(), id, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Verify godoc
// @Summary Verify a certificate code
// @Tags Certificates
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/verify/{code} [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
