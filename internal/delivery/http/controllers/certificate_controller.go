package controllers

import (
	"log/slog"
	"net/http"

	"trainingportal/internal/delivery/http/helpers"
	"trainingportal/internal/domain"
)

// CertificateSuccessResponse is the success envelope of endpoints returning a single certificate.
type CertificateSuccessResponse struct {
	Data  *domain.Certificate `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// CertificateListSuccessResponse is the success envelope for GET /users/me/certificates (200).
type CertificateListSuccessResponse struct {
	Data  []*domain.Certificate `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// CertificateController serves certificate lookups.
type CertificateController struct {
	Logger  *slog.Logger
	Service domain.CertificateService
}

// NewCertificateController creates a CertificateController with the given logger and service.
func NewCertificateController(logger *slog.Logger, svc domain.CertificateService) *CertificateController {
	return &CertificateController{
		Logger:  logger,
		Service: svc,
	}
}

// ListMine godoc
// @Summary List my certificates
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.CertificateListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/certificates [get]
func (c *CertificateController) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	certs, err := c.Service.ListMine(r.Context(), p)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if certs == nil {
		certs = []*domain.Certificate{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, certs)
}

// Verify godoc
// @Summary Verify a certificate
// @Description Public. Looks a certificate up by its code.
// @Tags certificates
// @Produce json
// @Param code path string true "Certificate code"
// @Success 200 {object} controllers.CertificateSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /certificates/{code} [get]
func (c *CertificateController) Verify(w http.ResponseWriter, r *http.Request) {
	cert, err := c.Service.Verify(r.Context(), r.PathValue("code"))
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, cert)
}
