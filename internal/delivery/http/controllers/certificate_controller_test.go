package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trainingportal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCertificateService struct {
	certs    []*domain.Certificate
	err      error
	lastCode string
}

func (f *fakeCertificateService) Issue(ctx context.Context, issuerID, programID, userID string) (*domain.Certificate, error) {
	return nil, f.err
}

func (f *fakeCertificateService) ListMine(ctx context.Context, actor *domain.Principal) ([]*domain.Certificate, error) {
	return f.certs, f.err
}

func (f *fakeCertificateService) Verify(ctx context.Context, code string) (*domain.Certificate, error) {
	f.lastCode = code
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Certificate{Code: code, ProgramID: programID, UserID: userID}, nil
}

func TestCertificateController_ListMine(t *testing.T) {
	svc := &fakeCertificateService{certs: []*domain.Certificate{{Code: "c-1"}, {Code: "c-2"}}}
	c := NewCertificateController(testLogger(), svc)
	rr := httptest.NewRecorder()
	c.ListMine(rr, newRequest(t, http.MethodGet, "/users/me/certificates", nil, trainee))

	require.Equal(t, http.StatusOK, rr.Code)
	var certs []*domain.Certificate
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &certs))
	assert.Len(t, certs, 2)

	rr = httptest.NewRecorder()
	c.ListMine(rr, newRequest(t, http.MethodGet, "/users/me/certificates", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCertificateController_Verify(t *testing.T) {
	const code = "0d3c9a1e-2b4f-4c6d-8e7f-9a0b1c2d3e4f"

	svc := &fakeCertificateService{}
	c := NewCertificateController(testLogger(), svc)
	rr := httptest.NewRecorder()
	c.Verify(rr, newRequest(t, http.MethodGet, "/certificates/"+code, nil, nil, "code", code))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, code, svc.lastCode)

	c = NewCertificateController(testLogger(), &fakeCertificateService{err: domain.ErrNotFound})
	rr = httptest.NewRecorder()
	c.Verify(rr, newRequest(t, http.MethodGet, "/certificates/nope", nil, nil, "code", "nope"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
