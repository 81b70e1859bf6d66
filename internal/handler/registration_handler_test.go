package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/handler"
	"github.com/noah-isme/tutela-go-api/internal/service"
)

type mockRegistrationService struct {
	lastToken   string
	lastPayload dto.RegistrationRequest
	response    dto.PersonResponse
	err         error
}

func (m *mockRegistrationService) Register(_ context.Context, token string, req dto.RegistrationRequest) (dto.PersonResponse, error) {
	m.lastToken = token
	m.lastPayload = req
	if m.err != nil {
		return dto.PersonResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockRegistrationService) GetPerson(_ context.Context, _ uint) (dto.PersonResponse, error) {
	if m.err != nil {
		return dto.PersonResponse{}, m.err
	}
	return m.response, nil
}

func newRegistrationApp(svc service.RegistrationService) *fiber.App {
	app := fiber.New()
	handler.NewRegistrationHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/registrations"))
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func TestRegistrationHandler_SubmitSuccess(t *testing.T) {
	svc := &mockRegistrationService{response: dto.PersonResponse{ID: 7, EntityID: 1, Role: "contact_staff", Status: "in_progress"}}
	app := newRegistrationApp(svc)

	payload := dto.RegistrationRequest{
		Role:     "contact_staff",
		FullName: "Alice Carter",
		Email:    "alice@example.com",
		ContactStaff: &dto.ContactStaffPayload{
			LegalID:  "12345678Z",
			Position: "Coach",
			Site:     "Main hall",
			Schedule: "Weekdays",
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/tok-abc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool               `json:"success"`
		Data    dto.PersonResponse `json:"data"`
		Message string             `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "registration accepted", response.Message)
	require.Equal(t, uint(7), response.Data.ID)
	require.Equal(t, "tok-abc", svc.lastToken)
	require.Equal(t, "alice@example.com", svc.lastPayload.Email)
}

func TestRegistrationHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "scope mismatch", err: service.ErrRoleScopeMismatch, statusCode: fiber.StatusForbidden},
		{name: "token not found", err: service.ErrTokenNotFound, statusCode: fiber.StatusNotFound},
		{name: "token expired", err: service.ErrTokenExpired, statusCode: fiber.StatusGone},
		{name: "token used", err: service.ErrTokenAlreadyUsed, statusCode: fiber.StatusConflict},
		{name: "payload missing", err: service.ErrRolePayloadMissing, statusCode: fiber.StatusBadRequest},
		{name: "children required", err: service.ErrChildrenRequired, statusCode: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newRegistrationApp(&mockRegistrationService{err: tc.err})

			payload := dto.RegistrationRequest{Role: "guardian", FullName: "Bob", Email: "bob@example.com"}
			body, err := json.Marshal(payload)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/tok-abc", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestRegistrationHandler_GetPersonNotFound(t *testing.T) {
	app := newRegistrationApp(&mockRegistrationService{err: gorm.ErrRecordNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations/persons/99", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRegistrationHandler_GetPersonInvalidID(t *testing.T) {
	app := newRegistrationApp(&mockRegistrationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations/persons/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
