package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms/backend/internal/interfaces/http/dto"
)

type createPickBody struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
	Note    string `json:"note" binding:"omitempty,max=10"`
}

func bindFailure(t *testing.T, body string) error {
	t.Helper()
	SetupValidator()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/picks", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req createPickBody
	err := c.ShouldBindJSON(&req)
	require.Error(t, err)
	return err
}

func TestFormatValidationErrors_UsesWireFieldNames(t *testing.T) {
	err := bindFailure(t, `{"note": "this note is far too long"}`)

	resp := FormatValidationErrors(err, "req-99")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-99", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", fields["order_id"])
	assert.Equal(t, "Must be at most 10 characters", fields["note"])
}

func TestFormatValidationErrors_BadUUID(t *testing.T) {
	err := bindFailure(t, `{"order_id": "not-a-uuid"}`)

	resp := FormatValidationErrors(err, "")

	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "order_id", resp.Error.Details[0].Field)
	assert.Equal(t, "Invalid UUID format", resp.Error.Details[0].Message)
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError_Writes400WithRequestID(t *testing.T) {
	err := bindFailure(t, `{}`)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/picks", nil)
	c.Set("request_id", "req-42")

	HandleValidationError(c, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	assert.NotEmpty(t, resp.Error.Details)
}
