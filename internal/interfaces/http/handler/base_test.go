package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/salesdesk/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter() *gin.Engine {
	return gin.New()
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Success(c, map[string]string{"name": "Wireless Mouse"})

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Wireless Mouse", body["name"])
}

func TestBaseHandler_Created(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Created(c, map[string]uint{"id": 7})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBaseHandler_NoContent(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.NoContent(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandler_HandleError_DomainError(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.HandleError(c, shared.NewNotFound("Product 9 not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeErrorResponse(t, w)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, dto.StatusError, resp.Status)
	assert.Equal(t, "Product 9 not found", resp.Message)
}

func TestBaseHandler_HandleError_UnknownError(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.HandleError(c, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decodeErrorResponse(t, w)
	assert.NotContains(t, resp.Message, "dial tcp")
	assert.Nil(t, resp.Metadata)
}

func TestBaseHandler_BindingError_NonValidatorError(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.BindingError(c, errors.New("unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeErrorResponse(t, w)
	assert.Equal(t, "Invalid request body", resp.Message)
}

func TestBaseHandler_BadRequest(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.BadRequest(c, "Invalid cursor")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeErrorResponse(t, w)
	assert.Equal(t, "Invalid cursor", resp.Message)
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    uint
		wantErr bool
	}{
		{name: "valid", raw: "42", want: 42},
		{name: "garbage", raw: "abc", wantErr: true},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-3", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.raw}}

			id, err := parseID(c, "id")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsKind(err, shared.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantSkip int
		wantTake int
		wantErr  bool
	}{
		{name: "defaults", query: "", wantSkip: 0, wantTake: 20},
		{name: "explicit", query: "skip=40&take=10", wantSkip: 40, wantTake: 10},
		{name: "take clamped", query: "take=5000", wantSkip: 0, wantTake: 100},
		{name: "negative skip clamped", query: "skip=-5", wantSkip: 0, wantTake: 20},
		{name: "garbage skip", query: "skip=abc", wantErr: true},
		{name: "garbage take", query: "take=ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			page, err := parsePage(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsKind(err, shared.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, page.Skip)
			assert.Equal(t, tt.wantTake, page.Take)
		})
	}
}
