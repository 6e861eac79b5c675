package httpjson

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodam-care/service-care-go/pkg/apperror"
)

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"kim"}`))
	require.NoError(t, Decode(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "kim", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.True(t, apperror.Is(Decode(httptest.NewRecorder(), r, &v), apperror.KindInvalid))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.True(t, apperror.Is(Decode(httptest.NewRecorder(), r, &v), apperror.KindInvalid))
}

func TestDecode_OversizedBodyIsRejected(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	body := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	err := Decode(httptest.NewRecorder(), r, &v)
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperror.HTTPStatus(err))
	assert.Empty(t, v.Name)
}

func TestError_WritesPublicMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, nil, apperror.Internal("login failed", assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"login failed"}`, rec.Body.String())
}
