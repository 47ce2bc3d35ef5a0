package dosing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/gentacalc/internal/model"
	"github.com/jwalitptl/gentacalc/pkg/errors"
)

type stubService struct {
	plan     *model.DosingPlan
	err      error
	rejected []string
	got      model.PatientInput
}

func (s *stubService) Calculate(_ context.Context, input model.PatientInput) (*model.DosingPlan, error) {
	s.got = input
	return s.plan, s.err
}

func (s *stubService) Guidance() map[string]string {
	return map[string]string{"contraindications": "Myasthenia gravis"}
}

func (s *stubService) Reject(reason string) {
	s.rejected = append(s.rejected, reason)
}

func newEngine(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func post(r *gin.Engine, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/dose", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validJSON = `{"sex":"mann","age":"45","weight":"80","creatinine":"70","mg_per_kg":"7","first_dose_hour":"20"}`

func TestCalculateDose_BusinessRule(t *testing.T) {
	svc := &stubService{err: errors.NewBusinessRule("Kalkulatoren støtter ikke pasienter under 16 år.", nil)}

	w := post(newEngine(svc), "application/json", validJSON)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"Kalkulatoren støtter ikke pasienter under 16 år."}`, w.Body.String())
}

func TestCalculateDose_PassesParsedInput(t *testing.T) {
	first := 600
	svc := &stubService{plan: &model.DosingPlan{FirstDoseMg: &first}}

	w := post(newEngine(svc), "application/json; charset=utf-8", validJSON)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.SexMale, svc.got.Sex)
	assert.Equal(t, 20, svc.got.FirstDoseHour)
	assert.Nil(t, svc.got.HeightCm)
	assert.Contains(t, w.Body.String(), `"first_dose_mg":600`)
	assert.Contains(t, w.Body.String(), `"alerts":[]`)
}

func TestCalculateDose_ValidationCountsRejection(t *testing.T) {
	svc := &stubService{}

	w := post(newEngine(svc), "application/x-www-form-urlencoded", "sex=mann&age=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Alder må være et tall"}`, w.Body.String())
	assert.Equal(t, []string{"validation"}, svc.rejected)
}

func TestGetGuidance(t *testing.T) {
	r := newEngine(&stubService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/guidance", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"contraindications":"Myasthenia gravis"}}`, w.Body.String())
}
