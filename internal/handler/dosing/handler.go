package dosing

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/jwalitptl/gentacalc/internal/model"
	dosingService "github.com/jwalitptl/gentacalc/internal/service/dosing"
	"github.com/jwalitptl/gentacalc/pkg/httputil"
	"github.com/jwalitptl/gentacalc/pkg/validator"
)

const maxFormMemory = 32 << 10

type Handler struct {
	service   dosingService.DosingServicer
	validator *validator.Validator
}

func NewHandler(service dosingService.DosingServicer) *Handler {
	return &Handler{service: service, validator: validator.New()}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/dose", h.CalculateDose)
	r.GET("/guidance", h.GetGuidance)
}

// CalculateDose accepts a JSON object or form fields and returns the plan.
func (h *Handler) CalculateDose(c *gin.Context) {
	input, err := h.validator.ParsePatient(extractPayload(c))
	if err != nil {
		h.service.Reject("validation")
		h.fail(c, err)
		return
	}

	plan, err := h.service.Calculate(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	httputil.RespondWithJSON(c, model.NewPlanResponse(*plan))
}

func (h *Handler) GetGuidance(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.service.Guidance())
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	httputil.RespondWithError(c, err)
}

// extractPayload reads a JSON object when the request declares JSON and form
// fields otherwise. Bodies that are not a JSON object yield an empty payload.
func extractPayload(c *gin.Context) map[string]any {
	payload := map[string]any{}

	if c.ContentType() == binding.MIMEJSON {
		var decoded map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&decoded); err == nil && decoded != nil {
			return decoded
		}
		return payload
	}

	// Non-multipart bodies report ErrNotMultipart after the urlencoded form
	// has been parsed.
	_ = c.Request.ParseMultipartForm(maxFormMemory)
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}
	return payload
}
