package careuser

import (
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/internal/auth"
	"github.com/sodam-care/service-care-go/internal/careuser/entity"
	"github.com/sodam-care/service-care-go/pkg/apperror"
	"github.com/sodam-care/service-care-go/pkg/httpjson"
)

const maxCSVBytes = 5 << 20

// Handler serves /care-users. All routes must sit behind auth.RequireAuth.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type BulkResponse struct {
	Count   int                `json:"count"`
	Records []*entity.CareUser `json:"records"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpjson.Error(w, h.logger, apperror.Unauthorized("missing bearer token"))
		return
	}
	var in CreateInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	c, err := h.svc.Create(r.Context(), owner, in)
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpjson.Error(w, h.logger, apperror.Unauthorized("missing bearer token"))
		return
	}
	list, err := h.svc.List(r.Context(), owner)
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

// CreateBulk accepts a JSON array, or a CSV document when the request is
// sent as text/csv.
func (h *Handler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpjson.Error(w, h.logger, apperror.Unauthorized("missing bearer token"))
		return
	}

	var (
		inputs []CreateInput
		err    error
	)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "text/csv" {
		inputs, err = ParseCSV(httpjson.LimitBody(w, r, maxCSVBytes))
	} else {
		err = httpjson.Decode(w, r, &inputs)
	}
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}

	records, err := h.svc.CreateBulk(r.Context(), owner, inputs)
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, BulkResponse{Count: len(records), Records: records})
}
