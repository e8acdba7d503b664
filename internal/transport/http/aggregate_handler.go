package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "groupagg/internal/errors"
	"groupagg/internal/exporter"
	"groupagg/internal/loader"
	groupmw "groupagg/internal/middleware"
	"groupagg/internal/services"
	"groupagg/internal/table"
)

const maxPrecision = 15

// AggregationServiceInterface runs one aggregation pass.
type AggregationServiceInterface interface {
	Aggregate(ctx context.Context, tbl *table.Table, req services.AggregateRequest) (*table.Table, error)
}

// AggregateRequest is the JSON body of POST /api/v1/aggregate.
type AggregateRequest struct {
	Columns  []services.ColumnSpec `json:"columns" validate:"required,min=1,dive"`
	Rows     [][]interface{}       `json:"rows"`
	GroupBy  []string              `json:"group_by" validate:"required,min=1,dive,required"`
	Compute  []string              `json:"compute" validate:"required,min=1,dive,computespec"`
	Ordering string                `json:"ordering,omitempty" validate:"omitempty,ordering"`
	Where    []string              `json:"where,omitempty"`
}

// uploadForm holds the multipart fields of POST /api/v1/aggregate/upload.
type uploadForm struct {
	GroupBy  []string `json:"group" validate:"required,min=1,dive,required"`
	Compute  []string `json:"compute" validate:"required,min=1,dive,computespec"`
	Ordering string   `json:"ordering" validate:"omitempty,ordering"`
	Where    []string `json:"where"`
	Sheet    string   `json:"sheet"`
}

// AggregateHandler serves the aggregation endpoints.
type AggregateHandler struct {
	service      AggregationServiceInterface
	validator    *groupmw.Validator
	errorHandler *apierrors.ErrorHandler
	query        *groupmw.QueryParamValidator
	loaderOpts   loader.Options
	maxUpload    int64
	logger       *slog.Logger
}

// NewAggregateHandler creates the handler. maxUpload bounds multipart bodies.
func NewAggregateHandler(
	service AggregationServiceInterface,
	validator *groupmw.Validator,
	errorHandler *apierrors.ErrorHandler,
	loaderOpts loader.Options,
	maxUpload int64,
	logger *slog.Logger,
) *AggregateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		query:        groupmw.NewQueryParamValidator(errorHandler),
		loaderOpts:   loaderOpts,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("component", "aggregate_handler")),
	}
}

// Routes returns the aggregation routes
func (h *AggregateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(groupmw.ContentTypeValidator(h.errorHandler, "application/json")).Post("/", h.Aggregate)
	r.With(groupmw.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/upload", h.Upload)
	return r
}

// Aggregate handles POST /api/v1/aggregate
func (h *AggregateHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	format, opts, ok := h.outputOptions(w, r)
	if !ok {
		return
	}

	var req AggregateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, decodeError(err))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	tbl, err := services.BuildTable(req.Columns, req.Rows)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.run(w, r, tbl, services.AggregateRequest{
		GroupBy:  req.GroupBy,
		Compute:  req.Compute,
		Ordering: req.Ordering,
		Where:    req.Where,
	}, format, opts)
}

// Upload handles POST /api/v1/aggregate/upload. The document is the "file"
// part; group and compute may repeat or hold comma-separated lists.
func (h *AggregateHandler) Upload(w http.ResponseWriter, r *http.Request) {
	format, opts, ok := h.outputOptions(w, r)
	if !ok {
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.errorHandler.HandleError(w, r, decodeError(err))
		return
	}

	form := uploadForm{
		GroupBy:  splitList(r.MultipartForm.Value["group"]),
		Compute:  splitList(r.MultipartForm.Value["compute"]),
		Ordering: r.FormValue("ordering"),
		Where:    r.MultipartForm.Value["where"],
		Sheet:    r.FormValue("sheet"),
	}
	if err := h.validator.ValidateStruct(&form); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors([]apierrors.ValidationError{
			{Field: "file", Message: "file is required"},
		}))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("request_id", groupmw.GetRequestID(r.Context())))

	tbl, err := services.LoadUpload(r.Context(), header.Filename, file, form.Sheet, h.loaderOpts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.run(w, r, tbl, services.AggregateRequest{
		GroupBy:  form.GroupBy,
		Compute:  form.Compute,
		Ordering: form.Ordering,
		Where:    form.Where,
	}, format, opts)
}

func (h *AggregateHandler) run(w http.ResponseWriter, r *http.Request, tbl *table.Table, req services.AggregateRequest, format exporter.Format, opts exporter.WriteOptions) {
	result, err := h.service.Aggregate(r.Context(), tbl, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "aggregation served",
		slog.Int("input_rows", tbl.Len()),
		slog.Int("groups", result.Len()),
		slog.String("format", string(format)),
		slog.String("request_id", groupmw.GetRequestID(r.Context())))

	h.writeTable(w, r, result, format, opts)
}

// outputQuery holds the query parameters shared by both endpoints.
type outputQuery struct {
	Format string `json:"format" validate:"omitempty,format"`
}

// outputOptions reads ?format= (default JSON) and ?precision= (default
// shortest representation).
func (h *AggregateHandler) outputOptions(w http.ResponseWriter, r *http.Request) (exporter.Format, exporter.WriteOptions, bool) {
	opts := exporter.DefaultWriteOptions()

	precision, ok := h.query.ValidateInt(w, r, "precision", -1, maxPrecision, opts.Precision)
	if !ok {
		return "", opts, false
	}
	opts.Precision = precision

	q := outputQuery{Format: r.URL.Query().Get("format")}
	if err := h.validator.ValidateStruct(&q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return "", opts, false
	}
	if q.Format == "" {
		return exporter.FormatJSON, opts, true
	}
	format, err := exporter.ParseFormat(q.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return "", opts, false
	}
	return format, opts, true
}

func (h *AggregateHandler) writeTable(w http.ResponseWriter, r *http.Request, tbl *table.Table, format exporter.Format, opts exporter.WriteOptions) {

	if format == exporter.FormatJSON {
		render.JSON(w, r, exporter.NewDocument(tbl, opts))
		return
	}

	switch format {
	case exporter.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case exporter.FormatTSV:
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	case exporter.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case exporter.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="aggregate.xlsx"`)
	}
	if err := exporter.Write(w, tbl, format, opts); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
	}
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), nil)
	}
	return apierrors.InvalidRequestWithError(err)
}

// splitList flattens repeated and comma-separated form values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
