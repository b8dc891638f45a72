package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/airsage/backend/internal/dataset"
	"github.com/airsage/backend/internal/models"
	"github.com/airsage/backend/internal/store"
)

// recentReportLimit caps the per-user and global recent listings.
const recentReportLimit = 4

const helpText = `Air-quality stations API

GET  /health                    service and dataset cache status
GET  /api/states                distinct states in the dataset
GET  /api/stations/:state       stations in a state (path form)
GET  /api/stations?state=NAME   stations in a state (query form)
POST /api/reports               submit a CSV report (multipart: user_id, title, message?, file)
GET  /api/reports/recent        4 most recent reports
GET  /api/reports/user/:userID  4 most recent reports for a user
GET  /api/reports/approved      all approved reports
`

type Handler struct {
	cache   *dataset.Cache
	reports store.ReportStore
	blobs   *store.BlobStore
	log     zerolog.Logger
}

func NewHandler(cache *dataset.Cache, reports store.ReportStore, blobs *store.BlobStore, log zerolog.Logger) *Handler {
	return &Handler{cache: cache, reports: reports, blobs: blobs, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/states", h.ListStates)
	api.GET("/stations", h.StationsByQuery)
	api.GET("/stations/:state", h.StationsByPath)
	api.POST("/reports", h.SubmitReport)
	api.GET("/reports/recent", h.RecentReports)
	api.GET("/reports/approved", h.ApprovedReports)
	api.GET("/reports/user/:userID", h.UserReports)
}

func (h *Handler) Root(c echo.Context) error {
	return c.String(http.StatusOK, helpText)
}

// Health always answers 200; it reports cache state without triggering a
// load.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:        "ok",
		DatasetLoaded: h.cache.Loaded(),
		Rows:          h.cache.RowCount(),
	})
}

func (h *Handler) ListStates(c echo.Context) error {
	states, err := h.cache.States()
	if err != nil {
		return h.serverError(c, "failed to load dataset", err)
	}

	return c.JSON(http.StatusOK, states)
}

func (h *Handler) StationsByPath(c echo.Context) error {
	return h.stationsFor(c, c.Param("state"))
}

func (h *Handler) StationsByQuery(c echo.Context) error {
	state := c.QueryParam("state")
	if state == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "missing required query parameter: state",
		})
	}

	return h.stationsFor(c, state)
}

func (h *Handler) stationsFor(c echo.Context, state string) error {
	rows, err := h.cache.Load()
	if err != nil {
		return h.serverError(c, "failed to load dataset", err)
	}

	matched := dataset.FilterByState(rows, state)
	if len(matched) == 0 {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "no stations found",
			Details: fmt.Sprintf("state %q", state),
		})
	}

	return c.JSON(http.StatusOK, models.StationsResponse{
		State:    state,
		Count:    len(matched),
		Stations: matched,
	})
}

// SubmitReport runs the submission workflow: validate, persist the file,
// insert the report record, then append the id to the user's report list.
// Once the file is stored the endpoint answers 200 even if the store calls
// fail; those failures are reported in the body so the client knows the
// file itself was saved.
func (h *Handler) SubmitReport(c echo.Context) error {
	userID := strings.TrimSpace(c.FormValue("user_id"))
	title := strings.TrimSpace(c.FormValue("title"))
	message := c.FormValue("message")

	if userID == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing required field: user_id"})
	}

	if title == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing required field: title"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing required field: file"})
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("report_%s.csv", id)

	src, err := fileHeader.Open()
	if err != nil {
		return h.serverError(c, "failed to read upload", err)
	}
	defer src.Close()

	path, err := h.blobs.Persist(src, filename)
	if err != nil {
		return h.serverError(c, "failed to store upload", err)
	}

	now := time.Now().UTC()
	report := &models.Report{
		ID:          id,
		UserID:      userID,
		Title:       title,
		FileName:    filename,
		FilePath:    path,
		Status:      models.StatusSubmitted,
		Message:     message,
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	result := models.SubmissionResult{Report: *report}
	ctx := c.Request().Context()

	if _, err := h.reports.InsertReport(ctx, report); err != nil {
		h.log.Error().Err(err).Str("report_id", id).Msg("insert report failed")
		result.SubErrors = append(result.SubErrors, fmt.Sprintf("insert report: %v", err))

		return c.JSON(http.StatusOK, result)
	}

	ids, err := h.reports.FetchUserReportIDs(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("fetch user report ids failed")
		result.SubErrors = append(result.SubErrors, fmt.Sprintf("fetch user report list: %v", err))

		return c.JSON(http.StatusOK, result)
	}

	updated := append(ids, id)

	if err := h.reports.UpdateUserReportIDs(ctx, userID, updated); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("update user report ids failed")
		result.SubErrors = append(result.SubErrors, fmt.Sprintf("update user report list: %v", err))

		return c.JSON(http.StatusOK, result)
	}

	result.SubData = &models.SubmissionData{UserReportIDs: updated}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) UserReports(c echo.Context) error {
	return h.listReports(c, store.ReportQuery{
		UserID: c.Param("userID"),
		Limit:  recentReportLimit,
	})
}

func (h *Handler) RecentReports(c echo.Context) error {
	return h.listReports(c, store.ReportQuery{Limit: recentReportLimit})
}

func (h *Handler) ApprovedReports(c echo.Context) error {
	return h.listReports(c, store.ReportQuery{Status: models.StatusApproved})
}

func (h *Handler) listReports(c echo.Context, query store.ReportQuery) error {
	reports, err := h.reports.QueryReports(c.Request().Context(), query)
	if err != nil {
		return h.serverError(c, "failed to query reports", err)
	}

	if reports == nil {
		reports = []models.Report{}
	}

	return c.JSON(http.StatusOK, reports)
}

func (h *Handler) serverError(c echo.Context, msg string, err error) error {
	h.log.Error().Err(err).Str("path", c.Path()).Msg(msg)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   msg,
		Details: err.Error(),
	})
}
