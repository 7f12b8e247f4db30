package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

// SnapshotHandler serves stored snapshots.
type SnapshotHandler struct {
	reader ports.SnapshotReader
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(reader ports.SnapshotReader) *SnapshotHandler {
	return &SnapshotHandler{reader: reader}
}

// ListSnapshots handles GET /api/v1/snapshots
// Returns the stored dates, newest first.
//
// @Summary List stored snapshots
// @Tags snapshots
// @Produce json
// @Param limit query int false "Page size (1-100)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} dto.PaginatedResponse[dto.SnapshotSummary]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/snapshots [get]
func (h *SnapshotHandler) ListSnapshots(c *gin.Context) {
	var req dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	dates, err := h.reader.List(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	summaries := make([]dto.SnapshotSummary, len(dates))
	for i, d := range dates {
		summaries[i] = dto.SnapshotSummary{Date: d}
	}

	page, err := dto.Paginate(summaries, req, func(s dto.SnapshotSummary) string { return s.Date })
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetSnapshot handles GET /api/v1/snapshots/:date
// Returns every category of the snapshot in harvest order.
//
// @Summary Get a snapshot by date
// @Tags snapshots
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.SnapshotResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/snapshots/{date} [get]
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	var path dto.SnapshotPath
	if err := dto.BindURIAndValidate(c, &path); err != nil {
		dto.HandleError(c, err)
		return
	}

	snapshot, err := h.reader.Read(c.Request.Context(), path.Date)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSnapshotResponse(path.Date, snapshot))
}

// GetCategory handles GET /api/v1/snapshots/:date/categories/:category
//
// @Summary Get one category of a snapshot
// @Tags snapshots
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param category path string true "Category name"
// @Success 200 {object} dto.CategoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/snapshots/{date}/categories/{category} [get]
func (h *SnapshotHandler) GetCategory(c *gin.Context) {
	var path dto.CategoryPath
	if err := dto.BindURIAndValidate(c, &path); err != nil {
		dto.HandleError(c, err)
		return
	}

	snapshot, err := h.reader.Read(c.Request.Context(), path.Date)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	result, ok := snapshot.Get(path.Category)
	if !ok {
		dto.HandleError(c, domain.NewNotFoundError("category", path.Category))
		return
	}

	c.JSON(http.StatusOK, dto.NewCategoryResponse(path.Category, result))
}

// RegisterSnapshotRoutes registers snapshot routes on the given router group.
func (h *SnapshotHandler) RegisterSnapshotRoutes(rg *gin.RouterGroup) {
	snapshots := rg.Group("/snapshots")
	snapshots.GET("", h.ListSnapshots)
	snapshots.GET("/:date", h.GetSnapshot)
	snapshots.GET("/:date/categories/:category", h.GetCategory)
}
