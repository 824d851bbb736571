package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ITensEI/HCGateway/internal/api/metrics"
	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// SyncHandler exposes the Sync Store.
type SyncHandler struct {
	sync ports.SyncService
}

func NewSyncHandler(sync ports.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// partition builds the caller's partition for the :method path parameter.
func partition(c echo.Context) (domain.Partition, error) {
	userID, err := ctxUserID(c)
	if err != nil {
		return domain.Partition{}, err
	}
	return domain.Partition{UserID: userID, RecordType: c.Param("method")}, nil
}

// Upsert stores or replaces records of one type.
//
// @Summary      Sync records
// @Tags         sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        method  path      string          true  "Record type, e.g. steps"
// @Param        body    body      recordsRequest  true  "One record or a list of records"
// @Success      200     {object}  messageResponse
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      503     {object}  errorResponse
// @Router       /sync/{method} [post]
func (h *SyncHandler) Upsert(c echo.Context) error {
	p, err := partition(c)
	if err != nil {
		return err
	}

	var req recordsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	records, err := decodeRecords(req.Data)
	if err != nil {
		return err
	}

	if err := h.sync.Upsert(c.Request().Context(), p, records); err != nil {
		metrics.SyncErrorsTotal.WithLabelValues("upsert", domain.Code(err)).Inc()
		return err
	}
	metrics.RecordsTotal.WithLabelValues("upsert").Add(float64(len(records)))

	return c.JSON(http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("%d records synced", len(records)),
	})
}

// Fetch returns the decrypted records of one type matching an optional filter.
//
// @Summary      Fetch records
// @Tags         sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        method  path      string        true   "Record type, e.g. steps"
// @Param        body    body      fetchRequest  false  "Filter over id, app, start and end"
// @Success      200     {array}   object
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /fetch/{method} [post]
func (h *SyncHandler) Fetch(c echo.Context) error {
	p, err := partition(c)
	if err != nil {
		return err
	}

	var req fetchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	filter, err := decodeFilter(req.Queries)
	if err != nil {
		return err
	}

	records, err := h.sync.Fetch(c.Request().Context(), p, filter)
	if err != nil {
		metrics.SyncErrorsTotal.WithLabelValues("fetch", domain.Code(err)).Inc()
		return err
	}
	metrics.RecordsTotal.WithLabelValues("fetch").Add(float64(len(records)))

	return c.JSON(http.StatusOK, records)
}

// Delete removes records of one type by ID.
//
// @Summary      Delete records
// @Tags         sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        method  path      string      true  "Record type, e.g. steps"
// @Param        body    body      idsRequest  true  "One record ID or a list of IDs"
// @Success      200     {object}  messageResponse
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      503     {object}  errorResponse
// @Router       /sync/{method} [delete]
func (h *SyncHandler) Delete(c echo.Context) error {
	p, err := partition(c)
	if err != nil {
		return err
	}

	var req idsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	ids, err := decodeIDs(req.UUID)
	if err != nil {
		return err
	}

	if err := h.sync.Delete(c.Request().Context(), p, ids); err != nil {
		metrics.SyncErrorsTotal.WithLabelValues("delete", domain.Code(err)).Inc()
		return err
	}
	metrics.RecordsTotal.WithLabelValues("delete").Add(float64(len(ids)))

	return c.JSON(http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("%d records deleted", len(ids)),
	})
}
