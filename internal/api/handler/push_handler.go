package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ITensEI/HCGateway/internal/api/metrics"
	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// PushHandler relays write and delete requests to the user's device.
type PushHandler struct {
	notify ports.NotificationService
}

func NewPushHandler(notify ports.NotificationService) *PushHandler {
	return &PushHandler{notify: notify}
}

// Push asks the device to write records into its local health store.
//
// @Summary      Push records to the device
// @Tags         push
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        method  path      string          true  "Record type, e.g. steps"
// @Param        body    body      recordsRequest  true  "One record or a list of records"
// @Success      200     {object}  messageResponse
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /push/{method} [put]
func (h *PushHandler) Push(c echo.Context) error {
	userID, err := ctxUserID(c)
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

	err = h.notify.Push(c.Request().Context(), userID, c.Param("method"), records)
	observe(domain.DeviceOpPush, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "request sent to device"})
}

// RequestDelete asks the device to delete records from its local health store.
//
// @Summary      Delete records on the device
// @Tags         push
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        method  path      string      true  "Record type, e.g. steps"
// @Param        body    body      idsRequest  true  "One record ID or a list of IDs"
// @Success      200     {object}  messageResponse
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /delete/{method} [delete]
func (h *PushHandler) RequestDelete(c echo.Context) error {
	userID, err := ctxUserID(c)
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

	err = h.notify.RequestDelete(c.Request().Context(), userID, c.Param("method"), ids)
	observe(domain.DeviceOpDelete, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "request sent to device"})
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = domain.Code(err)
	}
	metrics.DeviceMessagesTotal.WithLabelValues(op, result).Inc()
}
