package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /movements safely.
const HeaderIdempotencyKey = "Idempotency-Key"

type MovementHandler struct {
	service ports.LedgerService
}

func NewMovementHandler(service ports.LedgerService) *MovementHandler {
	return &MovementHandler{service: service}
}

// List returns movements in insertion order, optionally for one maestro.
//
// @Summary      List movements
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Param        maestroId  query     string  false  "Filter by maestro"
// @Success      200        {array}   movementResponse
// @Failure      401        {object}  map[string]string
// @Router       /movements [get]
func (h *MovementHandler) List(c echo.Context) error {
	list, err := h.service.ListMovements(c.Request().Context(), callerFrom(c), c.QueryParam("maestroId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovementList(list))
}

// Create records a movement and applies it to the maestro's saldo. A repeated
// Idempotency-Key returns the original movement with 200.
//
// @Summary      Record movement
// @Tags         movements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Client retry key"
// @Param        body             body      createMovementRequest  true   "Movement"
// @Success      201              {object}  createMovementResponse
// @Success      200              {object}  createMovementResponse
// @Failure      400              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Router       /movements [post]
func (h *MovementHandler) Create(c echo.Context) error {
	var req createMovementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cantidad, err := domain.AmountFromFloat("cantidad", req.Cantidad)
	if err != nil {
		return err
	}

	result, err := h.service.CreateMovement(c.Request().Context(), callerFrom(c), ports.CreateMovementInput{
		MaestroID:      req.MaestroID,
		Tipo:           domain.MovementType(req.Tipo),
		Cantidad:       cantidad,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, toCreateMovementResponse(result))
}
