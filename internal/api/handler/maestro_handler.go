package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// MaestroHandler serves the maestro routes and their balance views.
type MaestroHandler struct {
	service ports.LedgerService
}

func NewMaestroHandler(service ports.LedgerService) *MaestroHandler {
	return &MaestroHandler{service: service}
}

// List returns every maestro in creation order.
//
// @Summary      List maestros
// @Tags         maestros
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   maestroResponse
// @Failure      401  {object}  map[string]string
// @Router       /maestros [get]
func (h *MaestroHandler) List(c echo.Context) error {
	list, err := h.service.ListMaestros(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMaestroList(list))
}

// Create opens a maestro. The optional saldo is its opening balance.
//
// @Summary      Create maestro
// @Tags         maestros
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createMaestroRequest  true  "Maestro"
// @Success      201   {object}  maestroResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /maestros [post]
func (h *MaestroHandler) Create(c echo.Context) error {
	var req createMaestroRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	saldo := decimal.Zero
	if req.Saldo != nil {
		var err error
		if saldo, err = domain.AmountFromFloat("saldo", *req.Saldo); err != nil {
			return err
		}
	}

	m, err := h.service.CreateMaestro(c.Request().Context(), callerFrom(c), ports.CreateMaestroInput{
		Nombre:       req.Nombre,
		SaldoInicial: saldo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMaestroResponse(*m))
}

// Get returns one maestro.
//
// @Summary      Get maestro
// @Tags         maestros
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Maestro id"
// @Success      200  {object}  maestroResponse
// @Failure      404  {object}  map[string]string
// @Router       /maestros/{id} [get]
func (h *MaestroHandler) Get(c echo.Context) error {
	m, err := h.service.GetMaestro(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMaestroResponse(*m))
}

// Balance recomputes the saldo from history and compares it with the stored one.
//
// @Summary      Recompute balance
// @Tags         maestros
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Maestro id"
// @Success      200  {object}  balanceResponse
// @Failure      404  {object}  map[string]string
// @Router       /maestros/{id}/balance [get]
func (h *MaestroHandler) Balance(c echo.Context) error {
	check, err := h.service.RecomputeBalance(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBalanceResponse(check))
}

// BalanceHistory returns the running balance after each movement.
//
// @Summary      Balance history
// @Tags         maestros
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Maestro id"
// @Success      200  {array}   balancePointResponse
// @Failure      404  {object}  map[string]string
// @Router       /maestros/{id}/balance-history [get]
func (h *MaestroHandler) BalanceHistory(c echo.Context) error {
	points, err := h.service.BalanceHistory(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBalanceHistory(points))
}
