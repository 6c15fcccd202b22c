package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tasktally/core/internal/domain/entities"
	"github.com/tasktally/core/internal/infrastructure/logger"
	"github.com/tasktally/core/internal/ports"
)

// SpendingHandler serves the direct spending-add endpoint.
type SpendingHandler struct {
	spendingService ports.SpendingService
	logger          *logger.Logger
}

// NewSpendingHandler creates a new spending handler
func NewSpendingHandler(spendingService ports.SpendingService, logger *logger.Logger) *SpendingHandler {
	return &SpendingHandler{
		spendingService: spendingService,
		logger:          logger,
	}
}

// Add records one spending entry from the form fields and redirects back
// to the dashboard filtered on the entry's period. Validation failures
// redirect with a message instead of mutating anything.
func (h *SpendingHandler) Add(c echo.Context) error {
	userID := currentUserID(c)

	period := entities.CurrentPeriod()
	month, year := int(period.Month), period.Year

	if monthStr := c.FormValue("month"); monthStr != "" {
		m, err := strconv.Atoi(monthStr)
		if err != nil {
			return c.Redirect(http.StatusSeeOther, dashboardURL(month, year, "Month must be a number."))
		}
		month = m
	}
	if yearStr := c.FormValue("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			return c.Redirect(http.StatusSeeOther, dashboardURL(month, year, "Year must be a number."))
		}
		year = y
	}

	amount, err := strconv.ParseFloat(c.FormValue("amount"), 64)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, dashboardURL(month, year, "Amount must be a number."))
	}

	_, err = h.spendingService.AddEntry(c.Request().Context(), userID, c.FormValue("category"), amount, month, year)
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrInvalidAmount):
			return c.Redirect(http.StatusSeeOther, dashboardURL(month, year, "Amount must be positive."))
		case errors.Is(err, entities.ErrInvalidPeriod):
			return c.Redirect(http.StatusSeeOther, dashboardURL(int(period.Month), period.Year, "Month must be between 1 and 12."))
		}
		return err
	}

	return c.Redirect(http.StatusSeeOther, dashboardURL(month, year, ""))
}
