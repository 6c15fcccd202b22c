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

// DashboardHandler serves the main page: the task list plus the spending
// breakdown for the selected period.
type DashboardHandler struct {
	taskService     ports.TaskService
	spendingService ports.SpendingService
	authService     ports.AuthService
	logger          *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(taskService ports.TaskService, spendingService ports.SpendingService, authService ports.AuthService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		taskService:     taskService,
		spendingService: spendingService,
		authService:     authService,
		logger:          logger,
	}
}

// dashboardView is the data behind index.html. Plain values only; nothing
// from the persistence layer leaks into the template beyond these fields.
type dashboardView struct {
	Username string
	Tasks    []*entities.Task
	Totals   []entities.CategoryTotal
	Entries  []*entities.SpendingEntry
	Month    int
	Year     int
	Error    string
}

// editView is the data behind edit.html.
type editView struct {
	Task  *entities.Task
	Error string
}

// Dashboard renders the task list and the spending aggregation for the
// filter_month/filter_year query params, defaulting to the current period.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	period := filterPeriod(c)

	user, err := h.authService.GetUser(ctx, userID)
	if err != nil {
		return domainError(err)
	}

	tasks, err := h.taskService.ListByOwner(ctx, userID)
	if err != nil {
		return err
	}

	totals, err := h.spendingService.CategoryTotals(ctx, userID, int(period.Month), period.Year)
	if err != nil {
		return err
	}

	entries, err := h.spendingService.ListEntries(ctx, userID)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "index.html", dashboardView{
		Username: user.Username,
		Tasks:    tasks,
		Totals:   totals,
		Entries:  entries,
		Month:    int(period.Month),
		Year:     period.Year,
		Error:    c.QueryParam("err"),
	})
}

// CreateTask handles the dashboard's add-task form. Whitespace-only
// content is dropped silently; either way the browser goes back to the
// dashboard.
func (h *DashboardHandler) CreateTask(c echo.Context) error {
	_, err := h.taskService.Create(c.Request().Context(), currentUserID(c), c.FormValue("content"))
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

// EditPage renders the edit form for one task.
func (h *DashboardHandler) EditPage(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task id")
	}

	task, err := h.taskService.Get(c.Request().Context(), id, currentUserID(c))
	if err != nil {
		return domainError(err)
	}

	return c.Render(http.StatusOK, "edit.html", editView{Task: task})
}

// Edit updates a task's content.
func (h *DashboardHandler) Edit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task id")
	}

	content := c.FormValue("content")

	_, err = h.taskService.Edit(c.Request().Context(), id, currentUserID(c), content)
	if err != nil {
		if errors.Is(err, entities.ErrEmptyContent) {
			return c.Render(http.StatusBadRequest, "edit.html", editView{
				Task:  &entities.Task{ID: id, Content: content},
				Error: "Content cannot be empty.",
			})
		}
		return domainError(err)
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

// Delete removes one task (by id form field) or one whole spending
// category (by category form field), depending on the path type segment.
func (h *DashboardHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	switch c.Param("type") {
	case "task":
		id, err := strconv.ParseInt(c.FormValue("id"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid task id")
		}
		if err := h.taskService.Delete(ctx, id, userID); err != nil {
			return domainError(err)
		}
	case "spending":
		if _, err := h.spendingService.DeleteCategory(ctx, userID, c.FormValue("category")); err != nil {
			if errors.Is(err, entities.ErrEmptyCategory) {
				return echo.NewHTTPError(http.StatusBadRequest, "Category is required")
			}
			return err
		}
	default:
		return echo.NewHTTPError(http.StatusNotFound, "Unknown delete type")
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

// filterPeriod reads filter_month/filter_year, falling back to the current
// period for missing or unusable values.
func filterPeriod(c echo.Context) entities.Period {
	period := entities.CurrentPeriod()

	if monthStr := c.QueryParam("filter_month"); monthStr != "" {
		if month, err := strconv.Atoi(monthStr); err == nil {
			if p, err := entities.NewPeriod(month, period.Year); err == nil {
				period = p
			}
		}
	}
	if yearStr := c.QueryParam("filter_year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			period.Year = year
		}
	}

	return period
}
