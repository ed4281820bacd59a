package controller

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/repository"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/views"
	"github.com/ClaudineiMS/gdash/internal/utils"
)

func (c *weatherControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	latest, err := c.latestData(r.Context())
	if err != nil {
		slog.Error("dashboard: get latest failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load latest reading")
		return
	}
	history, err := c.historyData(r.Context(), 1)
	if err != nil {
		slog.Error("dashboard: get history failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	hourly, status, err := c.hourlyData(r)
	if err != nil {
		utils.WriteError(w, status, err.Error())
		return
	}

	data := views.DashboardData{Latest: latest, History: history, Hourly: hourly}
	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, &data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *weatherControllerImpl) handleLatestPartial(w http.ResponseWriter, r *http.Request) {
	data, err := c.latestData(r.Context())
	if err != nil {
		slog.Error("latest partial: get latest failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load latest reading")
		return
	}
	var buf bytes.Buffer
	if err := views.RenderLatestPartial(&buf, &data); err != nil {
		slog.Error("latest partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *weatherControllerImpl) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	data, err := c.historyData(r.Context(), parseHistoryPage(r))
	if err != nil {
		slog.Error("history partial: get readings failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	var buf bytes.Buffer
	if err := views.RenderHistoryPartial(&buf, &data); err != nil {
		slog.Error("history partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *weatherControllerImpl) handleHourlyPartial(w http.ResponseWriter, r *http.Request) {
	data, status, err := c.hourlyData(r)
	if err != nil {
		utils.WriteError(w, status, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := views.RenderHourlyPartial(&buf, &data); err != nil {
		slog.Error("hourly partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *weatherControllerImpl) latestData(ctx context.Context) (views.LatestData, error) {
	rec, err := c.repository.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return views.LatestData{}, nil
	}
	if err != nil {
		return views.LatestData{}, err
	}
	row := views.NewReadingRow(rec, c.location)
	return views.LatestData{Reading: &row}, nil
}

func (c *weatherControllerImpl) historyData(ctx context.Context, page int) (views.HistoryData, error) {
	items, total, err := c.repository.Page(ctx, page, c.pageSize)
	if err != nil {
		return views.HistoryData{}, err
	}
	p := types.NewPage(items, page, c.pageSize, total)

	rows := make([]views.ReadingRow, 0, len(p.Items))
	for _, rec := range p.Items {
		rows = append(rows, views.NewReadingRow(rec, c.location))
	}
	return views.HistoryData{
		Rows:        rows,
		Total:       p.Total,
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages,
		HasPrev:     p.Page > 1,
		HasNext:     p.Page < p.TotalPages,
		PrevPage:    p.Page - 1,
		NextPage:    p.Page + 1,
		PageItems:   buildHistoryPageItems(p.TotalPages, p.Page),
	}, nil
}

// hourlyData returns the status to use when err is non-nil; err is then safe
// to show to the client.
func (c *weatherControllerImpl) hourlyData(r *http.Request) (views.HourlyData, int, error) {
	resp, err := c.hourly(r)
	if err != nil {
		var reqErr badRequestError
		if errors.As(err, &reqErr) {
			return views.HourlyData{}, http.StatusBadRequest, err
		}
		slog.Error("hourly summary failed", "error", err)
		return views.HourlyData{}, http.StatusInternalServerError, errors.New("failed to load hourly summary")
	}

	loc, _ := parseLocation(r, c.location)
	insights, err := c.insights(r, loc)
	if err != nil {
		slog.Error("insights failed", "error", err)
		return views.HourlyData{}, http.StatusInternalServerError, errors.New("failed to load insights")
	}
	return views.HourlyData{
		Date:     resp.Date,
		TZ:       resp.TZ,
		Series:   resp.Series,
		Hours:    views.NewHourRows(resp.Hours),
		Skipped:  resp.Skipped,
		Insights: &insights,
	}, 0, nil
}
