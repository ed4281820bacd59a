package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/aggregate"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/export"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/repository"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
	"github.com/ClaudineiMS/gdash/internal/utils"
)

// writeRepoError maps repository failures onto HTTP statuses.
func writeRepoError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, repository.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	slog.Error(op+" failed", "error", err)
	utils.WriteError(w, http.StatusInternalServerError, "failed to "+op)
}

func (c *weatherControllerImpl) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := c.repository.Create(r.Context(), in)
	if err != nil {
		writeRepoError(w, err, "store reading")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rec)
}

func (c *weatherControllerImpl) handleList(w http.ResponseWriter, r *http.Request) {
	readings, err := c.repository.FindAll(r.Context())
	if err != nil {
		writeRepoError(w, err, "load readings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}

func (c *weatherControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := c.repository.Latest(r.Context())
	if err != nil {
		writeRepoError(w, err, "load latest reading")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rec)
}

func (c *weatherControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	page := parseHistoryPage(r)
	limit, err := parseLimit(r, c.pageSize)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := c.repository.Page(r.Context(), page, limit)
	if err != nil {
		writeRepoError(w, err, "load history")
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.NewPage(items, page, limit, total))
}

func (c *weatherControllerImpl) handleDay(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocation(r, c.location)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to, err := parseDay(r, loc, c.now())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	readings, err := c.repository.FindBetween(r.Context(), from, to)
	if err != nil {
		writeRepoError(w, err, "load day")
		return
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}

type hourlyResponse struct {
	Date    string                    `json:"date"`
	TZ      string                    `json:"tz"`
	Series  string                    `json:"series"`
	Hours   []aggregate.HourlySummary `json:"hours"`
	Skipped int                       `json:"skipped"`
}

func (c *weatherControllerImpl) handleHourly(w http.ResponseWriter, r *http.Request) {
	resp, err := c.hourly(r)
	if err != nil {
		var reqErr badRequestError
		if errors.As(err, &reqErr) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err, "load hourly summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

type badRequestError struct{ error }

// hourly runs the aggregator over the requested local day.
func (c *weatherControllerImpl) hourly(r *http.Request) (hourlyResponse, error) {
	loc, err := parseLocation(r, c.location)
	if err != nil {
		return hourlyResponse{}, badRequestError{err}
	}
	from, to, err := parseDay(r, loc, c.now())
	if err != nil {
		return hourlyResponse{}, badRequestError{err}
	}
	name, series, err := parseSeries(r)
	if err != nil {
		return hourlyResponse{}, badRequestError{err}
	}
	readings, err := c.repository.FindBetween(r.Context(), from, to)
	if err != nil {
		return hourlyResponse{}, err
	}
	hours, skipped := aggregate.ByHour(readings, loc, series)
	return hourlyResponse{
		Date:    from.Format(dateLayout),
		TZ:      loc.String(),
		Series:  name,
		Hours:   hours,
		Skipped: skipped,
	}, nil
}

func (c *weatherControllerImpl) handleInsights(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocation(r, c.location)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	insights, err := c.insights(r, loc)
	if err != nil {
		writeRepoError(w, err, "load insights")
		return
	}
	utils.WriteJSON(w, http.StatusOK, insights)
}

// insights summarizes the 24 hours before now.
func (c *weatherControllerImpl) insights(r *http.Request, loc *time.Location) (aggregate.Insights, error) {
	to := c.now().UTC()
	from := to.Add(-24 * time.Hour)
	readings, err := c.repository.FindBetween(r.Context(), from, to)
	if err != nil {
		return aggregate.Insights{}, err
	}
	return aggregate.Summarize(readings, from, to, loc), nil
}

func (c *weatherControllerImpl) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	readings, err := c.repository.FindForExport(r.Context())
	if err != nil {
		writeRepoError(w, err, "export readings")
		return
	}
	body := export.CSV(readings, export.DefaultColumns)
	utils.WriteAttachment(w, csvContentType, "weather.csv", []byte(body))
}

func (c *weatherControllerImpl) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	readings, err := c.repository.FindForExport(r.Context())
	if err != nil {
		writeRepoError(w, err, "export readings")
		return
	}
	buf, err := export.XLSX(readings, export.DefaultColumns)
	if err != nil {
		slog.Error("build workbook failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	utils.WriteAttachment(w, xlsxContentType, "weather.xlsx", buf.Bytes())
}

func (c *weatherControllerImpl) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := c.repository.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoError(w, err, "load reading")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rec)
}

func (c *weatherControllerImpl) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := c.repository.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeRepoError(w, err, "update reading")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rec)
}

func (c *weatherControllerImpl) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := c.repository.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, err, "delete reading")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
