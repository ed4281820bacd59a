package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
)

var dashboardTmpl *template.Template

var errNotLoaded = errors.New("dashboard template not loaded: call views.LoadTemplates during startup")

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

func render(w io.Writer, name string, data any) error {
	if dashboardTmpl == nil {
		return errNotLoaded
	}
	return dashboardTmpl.ExecuteTemplate(w, name, data)
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	return render(w, "dashboard.html", data)
}

// RenderLatestPartial executes only the latest-reading cards.
// Use for HTMX fragment refresh.
func RenderLatestPartial(w io.Writer, data *LatestData) error {
	return render(w, "latest", data)
}

// RenderHistoryPartial executes only the history table and its pagination bar.
func RenderHistoryPartial(w io.Writer, data *HistoryData) error {
	return render(w, "history", data)
}

func RenderHourlyPartial(w io.Writer, data *HourlyData) error {
	return render(w, "hourly", data)
}
