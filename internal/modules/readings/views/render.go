package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"time"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Split out so tests can simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded dashboard templates. Call during startup
// before serving requests; on error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// BucketOption is one entry in the bucket selector.
type BucketOption struct {
	Key      string
	Label    string
	Selected bool
}

// ReadingRow is the view model for one table row.
type ReadingRow struct {
	ID        int64
	Timestamp time.Time
	DeviceID  string
	CPM       string
	ACPM      string
	USV       string
	Dose      string
}

// DashboardData feeds the dashboard template. SeriesJSON carries the
// aggregated chart series for the client-side canvas renderer.
type DashboardData struct {
	Theme      string
	Buckets    []BucketOption
	From       string
	To         string
	SeriesJSON template.JS
	Rows       []ReadingRow
	RowLimit   int
}

func RenderDashboard(w io.Writer, data DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}
