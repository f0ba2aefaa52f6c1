package render

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// PageData is everything the form page shows.
type PageData struct {
	// Location is echoed back into the location field.
	Location string

	// IncludeAQI preselects the air quality option.
	IncludeAQI bool

	// Alert is a blocking validation message, if any.
	Alert string

	Display Snapshot
}

// WritePage renders the form page with the current display.
func WritePage(w io.Writer, data PageData) error {
	return pageTemplate.ExecuteTemplate(w, "page.html", data)
}
