package views

import (
	"embed"
	"html/template"

	"github.com/bluetecnologia/status_admin/internal/form"
	"github.com/bluetecnologia/status_admin/internal/models"
)

//go:embed templates/*.html
var files embed.FS

const (
	Layout = "layout"
	Title  = "Defensoria do Estado do Rio Grande do Sul"
)

// Page is what the layout renders: the listing plus the modal slot.
type Page struct {
	Title     string
	Services  []models.ServiceRecord
	ListError string
	Reserved  string
	Modal     form.View
}

func NewPage(services []models.ServiceRecord, modal form.View) Page {
	return Page{
		Title:    Title,
		Services: services,
		Reserved: models.ReservedServiceName,
		Modal:    modal,
	}
}

// Templates parses the embedded templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(files, "templates/*.html"))
}
