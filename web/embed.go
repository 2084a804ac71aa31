// Package web holds the HTML templates for the storefront and back-office.
package web

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"kkmt-store/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"peso": peso,
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006 3:04 PM") },
	"add":  func(a, b int) int { return a + b },
	"sub":  func(a, b int) int { return a - b },
	"pageLink": func(path, query string, page int) template.URL {
		v, _ := url.ParseQuery(query)
		v.Set("page", strconv.Itoa(page))
		return template.URL(path + "?" + v.Encode())
	},
}

// Templates parses every page. Names are the file names, e.g. "home.html".
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html"))
}

func peso(v any) string {
	switch n := v.(type) {
	case decimal.Decimal:
		return models.FormatPeso(n)
	case float64:
		return models.FormatPeso(decimal.NewFromFloat(n))
	case int:
		return models.FormatPeso(decimal.NewFromInt(int64(n)))
	}
	return ""
}
