package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/response"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed assets
	assetFS embed.FS
)

const (
	pageLogin     = "login"
	pageDashboard = "dashboard"
	pageResults   = "results"
	pageError     = "error"
)

type views struct {
	pages map[string]*template.Template
}

func parseViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageLogin, pageDashboard, pageResults, pageError} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		v.pages[page] = t
	}
	return v, nil
}

func (v *views) render(page string, data pageData, status int) handler.Response {
	return response.NoStore(response.TemplateWithStatus(v.pages[page], "layout", data, status))
}

type pageData struct {
	Title    string
	Flash    string
	Identity string
	Session  bool
	Demo     bool
	Student  *studentView
	Status   int
	Message  string
}

type studentView struct {
	Name        string
	Email       string
	Initial     string
	Category    string
	Test        record.TestDetails
	Overall     string
	Scores      []scoreView
	ArtifactURL string
}

type scoreView struct {
	Name string
	Band string
}

func newStudentView(rec record.Record) *studentView {
	sv := &studentView{
		Name:     rec.DisplayName,
		Email:    rec.Identity,
		Initial:  rec.Initial(),
		Category: rec.Category(),
		Test:     rec.Test,
		Overall:  rec.Scores.OverallLabel(),
	}
	for _, sc := range rec.Scores.Components() {
		sv.Scores = append(sv.Scores, scoreView{Name: sc.Name, Band: record.FormatBand(sc.Score)})
	}
	if rec.HasArtifact() {
		sv.ArtifactURL = "/file/" + url.PathEscape(rec.ArtifactRef)
	}
	return sv
}

func errorData(status int) pageData {
	return pageData{
		Title:   http.StatusText(status),
		Status:  status,
		Message: errorMessage(status),
	}
}

func errorMessage(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "The page you are looking for does not exist."
	case status == http.StatusTooManyRequests:
		return "Too many attempts. Please wait a moment and try again."
	case status >= http.StatusInternalServerError:
		return "Something went wrong on our side. Please try again later."
	default:
		return http.StatusText(status)
	}
}
