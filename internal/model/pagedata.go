package model

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/theme"
)

type PageData struct {
	SiteName    string
	SiteTagline string

	PageURL string

	Theme     string
	ThemeIcon template.HTML

	SyntaxCSS    template.CSS
	SyntaxTheme  string
	SyntaxThemes []string

	IsEditorPage *bool
}

func NewPageData(r *http.Request) *PageData {
	syntaxtheme := theme.GetSyntaxThemeFromRequest(r)
	current := theme.GetThemeFromRequest(r)
	return &PageData{
		SiteName:     config.AppConfig.Site.Name,
		SiteTagline:  config.AppConfig.Site.Tagline,
		PageURL:      r.URL.Path,
		Theme:        current,
		ThemeIcon:    template.HTML(theme.GetThemeIcon(current)),
		SyntaxTheme:  syntaxtheme,
		SyntaxThemes: theme.GetSyntaxThemes(),
		SyntaxCSS:    theme.GenerateSyntaxCSS(syntaxtheme),
	}
}

func (pd *PageData) IsArticle() bool {
	return strings.HasPrefix(pd.PageURL, config.ArticlesUrlPath)
}

func (pd *PageData) IsEditor() bool {
	if pd.IsEditorPage == nil {
		return strings.HasPrefix(pd.PageURL, "/editor")
	}
	return *pd.IsEditorPage
}
