package main

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/repository"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/debemdeboas/inkwell/internal/theme"
	"github.com/debemdeboas/inkwell/internal/util"
)

func registerSiteRoutes(mux *http.ServeMux) {
	mux.HandleFunc(routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /editor\n"))
	})

	mux.Handle(config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(staticFS()))))
	mux.HandleFunc("GET "+routes.Article, serveArticle)
	mux.HandleFunc("POST "+routes.ThemeToggle, serveThemeToggle)
	mux.HandleFunc("POST "+routes.SyntaxThemeSet, serveSyntaxThemeSet)
	mux.HandleFunc("GET "+routes.SyntaxThemeGet, serveSyntaxThemeGet)
	mux.HandleFunc("GET "+routes.RootPath+"{$}", serveIndex)
}

func cacheIt(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")

		if strings.HasPrefix(r.URL.Path, config.StaticUrlPath) {
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
		}

		h(w, r)
	}
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")

		h(w, r)
	}
}

func parsePage(page string) (*template.Template, error) {
	return template.ParseFS(content, config.TemplatesLocalDir+"/"+config.TemplateLayout, config.TemplatesLocalDir+"/"+page)
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := parsePage(config.TemplateIndex)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		*model.PageData
		ArticlesPath string
		Articles     []model.Article
	}{
		PageData:     model.NewPageData(r),
		ArticlesPath: config.ArticlesUrlPath,
		Articles:     articleRepository.ListArticles(),
	}

	w.Header().Set(config.HETag, util.ContentHash([]byte(data.Theme+data.SyntaxTheme)))

	if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func serveArticle(w http.ResponseWriter, r *http.Request) {
	article, err := articleRepository.ReadArticle(r.Context(), r.PathValue("id"))
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, config.ErrArticleNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		mainLogger.Error().Err(err).Msg("Error reading article")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	// The cached article is shared, so render into a copy.
	view := *article
	view.Content = template.HTML(render.RenderCached("article:"+string(article.ID), string(article.Markdown)))

	tmpl, err := parsePage(config.TemplateArticle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		*model.PageData
		Article *model.Article
	}{
		PageData: model.NewPageData(r),
		Article:  &view,
	}

	w.Header().Set(config.HETag, util.ContentHash([]byte(article.ContentHash+data.Theme+data.SyntaxTheme)))

	if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func serveThemeToggle(w http.ResponseWriter, r *http.Request) {
	newTheme := theme.Opposite(theme.GetThemeFromRequest(r))

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieTheme,
		Value: newTheme,
		Path:  "/",
	})

	syntaxTheme := theme.GetDefaultSyntaxTheme(newTheme)
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil {
		syntaxTheme = cookie.Value
	}

	w.Header().Set("Hx-Trigger", fmt.Sprintf(`{"themeChanged":{"value":"%s","syntaxTheme":"%s"}}`, newTheme, syntaxTheme))
	redirectBack(w, r)
}

func serveSyntaxThemeSet(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("syntax-theme-select")
	if !theme.IsSyntaxTheme(name) {
		http.Error(w, "unknown syntax theme", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSyntaxTheme,
		Value:    name,
		Path:     "/",
		HttpOnly: true,
	})
	redirectBack(w, r)
}

func serveSyntaxThemeGet(w http.ResponseWriter, r *http.Request) {
	themeStyle := []byte(theme.GenerateSyntaxCSS(r.PathValue("theme")))

	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(themeStyle))
	w.WriteHeader(http.StatusOK)
	w.Write(themeStyle)
}

func redirectBack(w http.ResponseWriter, r *http.Request) {
	// Only the path is kept so the redirect stays on this site.
	target := routes.RootPath
	if u, err := url.Parse(r.Referer()); err == nil && strings.HasPrefix(u.Path, "/") {
		target = u.Path
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
