package config

const (
	//? These paths must match the paths in the embed directive

	StaticLocalDir = "static"
	StaticUrlPath  = "/" + StaticLocalDir + "/"

	ArticlesLocalDir = "articles"
	ArticlesUrlPath  = "/" + ArticlesLocalDir + "/"

	TemplatesLocalDir = "templates"

	TemplateLayout  = "layout.html"
	TemplateIndex   = "index.html"
	TemplateArticle = "article.html"
	TemplateEditor  = "editor.html"
)
