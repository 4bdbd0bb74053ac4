// Package routes defines HTTP route constants for the application.
package routes

// Site routes
const (
	RobotsPath     = "/robots.txt"
	ThemeToggle    = "/theme/toggle"
	SyntaxThemeSet = "/syntax-theme/set"
	SyntaxThemeGet = "/syntax-theme/{theme}"

	// SSE
	SSEPath = "/sse"

	// Root
	RootPath = "/"

	Article = "/articles/{id}"
)

// Editor routes
const (
	EditorPage     = "/editor"
	EditorEditPage = "/editor/{id}"

	PartialsEditorPreview = "/partials/editor/{id}/preview"
	PartialsEditorSource  = "/partials/editor/{id}/source"

	APIEditor         = "/api/editor"
	APIEditorContent  = "/api/editor/{id}/content"
	APIEditorFormat   = "/api/editor/{id}/format"
	APIEditorAssets   = "/api/editor/{id}/assets"
	APIEditorMeta     = "/api/editor/{id}/meta"
	APIEditorAutosave = "/api/editor/{id}/autosave"
	APIEditorSave     = "/api/editor/{id}/save"
	APIEditorKey      = "/api/editor/{id}/key"
	APIEditorSession  = "/api/editor/{id}"
)
