package config

const (
	// Startup errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrInitializeArticles    = "Error initializing articles"
	ErrInitializeAssets      = "Error initializing asset store"
	ErrInitializeDrafts      = "Error initializing draft store"

	// Request errors
	ErrInternalServerError = "Internal server error"
	ErrSessionNotFound     = "Editing session not found"
	ErrArticleNotFound     = "Article not found"
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnknownCommand      = "Unknown formatting command"
	ErrInvalidDocument     = "Title, excerpt and content are required"
	ErrAssetRejected       = "Only image files can be inserted"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
	ErrCreateTempFileFmt     = "Failed to create temp file: %v"
)
