package handlers

import (
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/vendora/vendora-golang/internal/auth"
	"github.com/vendora/vendora-golang/internal/config"
	"github.com/vendora/vendora-golang/internal/settings"
)

// Handlers holds every dependency the route handlers share.
type Handlers struct {
	DB       *sql.DB
	Auth     *auth.Manager
	Settings *settings.Store
	Cfg      config.Config
	Log      zerolog.Logger
}
