// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/vexlab/svr-debug/internal/config"
	"github.com/vexlab/svr-debug/internal/database"
	"github.com/vexlab/svr-debug/internal/storage/gormstore"
	"github.com/vexlab/svr-debug/internal/storage/memory"
	"github.com/vexlab/svr-debug/internal/storage/websocket"
)

// NewSinks creates the configured mirror sinks. Unknown types are an error;
// an empty type list yields no sinks, which is the default.
func NewSinks(cfg config.StorageConfig, log *slog.Logger, dbLog zerolog.Logger) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfg.Types))

	for _, typ := range cfg.Types {
		switch typ {
		case "sqlite":
			mgr := database.NewManager(dbLog)
			db, err := mgr.GetSqliteDB(cfg.Sqlite.Path)
			if err != nil {
				return nil, fmt.Errorf("sqlite sink: %w", err)
			}
			sinks = append(sinks, gormstore.New(gormstore.Dependencies{DB: db, Log: log}))
		case "postgres":
			mgr := database.NewManager(dbLog)
			db, err := mgr.GetPostgresDB()
			if err != nil {
				return nil, fmt.Errorf("postgres sink: %w", err)
			}
			sinks = append(sinks, gormstore.New(gormstore.Dependencies{DB: db, Log: log}))
		case "memory":
			sinks = append(sinks, memory.New(cfg.Memory))
		case "websocket":
			sinks = append(sinks, websocket.New(websocket.Config{
				URL:    cfg.Websocket.URL,
				Secret: cfg.Websocket.Secret,
			}))
		default:
			return nil, fmt.Errorf("unknown storage type: %s", typ)
		}
	}

	return sinks, nil
}
