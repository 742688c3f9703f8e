package loader

import (
	"github.com/giygas/pharmacie/config"
	"github.com/giygas/pharmacie/interfaces"
)

// NewFromConfig picks the catalogue source: DATABASE_URL, then DATA_URL,
// then DATA_FILE. The returned close function releases the source.
func NewFromConfig(cfg *config.Config) (interfaces.Loader, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.DatabaseURL != "":
		db, err := OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		l := NewPostgresLoader(db)
		return l, l.Close, nil
	case cfg.DataURL != "":
		return NewHTTPLoader(cfg.DataURL), noop, nil
	default:
		return NewFileLoader(cfg.DataFile), noop, nil
	}
}
