package loader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/giygas/pharmacie/entities"
	"github.com/giygas/pharmacie/interfaces"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ interfaces.Loader = (*PostgresLoader)(nil)

const selectMedicaments = `
	SELECT id, denomination, forme_pharmaceutique, quantite, photo
	FROM medicaments
	ORDER BY id`

// OpenPostgres opens a pgx backed pool and checks the connection
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	return db, nil
}

// PostgresLoader reads table medicaments. NULL columns read as zero values.
type PostgresLoader struct {
	db *sql.DB
}

func NewPostgresLoader(db *sql.DB) *PostgresLoader {
	return &PostgresLoader{db: db}
}

func (l *PostgresLoader) Source() string {
	return "postgres:medicaments"
}

func (l *PostgresLoader) Load(ctx context.Context) ([]entities.Medicament, error) {
	rows, err := l.db.QueryContext(ctx, selectMedicaments)
	if err != nil {
		return nil, fmt.Errorf("failed to query medicaments: %w", err)
	}
	defer rows.Close()

	meds := []entities.Medicament{}
	for rows.Next() {
		var (
			id, denomination, forme, photo sql.NullString
			quantite                       sql.NullInt64
		)
		if err := rows.Scan(&id, &denomination, &forme, &quantite, &photo); err != nil {
			return nil, fmt.Errorf("failed to scan medicament: %w", err)
		}
		meds = append(meds, entities.NewMedicament(
			id.String,
			denomination.String,
			forme.String,
			int(quantite.Int64),
			photo.String,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read medicaments: %w", err)
	}

	return meds, nil
}

// Close releases the pool
func (l *PostgresLoader) Close() error {
	return l.db.Close()
}
