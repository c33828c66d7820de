package database

import (
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
)

// Connect opens the episode ledger database over the pgx stdlib driver.
func Connect() (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", viper.GetString("DB_DSN"))
	if err != nil {
		return nil, err
	}
	// The engine is the only writer; the API reads concurrently.
	db.SetMaxOpenConns(4)
	return db, nil
}
