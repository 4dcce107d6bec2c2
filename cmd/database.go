package cmd

import (
	"context"
	"database/sql"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/repository"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/config"

	_ "github.com/go-sql-driver/mysql"
)

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxOpenConns)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newIdentityRepository(db *sql.DB, cfg *config.Config) *repository.IdentityRepository {
	return repository.NewIdentityRepository(db, repository.WithQueryTimeout(cfg.Database.QueryTimeout))
}
