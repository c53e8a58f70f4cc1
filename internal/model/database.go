package model

import (
	"database/sql"
	"time"

	"github.com/go-redis/redis"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/wheel-empire/fortune-bot/db/local"
)

const dbDriver = "postgres"

// UploadDataBase opens the postgres connection and applies the embedded
// goose migrations.
func UploadDataBase(dsn string) (*sql.DB, error) {
	dataBase, err := sql.Open(dbDriver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed open database")
	}

	dataBase.SetMaxOpenConns(10)
	dataBase.SetConnMaxIdleTime(30 * time.Second)

	goose.SetBaseFS(local.EmbedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, errors.Wrap(err, "set goose dialect")
	}

	if err := goose.Up(dataBase, "migrations"); err != nil {
		return nil, errors.Wrap(err, "apply migrations")
	}

	if err := dataBase.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed upload database")
	}

	return dataBase, nil
}

func StartRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})
}
