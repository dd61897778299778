package repository_test

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			"../migrations/000001_checkout.up.sql",
			"../migrations/000002_read_models.up.sql",
			"../migrations/000003_cart_quantity_cap.up.sql"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return postgresContainer, connStr, nil
}

func randomID() int64 {
	return int64(gofakeit.IntRange(1, 1_000_000_000))
}

func insertCourse(ctx context.Context, pool *pgxpool.Pool, id int64, price, cur string) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO courses (id, title, price, currency, thumbnail_url, instructor_name)
		 VALUES ($1, $2, $3::numeric, $4, $5, $6)`,
		id, gofakeit.BookTitle(), price, cur, gofakeit.URL(), gofakeit.Name())
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	return nil
}

func insertUser(ctx context.Context, pool *pgxpool.Pool, id int64, email string, verified bool) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, email_verified, name) VALUES ($1, $2, $3, $4)`,
		id, email, verified, gofakeit.Name())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}
