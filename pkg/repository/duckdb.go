package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	duckdb "github.com/duckdb/duckdb-go/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
)

// DuckDB implements Repository on a DuckDB database file with the vss
// extension for array_cosine_similarity. One ingestion run owns the file
// exclusively; serving opens it read-mostly and acquires pooled connections
// per operation.
type DuckDB struct {
	db   *sql.DB
	dims int
}

var _ Repository = (*DuckDB)(nil)

// NewDuckDB opens (or creates) the database at path. dims is the fixed
// embedding width of the catalog's vector column.
func NewDuckDB(path string, dims int) (*DuckDB, error) {
	if dims <= 0 {
		return nil, goerr.New("embedding dimensions must be positive", goerr.V("dims", dims))
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open duckdb", goerr.V("path", path))
	}

	for _, stmt := range []string{"INSTALL vss", "LOAD vss"} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to set up vss extension", goerr.V("stmt", stmt))
		}
	}

	return &DuckDB{db: db, dims: dims}, nil
}

func (r *DuckDB) Close() error {
	if err := r.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close duckdb")
	}
	return nil
}

// ReplaceCatalog rebuilds the movie table from scratch. CREATE OR REPLACE
// keeps ingestion idempotent.
func (r *DuckDB) ReplaceCatalog(ctx context.Context, items []model.CatalogItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	createStmt := fmt.Sprintf(`
		CREATE OR REPLACE TABLE movie (
			movieId BIGINT PRIMARY KEY,
			title VARCHAR NOT NULL,
			imdbId VARCHAR NOT NULL,
			tmdbId BIGINT NOT NULL,
			description VARCHAR NOT NULL,
			embedding FLOAT[%d] NOT NULL,
			mean_rating DOUBLE NOT NULL,
			n_rating BIGINT NOT NULL,
			bayesian_avg DOUBLE NOT NULL
		)`, r.dims)
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return goerr.Wrap(err, "failed to create movie table")
	}

	insertStmt := fmt.Sprintf(
		"INSERT INTO movie VALUES (?, ?, ?, ?, ?, ?::FLOAT[%d], ?, ?, ?)", r.dims)
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare catalog insert")
	}
	defer stmt.Close()

	for _, item := range items {
		if len(item.Embedding) != r.dims {
			return goerr.New("embedding dimension mismatch",
				goerr.V("item_id", item.ID),
				goerr.V("got", len(item.Embedding)),
				goerr.V("want", r.dims))
		}
		if _, err := stmt.ExecContext(ctx,
			int64(item.ID), item.Title, item.ImdbID, item.TmdbID,
			item.Description, item.Embedding,
			item.MeanRating, item.RatingCount, item.AdjustedRating,
		); err != nil {
			return goerr.Wrap(err, "failed to insert catalog item", goerr.V("item_id", item.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit catalog")
	}
	return nil
}

// ReplaceRatings rebuilds the rating history table.
func (r *DuckDB) ReplaceRatings(ctx context.Context, records []model.UserHistoryRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	createStmt := `
		CREATE OR REPLACE TABLE rating (
			userId BIGINT NOT NULL,
			movieId BIGINT NOT NULL,
			rating DOUBLE NOT NULL
		)`
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return goerr.Wrap(err, "failed to create rating table")
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO rating VALUES (?, ?, ?)")
	if err != nil {
		return goerr.Wrap(err, "failed to prepare rating insert")
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, int64(rec.UserID), int64(rec.ItemID), rec.Rating); err != nil {
			return goerr.Wrap(err, "failed to insert rating",
				goerr.V("user_id", rec.UserID), goerr.V("item_id", rec.ItemID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit ratings")
	}
	return nil
}

func (r *DuckDB) SearchSimilar(ctx context.Context, input *SearchInput) ([]SearchHit, error) {
	if len(input.Embedding) != r.dims {
		return nil, goerr.New("query embedding dimension mismatch",
			goerr.V("got", len(input.Embedding)), goerr.V("want", r.dims))
	}

	query := fmt.Sprintf(`
		SELECT
			movieId,
			title,
			bayesian_avg,
			n_rating,
			array_cosine_similarity(embedding, ?::FLOAT[%d]) AS similarity
		FROM movie
		WHERE
			bayesian_avg >= ? AND
			n_rating >= ?
		ORDER BY similarity DESC, movieId ASC
		LIMIT ?`, r.dims)

	rows, err := r.db.QueryContext(ctx, query,
		input.Embedding, input.MinAdjusted, input.MinCount, input.Limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run similarity search")
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		if err := rows.Scan(&hit.ItemID, &hit.Title, &hit.AdjustedRating, &hit.RatingCount, &hit.Similarity); err != nil {
			return nil, goerr.Wrap(err, "failed to scan search hit")
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate search hits")
	}

	return hits, nil
}

func (r *DuckDB) GetVector(ctx context.Context, id model.ItemID) ([]float32, error) {
	var embedding duckdb.Composite[[]float32]
	row := r.db.QueryRowContext(ctx, "SELECT embedding FROM movie WHERE movieId = ?", int64(id))
	if err := row.Scan(&embedding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrItemNotFound, "no embedding stored", goerr.V("item_id", id))
		}
		return nil, goerr.Wrap(err, "failed to fetch embedding", goerr.V("item_id", id))
	}
	return embedding.Get(), nil
}

func (r *DuckDB) GetItem(ctx context.Context, id model.ItemID) (*model.CatalogItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT movieId, title, imdbId, tmdbId, description, mean_rating, n_rating, bayesian_avg
		FROM movie WHERE movieId = ?`, int64(id))

	var item model.CatalogItem
	if err := row.Scan(&item.ID, &item.Title, &item.ImdbID, &item.TmdbID,
		&item.Description, &item.MeanRating, &item.RatingCount, &item.AdjustedRating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrItemNotFound, "no such item", goerr.V("item_id", id))
		}
		return nil, goerr.Wrap(err, "failed to fetch item", goerr.V("item_id", id))
	}
	return &item, nil
}

func (r *DuckDB) ListRaters(ctx context.Context, minRatings int) ([]model.UserID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT userId FROM rating
		GROUP BY userId
		HAVING count(*) >= ?
		ORDER BY userId`, minRatings)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list raters")
	}
	defer rows.Close()

	var users []model.UserID
	for rows.Next() {
		var id model.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, goerr.Wrap(err, "failed to scan user id")
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate raters")
	}

	return users, nil
}

func (r *DuckDB) UserHistory(ctx context.Context, id model.UserID) ([]model.RatedTitle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.movieId, m.title, r.rating
		FROM rating r
		JOIN movie m USING (movieId)
		WHERE r.userId = ?
		ORDER BY r.movieId`, int64(id))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch user history", goerr.V("user_id", id))
	}
	defer rows.Close()

	var history []model.RatedTitle
	for rows.Next() {
		var rt model.RatedTitle
		if err := rows.Scan(&rt.ItemID, &rt.Title, &rt.Rating); err != nil {
			return nil, goerr.Wrap(err, "failed to scan rated title")
		}
		history = append(history, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate user history")
	}

	return history, nil
}
