package repository

import (
	"context"
	"database/sql"

	"github.com/filmfest/catalogue-api/internal/model"
)

type GenreRepo struct{ DB *sql.DB }

func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{DB: db} }

// GenreRow is the response shape of GET /v1/films/genres.
type GenreRow struct {
	GenreID int64  `json:"genreId"`
	Name    string `json:"name"`
}

// List returns all genres. The table is reference data and read-only to
// this system.
func (r *GenreRepo) List(ctx context.Context) ([]GenreRow, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name FROM genre")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GenreRow{}
	for rows.Next() {
		var g GenreRow
		if err := rows.Scan(&g.GenreID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID fetches one genre; sql.ErrNoRows when the id is unknown.
func (r *GenreRepo) GetByID(ctx context.Context, id int64) (model.Genre, error) {
	var g model.Genre
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM genre WHERE id=? LIMIT 1", id).Scan(&g.ID, &g.Name)
	return g, err
}
