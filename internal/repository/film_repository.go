package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/filmfest/catalogue-api/internal/model"
)

const filmColumns = "id,title,description,release_date,genre_id,director_id,runtime,age_rating,image_filename"

type FilmRepo struct{ DB *sql.DB }

func NewFilmRepo(db *sql.DB) *FilmRepo { return &FilmRepo{DB: db} }

func scanFilm(row *sql.Row) (model.Film, error) {
	var f model.Film
	err := row.Scan(&f.ID, &f.Title, &f.Description, &f.ReleaseDate,
		&f.GenreID, &f.DirectorID, &f.Runtime, &f.AgeRating, &f.ImageFilename)
	return f, err
}

// GetByID fetches a film by id.
func (r *FilmRepo) GetByID(ctx context.Context, id int64) (model.Film, error) {
	return scanFilm(r.DB.QueryRowContext(ctx,
		"SELECT "+filmColumns+" FROM film WHERE id=? LIMIT 1", id))
}

// GetByTitle fetches a film by its exact title.
func (r *FilmRepo) GetByTitle(ctx context.Context, title string) (model.Film, error) {
	return scanFilm(r.DB.QueryRowContext(ctx,
		"SELECT "+filmColumns+" FROM film WHERE title=? LIMIT 1", title))
}

// Create inserts a film and returns its ID. A duplicate title surfaces as
// ErrTitleExists; the UNIQUE constraint decides races between concurrent
// inserts with the same title.
func (r *FilmRepo) Create(ctx context.Context, f model.Film) (int64, error) {
	var runtime any
	if f.Runtime.Valid {
		runtime = f.Runtime.Int64
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO film (title, description, release_date, genre_id, runtime, age_rating, director_id) VALUES (?,?,?,?,?,?,?)",
		f.Title, f.Description, f.ReleaseDate.UTC().Format(model.DateTime),
		f.GenreID, runtime, f.AgeRating, f.DirectorID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrTitleExists
		}
		return 0, err
	}
	return res.LastInsertId()
}

// FilmUpdate carries the optional fields of a partial film edit. Nil
// fields are left untouched.
type FilmUpdate struct {
	Title       *string
	Description *string
	ReleaseDate *time.Time
	GenreID     *int64
	Runtime     *int64
	AgeRating   *string
}

// Update applies a partial edit. The SET clause is assembled from the
// supplied fields with placeholder binding throughout.
func (r *FilmRepo) Update(ctx context.Context, id int64, u FilmUpdate) error {
	sets := []string{}
	args := []any{}
	if u.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *u.Description)
	}
	if u.ReleaseDate != nil {
		sets = append(sets, "release_date=?")
		args = append(args, u.ReleaseDate.UTC().Format(model.DateTime))
	}
	if u.GenreID != nil {
		sets = append(sets, "genre_id=?")
		args = append(args, *u.GenreID)
	}
	if u.Runtime != nil {
		sets = append(sets, "runtime=?")
		args = append(args, *u.Runtime)
	}
	if u.AgeRating != nil {
		sets = append(sets, "age_rating=?")
		args = append(args, *u.AgeRating)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE film SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if isDuplicateKey(err) {
		return ErrTitleExists
	}
	return err
}

// Delete removes a film row. Reviews must be deleted first to satisfy
// the foreign key.
func (r *FilmRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM film WHERE id=?", id)
	return err
}

// SetImage records the stored hero image filename.
func (r *FilmRepo) SetImage(ctx context.Context, id int64, filename string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE film SET image_filename=? WHERE id=?", filename, id)
	return err
}

// FilmDetail is the response shape of GET /v1/films/:id.
type FilmDetail struct {
	FilmID            int64   `json:"filmId"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	GenreID           int64   `json:"genreId"`
	DirectorID        int64   `json:"directorId"`
	DirectorFirstName string  `json:"directorFirstName"`
	DirectorLastName  string  `json:"directorLastName"`
	ReleaseDate       string  `json:"releaseDate"`
	AgeRating         string  `json:"ageRating"`
	Runtime           *int64  `json:"runtime"`
	Rating            float64 `json:"rating"`
	NumReviews        int64   `json:"numReviews"`
}

// Detail loads a single film joined with its director's name, the
// average review rating rounded to one decimal (0 when unreviewed) and
// the review count.
func (r *FilmRepo) Detail(ctx context.Context, id int64) (FilmDetail, error) {
	const q = `SELECT film.id, film.title, film.description, film.genre_id, film.director_id,
	user.first_name, user.last_name, film.release_date, film.age_rating, film.runtime,
	CAST(ROUND(COALESCE(AVG(film_review.rating), 0), 1) AS FLOAT), COUNT(film_review.id)
	FROM film
	JOIN user ON user.id = film.director_id
	LEFT JOIN film_review ON film_review.film_id = film.id
	WHERE film.id = ?
	GROUP BY film.id`

	var d FilmDetail
	var released time.Time
	var runtime sql.NullInt64
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&d.FilmID, &d.Title, &d.Description, &d.GenreID, &d.DirectorID,
		&d.DirectorFirstName, &d.DirectorLastName, &released, &d.AgeRating,
		&runtime, &d.Rating, &d.NumReviews)
	if err != nil {
		return FilmDetail{}, err
	}
	d.ReleaseDate = released.UTC().Format(model.DateTime)
	if runtime.Valid {
		d.Runtime = &runtime.Int64
	}
	return d, nil
}
