package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-video-rental/internal/domain"
)

// Movie sort keys accepted by ListMovies.
const (
	SortByTitle  = "title"
	SortByRating = "rating"
)

// MovieQuery filters and orders a catalog listing. Search is folded with
// domain.SearchKey and matched as a substring of title OR genre.
type MovieQuery struct {
	Search string
	SortBy string
	Limit  int
}

// CreateMovie inserts m, assigning a UUID and AddedAt when unset.
func CreateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now().UTC()
	}
	if m.Actors == nil {
		m.Actors = domain.StringList{}
	}
	m.TitleSearch = domain.SearchKey(m.Title)
	m.GenreSearch = domain.SearchKey(m.Genre)
	return db.WithContext(ctx).Create(m).Error
}

// GetMovie fetches a movie by id.
func GetMovie(ctx context.Context, db *gorm.DB, id string) (*domain.Movie, error) {
	var m domain.Movie
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMovieForUpdate is GetMovie with a row lock for use inside a transaction.
func GetMovieForUpdate(ctx context.Context, tx *gorm.DB, id string) (*domain.Movie, error) {
	var m domain.Movie
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MovieTitleExists reports whether a movie with exactly this title exists.
func MovieTitleExists(ctx context.Context, db *gorm.DB, title string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Movie{}).Where("title = ?", title).Count(&n).Error
	return n > 0, err
}

// ListMovies returns catalog entries matching q.
func ListMovies(ctx context.Context, db *gorm.DB, q MovieQuery) ([]domain.Movie, error) {
	tx := db.WithContext(ctx).Model(&domain.Movie{})
	if q.Search != "" {
		pat := "%" + escapeLike(domain.SearchKey(q.Search)) + "%"
		tx = tx.Where(`title_search LIKE ? ESCAPE '\' OR genre_search LIKE ? ESCAPE '\'`, pat, pat)
	}
	switch q.SortBy {
	case SortByRating:
		tx = tx.Order("rating DESC").Order("title ASC")
	default:
		tx = tx.Order("title ASC")
	}
	tx = tx.Order("id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var out []domain.Movie
	err := tx.Find(&out).Error
	return out, err
}

// escapeLike makes s a literal LIKE operand under ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// UpdateMovieFields applies a column->value map to movie id. A new title or
// genre refreshes its search column. Returns ErrNotFound when no row matched.
func UpdateMovieFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	cols := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		cols[k] = v
	}
	if v, ok := fields["title"].(string); ok {
		cols["title_search"] = domain.SearchKey(v)
	}
	if v, ok := fields["genre"].(string); ok {
		cols["genre_search"] = domain.SearchKey(v)
	}
	res := db.WithContext(ctx).Model(&domain.Movie{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TakeCopy decrements available_copies if at least one copy is on the shelf.
// Returns ErrConditionFailed when the guard matched nothing.
func TakeCopy(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Model(&domain.Movie{}).
		Where("id = ? AND available_copies > 0", id).
		Update("available_copies", gorm.Expr("available_copies - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// PutBackCopy increments available_copies without exceeding total_copies.
// Returns ErrConditionFailed when the movie is already full (or missing).
func PutBackCopy(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Model(&domain.Movie{}).
		Where("id = ? AND available_copies < total_copies", id).
		Update("available_copies", gorm.Expr("available_copies + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// DeleteMovie removes movie id. Returns ErrNotFound when no row matched.
func DeleteMovie(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Movie{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BackfillMovieSearch fills the search columns of rows written before they
// existed and returns how many rows it touched.
func BackfillMovieSearch(ctx context.Context, db *gorm.DB) (int, error) {
	var stale []domain.Movie
	err := db.WithContext(ctx).Model(&domain.Movie{}).
		Select("id", "title", "genre").
		Where("title_search = '' AND title <> ''").
		Find(&stale).Error
	if err != nil {
		return 0, err
	}
	for _, m := range stale {
		err := db.WithContext(ctx).Model(&domain.Movie{}).Where("id = ?", m.ID).
			UpdateColumns(map[string]any{
				"title_search": domain.SearchKey(m.Title),
				"genre_search": domain.SearchKey(m.Genre),
			}).Error
		if err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
