package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"reviewhub/internal/models"
)

// step ties one CSV file to its target table. Steps run in a fixed
// order so that referenced rows always exist before their children.
type step struct {
	file    string
	table   string
	header  []string
	columns []string
	convert func(imp *importer, record []string) ([]any, error)
}

// importer carries cross-file state: CSV user ids are mapped to the
// generated UUID primary keys.
type importer struct {
	userIDs map[string]string
	now     time.Time
}

// plan is the ordered import plan: parents strictly before children.
func plan() []step {
	return []step{
		{
			file:    "users.csv",
			table:   "users",
			header:  []string{"id", "username", "email", "role", "bio", "first_name", "last_name"},
			columns: []string{"id", "username", "email", "role", "bio", "first_name", "last_name", "created_at", "updated_at"},
			convert: (*importer).convertUser,
		},
		{
			file:    "category.csv",
			table:   "categories",
			header:  []string{"id", "name", "slug"},
			columns: []string{"id", "name", "slug"},
			convert: (*importer).convertSlugRow,
		},
		{
			file:    "genre.csv",
			table:   "genres",
			header:  []string{"id", "name", "slug"},
			columns: []string{"id", "name", "slug"},
			convert: (*importer).convertSlugRow,
		},
		{
			file:    "titles.csv",
			table:   "titles",
			header:  []string{"id", "name", "year", "category"},
			columns: []string{"id", "name", "year", "category_id", "created_at"},
			convert: (*importer).convertTitle,
		},
		{
			file:    "genre_title.csv",
			table:   "title_genres",
			header:  []string{"id", "title_id", "genre_id"},
			columns: []string{"id", "title_id", "genre_id"},
			convert: (*importer).convertTitleGenre,
		},
		{
			file:    "review.csv",
			table:   "reviews",
			header:  []string{"id", "title_id", "text", "author", "score", "pub_date"},
			columns: []string{"id", "title_id", "text", "author_id", "score", "pub_date"},
			convert: (*importer).convertReview,
		},
		{
			file:    "comments.csv",
			table:   "comments",
			header:  []string{"id", "review_id", "text", "author", "pub_date"},
			columns: []string{"id", "review_id", "text", "author_id", "pub_date"},
			convert: (*importer).convertComment,
		},
	}
}

// Run loads every CSV file from dataDir inside a single transaction.
// The first error aborts the whole run; nothing is committed.
func Run(ctx context.Context, conn *pgx.Conn, dataDir string, logger *slog.Logger) error {
	imp := &importer{
		userIDs: make(map[string]string),
		now:     time.Now(),
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range plan() {
		count, err := imp.runStep(ctx, tx, dataDir, s)
		if err != nil {
			return fmt.Errorf("%s: %w", s.file, err)
		}
		logger.Info("imported", "file", s.file, "table", s.table, "rows", count)
	}

	// Explicit ids were inserted, so the serial sequences must be
	// advanced past them.
	for _, table := range []string{"categories", "genres", "titles", "title_genres", "reviews", "comments"} {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s','id'), (SELECT COALESCE(MAX(id),1) FROM %s))",
			table, table)
		if _, err := tx.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to reset %s id sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Info("import completed successfully")
	return nil
}

func (imp *importer) runStep(ctx context.Context, tx pgx.Tx, dataDir string, s step) (int64, error) {
	f, err := os.Open(filepath.Join(dataDir, s.file))
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	if err := validateHeader(header, s.header); err != nil {
		return 0, err
	}

	var rows [][]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("malformed row: %w", err)
		}
		row, err := s.convert(imp, record)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	count, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, s.columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy into %s: %w", s.table, err)
	}
	return count, nil
}

// validateHeader demands the exact expected column list.
func validateHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("expected %d columns %v, got %d", len(want), want, len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("expected column %q at position %d, got %q", want[i], i, got[i])
		}
	}
	return nil
}

func (imp *importer) convertUser(record []string) ([]any, error) {
	role := models.Role(record[3])
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("column \"role\": unknown role %q", record[3])
	}

	id := uuid.New().String()
	imp.userIDs[record[0]] = id

	return []any{id, record[1], record[2], string(role), record[4], record[5], record[6], imp.now, imp.now}, nil
}

func (imp *importer) convertSlugRow(record []string) ([]any, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	return []any{id, record[1], record[2]}, nil
}

func (imp *importer) convertTitle(record []string) ([]any, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	year, err := strconv.Atoi(record[2])
	if err != nil {
		return nil, fmt.Errorf("column \"year\": %w", err)
	}

	var categoryID *int64
	if record[3] != "" {
		cid, err := parseID(record[3], "category")
		if err != nil {
			return nil, err
		}
		categoryID = &cid
	}

	return []any{id, record[1], year, categoryID, imp.now}, nil
}

func (imp *importer) convertTitleGenre(record []string) ([]any, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	titleID, err := parseID(record[1], "title_id")
	if err != nil {
		return nil, err
	}
	genreID, err := parseID(record[2], "genre_id")
	if err != nil {
		return nil, err
	}
	return []any{id, titleID, genreID}, nil
}

func (imp *importer) convertReview(record []string) ([]any, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	titleID, err := parseID(record[1], "title_id")
	if err != nil {
		return nil, err
	}
	authorID, err := imp.lookupUser(record[3])
	if err != nil {
		return nil, err
	}
	score, err := strconv.Atoi(record[4])
	if err != nil {
		return nil, fmt.Errorf("column \"score\": %w", err)
	}
	if score < 1 || score > 10 {
		return nil, fmt.Errorf("column \"score\": %d is outside 1-10", score)
	}
	pubDate, err := parseDate(record[5])
	if err != nil {
		return nil, err
	}
	return []any{id, titleID, record[2], authorID, score, pubDate}, nil
}

func (imp *importer) convertComment(record []string) ([]any, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	reviewID, err := parseID(record[1], "review_id")
	if err != nil {
		return nil, err
	}
	authorID, err := imp.lookupUser(record[3])
	if err != nil {
		return nil, err
	}
	pubDate, err := parseDate(record[4])
	if err != nil {
		return nil, err
	}
	return []any{id, reviewID, record[2], authorID, pubDate}, nil
}

func (imp *importer) lookupUser(csvID string) (string, error) {
	id, ok := imp.userIDs[csvID]
	if !ok {
		return "", fmt.Errorf("column \"author\": unknown user id %q", csvID)
	}
	return id, nil
}

func parseID(value, column string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", column, err)
	}
	return id, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("column \"pub_date\": %w", err)
	}
	return t, nil
}
