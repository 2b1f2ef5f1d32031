// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/database/schema"
	"github.com/taibuivan/aihub/internal/platform/dberr"
)

var (
	// ErrToolNotFound is returned when no record matches the lookup.
	ErrToolNotFound = apperr.NotFound("Tool")

	// ErrTermNotFound is returned when no term matches the lookup.
	ErrTermNotFound = apperr.NotFound("Term")
)

// statsCategoryLimit is how many categories the statistics report.
const statsCategoryLimit = 10

// PostgresRepository implements [Repository] on PostgreSQL.
type PostgresRepository struct {
	db      *pgxpool.Pool
	builder sq.StatementBuilderType
}

// NewPostgresRepository constructs a [PostgresRepository] on the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// # Records

func toolColumns(alias string) []string {
	tool := schema.CatalogTool
	columns := []string{
		tool.ID, tool.Title, tool.Slug, tool.ProductURL, tool.Body,
		tool.Excerpt, tool.Status, tool.CreatedAt, tool.UpdatedAt,
	}
	if alias == "" {
		return columns
	}
	for i, column := range columns {
		columns[i] = alias + "." + column
	}
	return columns
}

func scanRecord(row pgx.Row) (*Record, error) {
	record := &Record{}
	var status string
	err := row.Scan(
		&record.ID, &record.Title, &record.Slug, &record.ProductURL, &record.Body,
		&record.Excerpt, &status, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Status = Status(status)
	return record, nil
}

func collectRecords(rows pgx.Rows, action string) ([]*Record, error) {
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return records, nil
}

// wrapRecordErr maps a missing row to [ErrToolNotFound].
func wrapRecordErr(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrToolNotFound
	}
	return dberr.Wrap(err, action)
}

func (repository *PostgresRepository) CreateRecord(context context.Context, record *Record) error {
	tool := schema.CatalogTool
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s, %s, %s
	`,
		tool.Table, tool.Title, tool.Slug, tool.ProductURL, tool.Body, tool.Excerpt, tool.Status,
		tool.ID, tool.CreatedAt, tool.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		record.Title, record.Slug, record.ProductURL, record.Body, record.Excerpt, string(record.Status),
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	return dberr.Wrap(err, "create_tool")
}

func (repository *PostgresRepository) UpdateRecord(context context.Context, record *Record) error {
	tool := schema.CatalogTool
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = NOW()
		WHERE %s = $1
		RETURNING %s, %s
	`,
		tool.Table,
		tool.Title, tool.ProductURL, tool.Body, tool.Excerpt, tool.Status, tool.UpdatedAt,
		tool.ID,
		tool.CreatedAt, tool.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		record.ID, record.Title, record.ProductURL, record.Body, record.Excerpt, string(record.Status),
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	return wrapRecordErr(err, "update_tool")
}

func (repository *PostgresRepository) findOne(context context.Context, column string, value any, action string) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC LIMIT 1`,
		strings.Join(toolColumns(""), ", "), schema.CatalogTool.Table, column, schema.CatalogTool.ID)

	record, err := scanRecord(repository.db.QueryRow(context, query, value))
	if err != nil {
		return nil, wrapRecordErr(err, action)
	}
	return record, nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id int64) (*Record, error) {
	return repository.findOne(context, schema.CatalogTool.ID, id, "find_tool_by_id")
}

func (repository *PostgresRepository) FindByProductURL(context context.Context, productURL string) (*Record, error) {
	return repository.findOne(context, schema.CatalogTool.ProductURL, productURL, "find_tool_by_url")
}

func (repository *PostgresRepository) FindByTitle(context context.Context, title string) (*Record, error) {
	return repository.findOne(context, schema.CatalogTool.Title, title, "find_tool_by_title")
}

// publishedWhere builds the listing predicate shared by the count and page queries.
func publishedWhere(filter Filter) sq.And {
	tool := schema.CatalogTool
	where := sq.And{sq.Eq{"t." + tool.Status: string(StatusPublish)}}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"t." + tool.Title: pattern},
			sq.ILike{"t." + tool.Excerpt: pattern},
			sq.ILike{"t." + tool.Body: pattern},
		})
	}

	if filter.CategorySlug != "" {
		link, term := schema.CatalogToolTerm, schema.CatalogTerm
		where = append(where, sq.Expr(fmt.Sprintf(
			`EXISTS (SELECT 1 FROM %s tt JOIN %s c ON c.%s = tt.%s WHERE tt.%s = t.%s AND c.%s = ? AND c.%s = ?)`,
			link.Table, term.Table, term.ID, link.TermID, link.ToolID, tool.ID, term.Namespace, term.Slug,
		), NamespaceCategory, filter.CategorySlug))
	}

	return where
}

func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Record, int, error) {
	tool := schema.CatalogTool
	where := publishedWhere(filter)

	countSQL, countArgs, err := repository.builder.
		Select("COUNT(*)").From(tool.Table + " t").Where(where).ToSql()
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("build_count_tools: %w", err))
	}

	var total int
	if err := repository.db.QueryRow(context, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_tools")
	}

	listSQL, listArgs, err := repository.builder.
		Select(toolColumns("t")...).
		From(tool.Table + " t").
		Where(where).
		OrderBy("t."+tool.CreatedAt+" DESC", "t."+tool.ID+" DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("build_list_tools: %w", err))
	}

	rows, err := repository.db.Query(context, listSQL, listArgs...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_tools")
	}
	records, err := collectRecords(rows, "scan_tool")
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (repository *PostgresRepository) Random(context context.Context, limit int) ([]*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY random() LIMIT $2`,
		strings.Join(toolColumns(""), ", "), schema.CatalogTool.Table, schema.CatalogTool.Status)

	rows, err := repository.db.Query(context, query, string(StatusPublish), limit)
	if err != nil {
		return nil, dberr.Wrap(err, "random_tools")
	}
	return collectRecords(rows, "scan_random_tool")
}

func (repository *PostgresRepository) ListByCategories(context context.Context, categories []string, excludeID int64, limit, offset int) ([]*Record, error) {
	if len(categories) == 0 || limit <= 0 {
		return []*Record{}, nil
	}

	tool, link, term := schema.CatalogTool, schema.CatalogToolTerm, schema.CatalogTerm
	query := fmt.Sprintf(`
		SELECT %s FROM %s t
		WHERE t.%s = $1 AND t.%s <> $2
		  AND EXISTS (
		      SELECT 1 FROM %s tt JOIN %s c ON c.%s = tt.%s
		      WHERE tt.%s = t.%s AND c.%s = $3 AND c.%s = ANY($4)
		  )
		ORDER BY t.%s DESC, t.%s DESC
		LIMIT $5 OFFSET $6
	`,
		strings.Join(toolColumns("t"), ", "), tool.Table,
		tool.Status, tool.ID,
		link.Table, term.Table, term.ID, link.TermID,
		link.ToolID, tool.ID, term.Namespace, term.Name,
		tool.CreatedAt, tool.ID,
	)

	rows, err := repository.db.Query(context, query, string(StatusPublish), excludeID, NamespaceCategory, categories, limit, max(offset, 0))
	if err != nil {
		return nil, dberr.Wrap(err, "list_tools_by_category")
	}
	return collectRecords(rows, "scan_category_tool")
}

func (repository *PostgresRepository) Stats(context context.Context) (*Stats, error) {
	tool, meta := schema.CatalogTool, schema.CatalogToolMeta
	stats := &Stats{}

	totalsQuery := fmt.Sprintf(`SELECT COUNT(*), MAX(%s) FROM %s WHERE %s = $1`, tool.UpdatedAt, tool.Table, tool.Status)
	var lastUpdated *time.Time
	if err := repository.db.QueryRow(context, totalsQuery, string(StatusPublish)).Scan(&stats.TotalTools, &lastUpdated); err != nil {
		return nil, dberr.Wrap(err, "count_published_tools")
	}
	stats.LastUpdated = lastUpdated

	// Grouped records keep the tag inside the ratings block, legacy ones as a flat key
	priceQuery := fmt.Sprintf(`
		SELECT tag, COUNT(*) FROM (
			SELECT m.%[1]s::jsonb ->> '%[2]s' AS tag
			FROM %[3]s m JOIN %[4]s t ON t.%[5]s = m.%[6]s
			WHERE m.%[7]s = '%[8]s' AND t.%[9]s = $1
			UNION ALL
			SELECT m.%[1]s AS tag
			FROM %[3]s m JOIN %[4]s t ON t.%[5]s = m.%[6]s
			WHERE m.%[7]s = '%[2]s' AND t.%[9]s = $1
			  AND NOT EXISTS (SELECT 1 FROM %[3]s g WHERE g.%[6]s = m.%[6]s AND g.%[7]s = '%[8]s')
		) prices
		WHERE tag IS NOT NULL AND tag <> ''
		GROUP BY tag
		ORDER BY COUNT(*) DESC, tag ASC
	`,
		meta.MetaValue, LegacyGeneralPriceTag,
		meta.Table, tool.Table, tool.ID, meta.ToolID,
		meta.MetaKey, MetaRatingsData, tool.Status,
	)

	rows, err := repository.db.Query(context, priceQuery, string(StatusPublish))
	if err != nil {
		return nil, dberr.Wrap(err, "count_price_tags")
	}
	defer rows.Close()

	stats.PriceTags = make([]LabelCount, 0)
	for rows.Next() {
		var entry LabelCount
		if err := rows.Scan(&entry.Label, &entry.Count); err != nil {
			return nil, dberr.Wrap(err, "scan_price_tag")
		}
		stats.PriceTags = append(stats.PriceTags, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "count_price_tags")
	}

	categories, err := repository.ListTerms(context, NamespaceCategory, statsCategoryLimit)
	if err != nil {
		return nil, err
	}
	stats.Categories = make([]LabelCount, 0, len(categories))
	for _, category := range categories {
		stats.Categories = append(stats.Categories, LabelCount{Label: category.Name, Count: category.Count})
	}

	return stats, nil
}

// # Metadata

func (repository *PostgresRepository) SetMeta(context context.Context, toolID int64, key, value string) error {
	meta := schema.CatalogToolMeta
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s, %s = NOW()
	`,
		meta.Table, meta.ToolID, meta.MetaKey, meta.MetaValue, meta.UpdatedAt,
		meta.ToolID, meta.MetaKey, meta.MetaValue, meta.MetaValue, meta.UpdatedAt,
	)

	_, err := repository.db.Exec(context, query, toolID, key, value)
	return dberr.Wrap(err, "set_tool_meta")
}

func (repository *PostgresRepository) LoadMeta(context context.Context, toolID int64) (map[string]string, error) {
	all, err := repository.LoadMetaMany(context, []int64{toolID})
	if err != nil {
		return nil, err
	}
	if values, ok := all[toolID]; ok {
		return values, nil
	}
	return map[string]string{}, nil
}

func (repository *PostgresRepository) LoadMetaMany(context context.Context, toolIDs []int64) (map[int64]map[string]string, error) {
	result := make(map[int64]map[string]string, len(toolIDs))
	if len(toolIDs) == 0 {
		return result, nil
	}

	meta := schema.CatalogToolMeta
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ANY($1)`,
		meta.ToolID, meta.MetaKey, meta.MetaValue, meta.Table, meta.ToolID)

	rows, err := repository.db.Query(context, query, toolIDs)
	if err != nil {
		return nil, dberr.Wrap(err, "load_tool_meta")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			toolID     int64
			key, value string
		)
		if err := rows.Scan(&toolID, &key, &value); err != nil {
			return nil, dberr.Wrap(err, "scan_tool_meta")
		}
		if result[toolID] == nil {
			result[toolID] = make(map[string]string)
		}
		result[toolID][key] = value
	}

	return result, dberr.Wrap(rows.Err(), "load_tool_meta")
}

// # Terms

func (repository *PostgresRepository) findTerm(context context.Context, column, namespace, value, action string) (*Term, error) {
	term := schema.CatalogTerm
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s = $2`,
		term.ID, term.Namespace, term.Name, term.Slug, term.Table, term.Namespace, column)

	found := &Term{}
	err := repository.db.QueryRow(context, query, namespace, value).
		Scan(&found.ID, &found.Namespace, &found.Name, &found.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTermNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return found, nil
}

func (repository *PostgresRepository) FindTermByName(context context.Context, namespace, name string) (*Term, error) {
	return repository.findTerm(context, schema.CatalogTerm.Name, namespace, name, "find_term_by_name")
}

func (repository *PostgresRepository) FindTermBySlug(context context.Context, namespace, slug string) (*Term, error) {
	return repository.findTerm(context, schema.CatalogTerm.Slug, namespace, slug, "find_term_by_slug")
}

func (repository *PostgresRepository) CreateTerm(context context.Context, namespace, name, slug string) (*Term, error) {
	term := schema.CatalogTerm
	insert := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING %s
	`, term.Table, term.Namespace, term.Name, term.Slug, term.ID)

	created := &Term{Namespace: namespace, Name: name, Slug: slug}
	err := repository.db.QueryRow(context, insert, namespace, name, slug).Scan(&created.ID)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !dberr.IsUniqueViolation(err) {
		return nil, dberr.Wrap(err, "create_term")
	}

	// Lost the race: report the winner
	lookup := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND (%s = $2 OR %s = $3) ORDER BY %s LIMIT 1`,
		term.ID, term.Table, term.Namespace, term.Name, term.Slug, term.ID)

	var existingID int64
	if err := repository.db.QueryRow(context, lookup, namespace, name, slug).Scan(&existingID); err != nil {
		return nil, dberr.Wrap(err, "find_conflicting_term")
	}

	return nil, &TermExistsError{Namespace: namespace, Name: name, ExistingID: existingID}
}

func (repository *PostgresRepository) SetRecordTerms(context context.Context, toolID int64, namespace string, termIDs []int64) error {
	link, term := schema.CatalogToolTerm, schema.CatalogTerm

	clear := fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s = $1 AND %s IN (SELECT %s FROM %s WHERE %s = $2)
	`, link.Table, link.ToolID, link.TermID, term.ID, term.Table, term.Namespace)

	attach := fmt.Sprintf(`
		INSERT INTO %s (%s, %s)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, link.Table, link.ToolID, link.TermID)

	err := pgx.BeginFunc(context, repository.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(context, clear, toolID, namespace); err != nil {
			return err
		}
		if len(termIDs) == 0 {
			return nil
		}
		_, err := tx.Exec(context, attach, toolID, termIDs)
		return err
	})

	return dberr.Wrap(err, "set_tool_terms")
}

func (repository *PostgresRepository) RecordTerms(context context.Context, toolID int64) ([]Term, error) {
	link, term := schema.CatalogToolTerm, schema.CatalogTerm
	query := fmt.Sprintf(`
		SELECT c.%s, c.%s, c.%s, c.%s
		FROM %s c JOIN %s tt ON tt.%s = c.%s
		WHERE tt.%s = $1
		ORDER BY c.%s, c.%s
	`,
		term.ID, term.Namespace, term.Name, term.Slug,
		term.Table, link.Table, link.TermID, term.ID,
		link.ToolID,
		term.Namespace, term.Name,
	)

	rows, err := repository.db.Query(context, query, toolID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_tool_terms")
	}
	defer rows.Close()

	terms := make([]Term, 0)
	for rows.Next() {
		var found Term
		if err := rows.Scan(&found.ID, &found.Namespace, &found.Name, &found.Slug); err != nil {
			return nil, dberr.Wrap(err, "scan_tool_term")
		}
		terms = append(terms, found)
	}
	return terms, dberr.Wrap(rows.Err(), "list_tool_terms")
}

func (repository *PostgresRepository) ListTerms(context context.Context, namespace string, limit int) ([]Term, error) {
	link, term, tool := schema.CatalogToolTerm, schema.CatalogTerm, schema.CatalogTool

	builder := repository.builder.
		Select("c."+term.ID, "c."+term.Namespace, "c."+term.Name, "c."+term.Slug, "COUNT(t."+tool.ID+")").
		From(term.Table + " c").
		Join(fmt.Sprintf("%s tt ON tt.%s = c.%s", link.Table, link.TermID, term.ID)).
		Join(fmt.Sprintf("%s t ON t.%s = tt.%s", tool.Table, tool.ID, link.ToolID)).
		Where(sq.Eq{"c." + term.Namespace: namespace, "t." + tool.Status: string(StatusPublish)}).
		GroupBy("c."+term.ID, "c."+term.Namespace, "c."+term.Name, "c."+term.Slug).
		OrderBy("COUNT(t."+tool.ID+") DESC", "c."+term.Name+" ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("build_list_terms: %w", err))
	}

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_terms")
	}
	defer rows.Close()

	terms := make([]Term, 0)
	for rows.Next() {
		var found Term
		if err := rows.Scan(&found.ID, &found.Namespace, &found.Name, &found.Slug, &found.Count); err != nil {
			return nil, dberr.Wrap(err, "scan_term")
		}
		terms = append(terms, found)
	}
	return terms, dberr.Wrap(rows.Err(), "list_terms")
}

// # Assets

func (repository *PostgresRepository) CreateAsset(context context.Context, asset *Asset) error {
	media := schema.CatalogMediaAsset
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES (NULLIF($1, 0), $2, $3, $4, $5, $6)
		RETURNING %s, %s
	`,
		media.Table, media.ToolID, media.SourceURL, media.ContentType, media.FileName, media.ByteSize, media.Content,
		media.ID, media.CreatedAt,
	)

	err := repository.db.QueryRow(context, query,
		asset.ToolID, asset.SourceURL, asset.ContentType, asset.FileName, asset.ByteSize(), asset.Content,
	).Scan(&asset.ID, &asset.CreatedAt)

	return dberr.Wrap(err, "create_media_asset")
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
