package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Papers() store.Papers     { return &papers{db: s.db} }
func (s *pgStore) Users() store.Users       { return &users{db: s.db} }
func (s *pgStore) Groups() store.Groups     { return &groups{db: s.db} }
func (s *pgStore) Comments() store.Comments { return &comments{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap ensures the schema exists; safe to call repeatedly.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return createSchema(ctx, db)
}

// condBuilder accumulates WHERE conditions with $n placeholders.
type condBuilder struct {
	conds []string
	args  []interface{}
}

func (b *condBuilder) add(format string, args ...interface{}) {
	n := len(b.args)
	repl := make([]interface{}, len(args))
	for i := range args {
		repl[i] = fmt.Sprintf("$%d", n+i+1)
	}
	b.conds = append(b.conds, fmt.Sprintf(format, repl...))
	b.args = append(b.args, args...)
}

func (b *condBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func paperWhere(f store.PaperFilter) *condBuilder {
	b := &condBuilder{}
	if f.Author != "" {
		b.add(`EXISTS (SELECT 1 FROM paper_authors a WHERE a.paper_id = p.paper_id AND a.name = %s)`, f.Author)
	}
	if len(f.Tags) > 0 {
		b.add(`EXISTS (SELECT 1 FROM paper_tags t WHERE t.paper_id = p.paper_id AND t.tag = ANY(%s))`, f.Tags)
	}
	if f.PublishedAfter != nil {
		b.add(`p.published_at > %s`, f.PublishedAfter.UTC())
	}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			b.conds = append(b.conds, `FALSE`)
		} else {
			b.add(`p.paper_id = ANY(%s)`, f.IDs)
		}
	}
	return b
}

func sortColumn(s store.PaperSort) (string, error) {
	switch s {
	case store.SortDate, "":
		return "p.published_at", nil
	case store.SortTweets:
		return "p.tweet_score", nil
	case store.SortBookmarks:
		return "p.star_count", nil
	default:
		return "", fmt.Errorf("%w: sort %q not supported by store find", model.ErrValidation, s)
	}
}

// --- Papers ---

type papers struct{ db *sql.DB }

const paperColumns = `p.paper_id, p.title, p.abstract, p.published_at, p.tweet_score, p.star_count, p.github_url, p.github_stars, p.pwc_url, p.created_at`

func (p *papers) Find(ctx context.Context, q store.PaperQuery) ([]*model.Paper, error) {
	col, err := sortColumn(q.Sort)
	if err != nil {
		return nil, err
	}
	b := paperWhere(q.Filter)
	n := len(b.args)
	query := `SELECT ` + paperColumns + ` FROM papers p` + b.where() +
		fmt.Sprintf(` ORDER BY %s DESC, p.paper_id ASC LIMIT $%d OFFSET $%d`, col, n+1, n+2)
	args := append(b.args, q.Limit, q.Skip)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("papers find: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out, err := scanPapers(rows)
	if err != nil {
		return nil, err
	}
	if err := p.attachDetails(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *papers) Count(ctx context.Context, f store.PaperFilter) (int, error) {
	b := paperWhere(f)
	var n int
	row := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers p`+b.where(), b.args...)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("papers count: %w", err)
	}
	return n, nil
}

func (p *papers) TextSearch(ctx context.Context, query string, limit int) ([]model.PaperHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	rows, err := p.db.QueryContext(ctx, `
        SELECT paper_id, ts_rank(tsv, plainto_tsquery('english', $1))::float8 AS rank
        FROM papers
        WHERE tsv @@ plainto_tsquery('english', $1)
        ORDER BY rank DESC, paper_id ASC
        LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("papers text search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []model.PaperHit
	for rows.Next() {
		var h model.PaperHit
		if err := rows.Scan(&h.PaperID, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (p *papers) GetByID(ctx context.Context, paperID string) (*model.Paper, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+paperColumns+` FROM papers p WHERE p.paper_id = $1`, paperID)
	if err != nil {
		return nil, fmt.Errorf("papers get: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out, err := scanPapers(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, model.ErrNotFound
	}
	if err := p.attachDetails(ctx, out); err != nil {
		return nil, err
	}
	return out[0], nil
}

func (p *papers) GetByIDs(ctx context.Context, paperIDs []string) ([]*model.Paper, error) {
	if len(paperIDs) == 0 {
		return nil, nil
	}
	rows, err := p.db.QueryContext(ctx, `SELECT `+paperColumns+` FROM papers p WHERE p.paper_id = ANY($1)`, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("papers get by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()
	found, err := scanPapers(rows)
	if err != nil {
		return nil, err
	}
	if err := p.attachDetails(ctx, found); err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Paper, len(found))
	for _, pp := range found {
		byID[pp.PaperID] = pp
	}
	out := make([]*model.Paper, 0, len(found))
	for _, id := range paperIDs {
		if pp, ok := byID[id]; ok {
			out = append(out, pp)
		}
	}
	return out, nil
}

func (p *papers) Upsert(ctx context.Context, m *model.Paper) error {
	if m.PaperID == "" {
		return fmt.Errorf("%w: paper id is required", model.ErrValidation)
	}
	names := make([]string, 0, len(m.Authors))
	for _, a := range m.Authors {
		names = append(names, a.Name)
	}
	authorsText := strings.Join(names, " ")

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO papers (paper_id, title, abstract, authors_text, published_at, tweet_score, star_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (paper_id) DO UPDATE SET
            title = EXCLUDED.title,
            abstract = EXCLUDED.abstract,
            authors_text = EXCLUDED.authors_text,
            published_at = EXCLUDED.published_at,
            tweet_score = EXCLUDED.tweet_score
    `, m.PaperID, m.Title, m.Abstract, authorsText, m.PublishedAt.UTC(), m.TweetScore, m.StarCount); err != nil {
		return fmt.Errorf("papers upsert: %w", err)
	}

	for _, table := range []string{"paper_authors", "paper_tags", "paper_tweets"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE paper_id = $1`, m.PaperID); err != nil {
			return err
		}
	}
	for i, a := range m.Authors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO paper_authors (paper_id, position, name, affiliation) VALUES ($1,$2,$3,$4)`,
			m.PaperID, i, a.Name, a.Affiliation); err != nil {
			return err
		}
	}
	for _, tag := range m.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO paper_tags (paper_id, tag) VALUES ($1,$2) ON CONFLICT DO NOTHING`, m.PaperID, tag); err != nil {
			return err
		}
	}
	for _, tw := range m.Tweets {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO paper_tweets (paper_id, tweet_id, handle, likes, retweets, replies) VALUES ($1,$2,$3,$4,$5,$6)
            ON CONFLICT (paper_id, tweet_id) DO UPDATE SET likes = EXCLUDED.likes, retweets = EXCLUDED.retweets, replies = EXCLUDED.replies
        `, m.PaperID, tw.TweetID, tw.Handle, tw.Likes, tw.Retweets, tw.Replies); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *papers) SetCode(ctx context.Context, paperID string, code *model.CodeLink) error {
	var res sql.Result
	var err error
	if code == nil {
		res, err = p.db.ExecContext(ctx, `UPDATE papers SET github_url = NULL, github_stars = 0, pwc_url = NULL WHERE paper_id = $1`, paperID)
	} else {
		var pwc *string
		if code.PwcURL != "" {
			pwc = &code.PwcURL
		}
		res, err = p.db.ExecContext(ctx, `UPDATE papers SET github_url = $1, github_stars = $2, pwc_url = $3 WHERE paper_id = $4`,
			code.GithubURL, code.Stars, pwc, paperID)
	}
	if err != nil {
		return fmt.Errorf("papers set code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanPapers(rows *sql.Rows) ([]*model.Paper, error) {
	var out []*model.Paper
	for rows.Next() {
		var m model.Paper
		var ghURL, pwcURL *string
		var ghStars int
		if err := rows.Scan(&m.PaperID, &m.Title, &m.Abstract, &m.PublishedAt, &m.TweetScore, &m.StarCount, &ghURL, &ghStars, &pwcURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		if ghURL != nil {
			m.Code = &model.CodeLink{GithubURL: *ghURL, Stars: ghStars}
			if pwcURL != nil {
				m.Code.PwcURL = *pwcURL
			}
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (p *papers) attachDetails(ctx context.Context, page []*model.Paper) error {
	if len(page) == 0 {
		return nil
	}
	ids := make([]string, len(page))
	byID := make(map[string]*model.Paper, len(page))
	for i, m := range page {
		ids[i] = m.PaperID
		byID[m.PaperID] = m
	}

	rows, err := p.db.QueryContext(ctx, `SELECT paper_id, name, affiliation FROM paper_authors WHERE paper_id = ANY($1) ORDER BY paper_id, position`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id string
		var a model.Author
		if err := rows.Scan(&id, &a.Name, &a.Affiliation); err != nil {
			_ = rows.Close()
			return err
		}
		byID[id].Authors = append(byID[id].Authors, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_ = rows.Close()

	rows, err = p.db.QueryContext(ctx, `SELECT paper_id, tag FROM paper_tags WHERE paper_id = ANY($1) ORDER BY paper_id, tag`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			_ = rows.Close()
			return err
		}
		byID[id].Tags = append(byID[id].Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_ = rows.Close()

	rows, err = p.db.QueryContext(ctx, `SELECT paper_id, tweet_id, handle, likes, retweets, replies FROM paper_tweets WHERE paper_id = ANY($1) ORDER BY paper_id, tweet_id`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id string
		var tw model.TweetRef
		if err := rows.Scan(&id, &tw.TweetID, &tw.Handle, &tw.Likes, &tw.Retweets, &tw.Replies); err != nil {
			_ = rows.Close()
			return err
		}
		byID[id].Tweets = append(byID[id].Tweets, tw)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_ = rows.Close()
	return nil
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.UserID == "" {
		out.UserID = uuid.New().String()
	}
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, display_name) VALUES ($1,$2,$3)
        RETURNING created_at`, out.UserID, out.Email, out.DisplayName)
	if err := row.Scan(&created); err != nil {
		return nil, fmt.Errorf("users create: %w", err)
	}
	out.CreatedAt = created
	return &out, nil
}

func (u *users) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return u.getWhere(ctx, `user_id = $1`, userID)
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getWhere(ctx, `email = $1`, email)
}

func (u *users) getWhere(ctx context.Context, cond string, arg interface{}) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `SELECT user_id, email, display_name, created_at FROM users WHERE `+cond, arg)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("users get: %w", err)
	}
	return &out, nil
}

func (u *users) Library(ctx context.Context, userID string) ([]string, error) {
	rows, err := u.db.QueryContext(ctx, `SELECT paper_id FROM library WHERE user_id = $1 ORDER BY paper_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("library list: %w", err)
	}
	defer func() { _ = rows.Close() }()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (u *users) SaveToLibrary(ctx context.Context, userID, paperID string) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers WHERE paper_id = $1`, paperID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrNotFound
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO library (user_id, paper_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, userID, paperID)
	if err != nil {
		return fmt.Errorf("library save: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// Star count tracks distinct saves; only a first-time save bumps it.
	if n > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE papers SET star_count = star_count + 1 WHERE paper_id = $1`, paperID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (u *users) RemoveFromLibrary(ctx context.Context, userID, paperID string) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM library WHERE user_id = $1 AND paper_id = $2`, userID, paperID)
	if err != nil {
		return fmt.Errorf("library remove: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE papers SET star_count = GREATEST(star_count - 1, 0) WHERE paper_id = $1`, paperID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Groups ---

type groups struct{ db *sql.DB }

func (g *groups) Create(ctx context.Context, m *model.Group) (*model.Group, error) {
	out := *m
	if out.GroupID == "" {
		out.GroupID = uuid.New().String()
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `INSERT INTO groups (group_id, name, created_by) VALUES ($1,$2,$3) RETURNING created_at`,
		out.GroupID, out.Name, out.CreatedBy)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, fmt.Errorf("groups create: %w", err)
	}
	// The creator is always a member.
	if _, err := tx.ExecContext(ctx, `INSERT INTO group_users (group_id, user_id) VALUES ($1,$2)`, out.GroupID, out.CreatedBy); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *groups) Get(ctx context.Context, groupID string) (*model.Group, error) {
	var out model.Group
	row := g.db.QueryRowContext(ctx, `SELECT group_id, name, created_by, created_at FROM groups WHERE group_id = $1`, groupID)
	if err := row.Scan(&out.GroupID, &out.Name, &out.CreatedBy, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("groups get: %w", err)
	}
	return &out, nil
}

func (g *groups) GroupsOf(ctx context.Context, userID string) ([]*model.Group, error) {
	rows, err := g.db.QueryContext(ctx, `
        SELECT g.group_id, g.name, g.created_by, g.created_at
        FROM groups g JOIN group_users gu ON gu.group_id = g.group_id
        WHERE gu.user_id = $1
        ORDER BY g.name, g.group_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("groups of user: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Group
	for rows.Next() {
		var m model.Group
		if err := rows.Scan(&m.GroupID, &m.Name, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (g *groups) PapersOf(ctx context.Context, groupID string) ([]string, error) {
	if _, err := g.Get(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := g.db.QueryContext(ctx, `SELECT paper_id FROM group_papers WHERE group_id = $1 ORDER BY paper_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("group papers: %w", err)
	}
	defer func() { _ = rows.Close() }()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (g *groups) AddPaper(ctx context.Context, groupID, paperID string) error {
	if _, err := g.Get(ctx, groupID); err != nil {
		return err
	}
	_, err := g.db.ExecContext(ctx, `INSERT INTO group_papers (group_id, paper_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, groupID, paperID)
	return err
}

func (g *groups) RemovePaper(ctx context.Context, groupID, paperID string) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM group_papers WHERE group_id = $1 AND paper_id = $2`, groupID, paperID)
	return err
}

func (g *groups) Join(ctx context.Context, groupID, userID string) error {
	if _, err := g.Get(ctx, groupID); err != nil {
		return err
	}
	_, err := g.db.ExecContext(ctx, `INSERT INTO group_users (group_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, groupID, userID)
	return err
}

func (g *groups) Leave(ctx context.Context, groupID, userID string) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM group_users WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

func (g *groups) ForUserAndPapers(ctx context.Context, userID string, paperIDs []string) (map[string][]model.GroupRef, error) {
	out := make(map[string][]model.GroupRef)
	if len(paperIDs) == 0 {
		return out, nil
	}
	rows, err := g.db.QueryContext(ctx, `
        SELECT gp.paper_id, g.group_id, g.name
        FROM group_papers gp
        JOIN groups g ON g.group_id = gp.group_id
        JOIN group_users gu ON gu.group_id = gp.group_id AND gu.user_id = $1
        WHERE gp.paper_id = ANY($2)
        ORDER BY g.name, g.group_id`, userID, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("groups for papers: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var paperID string
		var ref model.GroupRef
		if err := rows.Scan(&paperID, &ref.GroupID, &ref.Name); err != nil {
			return nil, err
		}
		out[paperID] = append(out[paperID], ref)
	}
	return out, rows.Err()
}

// --- Comments ---

type comments struct{ db *sql.DB }

func (c *comments) Create(ctx context.Context, m *model.Comment) (*model.Comment, error) {
	out := *m
	if out.CommentID == "" {
		out.CommentID = uuid.New().String()
	}
	var position *string
	if len(out.Position) > 0 {
		s := string(out.Position)
		position = &s
	}
	var groupID *string
	if out.Visibility.GroupID != "" {
		groupID = &out.Visibility.GroupID
	}
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO comments (comment_id, paper_id, user_id, body, highlighted_text, position_json, is_general, visibility, group_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at`,
		out.CommentID, out.PaperID, out.UserID, out.Text, out.HighlightedText, position, out.IsGeneral, out.Visibility.Type, groupID)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, fmt.Errorf("comments create: %w", err)
	}
	return &out, nil
}

const commentColumns = `comment_id, paper_id, user_id, body, highlighted_text, position_json, is_general, visibility, group_id, created_at`

func scanComment(scanner interface{ Scan(...interface{}) error }) (*model.Comment, error) {
	var m model.Comment
	var position, groupID *string
	if err := scanner.Scan(&m.CommentID, &m.PaperID, &m.UserID, &m.Text, &m.HighlightedText, &position, &m.IsGeneral, &m.Visibility.Type, &groupID, &m.CreatedAt); err != nil {
		return nil, err
	}
	if position != nil {
		m.Position = []byte(*position)
	}
	if groupID != nil {
		m.Visibility.GroupID = *groupID
	}
	return &m, nil
}

func (c *comments) Get(ctx context.Context, commentID string) (*model.Comment, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE comment_id = $1`, commentID)
	m, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("comments get: %w", err)
	}
	if err := c.attachReplies(ctx, []*model.Comment{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *comments) Update(ctx context.Context, commentID, text string, vis model.Visibility) (*model.Comment, error) {
	var groupID *string
	if vis.Type == model.VisibilityGroup {
		groupID = &vis.GroupID
	}
	res, err := c.db.ExecContext(ctx, `UPDATE comments SET body = $1, visibility = $2, group_id = $3 WHERE comment_id = $4`,
		text, vis.Type, groupID, commentID)
	if err != nil {
		return nil, fmt.Errorf("comments update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.ErrNotFound
	}
	return c.Get(ctx, commentID)
}

func (c *comments) Delete(ctx context.Context, commentID string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM comments WHERE comment_id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("comments delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (c *comments) ListForPaper(ctx context.Context, paperID string, viewerID *string, groupID string) ([]*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE paper_id = $1`
	args := []interface{}{paperID}
	switch {
	case groupID != "":
		query += ` AND group_id = $2`
		args = append(args, groupID)
	case viewerID != nil:
		query += ` AND (visibility = ANY($2) OR user_id = $3)`
		args = append(args, []string{model.VisibilityPublic, model.VisibilityAnonymous}, *viewerID)
	default:
		query += ` AND visibility = ANY($2)`
		args = append(args, []string{model.VisibilityPublic, model.VisibilityAnonymous})
	}
	query += ` ORDER BY created_at ASC, comment_id ASC`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("comments list: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Comment
	for rows.Next() {
		m, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := c.attachReplies(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *comments) CountByPaper(ctx context.Context, paperIDs []string, visibilities []string) (map[string]int, error) {
	out := make(map[string]int)
	if len(paperIDs) == 0 || len(visibilities) == 0 {
		return out, nil
	}
	rows, err := c.db.QueryContext(ctx, `
        SELECT paper_id, COUNT(*) FROM comments
        WHERE paper_id = ANY($1) AND visibility = ANY($2)
        GROUP BY paper_id`, paperIDs, visibilities)
	if err != nil {
		return nil, fmt.Errorf("comments count: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (c *comments) AddReply(ctx context.Context, r *model.Reply) (*model.Reply, error) {
	if _, err := c.Get(ctx, r.CommentID); err != nil {
		return nil, err
	}
	out := *r
	if out.ReplyID == "" {
		out.ReplyID = uuid.New().String()
	}
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO replies (reply_id, comment_id, user_id, body) VALUES ($1,$2,$3,$4)
        RETURNING created_at`, out.ReplyID, out.CommentID, out.UserID, out.Text)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, fmt.Errorf("replies create: %w", err)
	}
	return &out, nil
}

func (c *comments) attachReplies(ctx context.Context, page []*model.Comment) error {
	if len(page) == 0 {
		return nil
	}
	ids := make([]string, len(page))
	byID := make(map[string]*model.Comment, len(page))
	for i, m := range page {
		ids[i] = m.CommentID
		byID[m.CommentID] = m
	}
	rows, err := c.db.QueryContext(ctx, `
        SELECT reply_id, comment_id, user_id, body, created_at FROM replies
        WHERE comment_id = ANY($1)
        ORDER BY created_at ASC, reply_id ASC`, ids)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var r model.Reply
		if err := rows.Scan(&r.ReplyID, &r.CommentID, &r.UserID, &r.Text, &r.CreatedAt); err != nil {
			return err
		}
		byID[r.CommentID].Replies = append(byID[r.CommentID].Replies, r)
	}
	return rows.Err()
}
