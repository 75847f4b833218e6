package postgres

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS papers (
        paper_id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        abstract TEXT NOT NULL DEFAULT '',
        authors_text TEXT NOT NULL DEFAULT '',
        published_at TIMESTAMPTZ NOT NULL,
        tweet_score INTEGER NOT NULL DEFAULT 0,
        star_count INTEGER NOT NULL DEFAULT 0,
        github_url TEXT,
        github_stars INTEGER NOT NULL DEFAULT 0,
        pwc_url TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        tsv tsvector GENERATED ALWAYS AS (
            to_tsvector('english', title || ' ' || abstract || ' ' || authors_text)
        ) STORED
    )`,
	`CREATE INDEX IF NOT EXISTS papers_tsv_idx ON papers USING GIN (tsv)`,
	`CREATE INDEX IF NOT EXISTS papers_published_idx ON papers (published_at DESC)`,
	`CREATE TABLE IF NOT EXISTS paper_authors (
        paper_id TEXT NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
        position INTEGER NOT NULL,
        name TEXT NOT NULL,
        affiliation TEXT NOT NULL DEFAULT '',
        PRIMARY KEY(paper_id, position)
    )`,
	`CREATE INDEX IF NOT EXISTS paper_authors_name_idx ON paper_authors(name)`,
	`CREATE TABLE IF NOT EXISTS paper_tags (
        paper_id TEXT NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
        tag TEXT NOT NULL,
        PRIMARY KEY(paper_id, tag)
    )`,
	`CREATE INDEX IF NOT EXISTS paper_tags_tag_idx ON paper_tags(tag)`,
	`CREATE TABLE IF NOT EXISTS paper_tweets (
        paper_id TEXT NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
        tweet_id TEXT NOT NULL,
        handle TEXT NOT NULL,
        likes INTEGER NOT NULL DEFAULT 0,
        retweets INTEGER NOT NULL DEFAULT 0,
        replies INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY(paper_id, tweet_id)
    )`,
	`CREATE TABLE IF NOT EXISTS users (
        user_id TEXT PRIMARY KEY,
        email TEXT NOT NULL UNIQUE,
        display_name TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS library (
        user_id TEXT NOT NULL REFERENCES users(user_id),
        paper_id TEXT NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
        saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY(user_id, paper_id)
    )`,
	`CREATE TABLE IF NOT EXISTS groups (
        group_id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        created_by TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS group_users (
        group_id TEXT NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
        user_id TEXT NOT NULL,
        PRIMARY KEY(group_id, user_id)
    )`,
	`CREATE TABLE IF NOT EXISTS group_papers (
        group_id TEXT NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
        paper_id TEXT NOT NULL,
        PRIMARY KEY(group_id, paper_id)
    )`,
	`CREATE TABLE IF NOT EXISTS comments (
        comment_id TEXT PRIMARY KEY,
        paper_id TEXT NOT NULL,
        user_id TEXT,
        body TEXT NOT NULL,
        highlighted_text TEXT,
        position_json TEXT,
        is_general BOOLEAN NOT NULL DEFAULT FALSE,
        visibility TEXT NOT NULL,
        group_id TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS comments_paper_idx ON comments(paper_id)`,
	`CREATE TABLE IF NOT EXISTS replies (
        reply_id TEXT PRIMARY KEY,
        comment_id TEXT NOT NULL REFERENCES comments(comment_id) ON DELETE CASCADE,
        user_id TEXT NOT NULL,
        body TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS replies_comment_idx ON replies(comment_id)`,
}

func createSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
