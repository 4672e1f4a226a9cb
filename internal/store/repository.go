// Package store persists kinds and posts in PostgreSQL or SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blackmichael/spotreport/internal/domain"
	"github.com/blackmichael/spotreport/internal/metrics"
)

// Options tune the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Repository implements domain.PostRepository and domain.KindRepository.
// Every method runs in its own transaction.
type Repository struct {
	db      *sql.DB
	dialect dialect
}

// Open prepares a connection pool for driver ("postgres" or "sqlite"). It
// does not contact the database; the first query or EnsureSchema does. The
// caller should call Close when the repository is no longer needed.
func Open(driver, dsn string, opts Options) (*Repository, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, d.dsn(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d.name == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Repository{db: db, dialect: d}, nil
}

// Close closes the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Driver returns the configured driver name.
func (r *Repository) Driver() string {
	return r.dialect.name
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema creates the tables if they do not exist. It is idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction and commits when it returns nil.
func (r *Repository) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveDB(op, start, err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

// CreatePost inserts a post with score 0 and returns its id.
func (r *Repository) CreatePost(ctx context.Context, post *domain.NewPost) (int64, error) {
	query := r.dialect.rebind(`
		INSERT INTO posts (latitude, longitude, address, title, text, kind, data, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		RETURNING id`)

	var id int64
	err := r.withTx(ctx, "create_post", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			post.Latitude,
			post.Longitude,
			post.Address,
			post.Title,
			post.Text,
			post.Kind,
			post.Image,
		).Scan(&id)
		if err = classify(err); errors.Is(err, errForeignKey) {
			return fmt.Errorf("insert post with kind %q: %w", post.Kind, domain.ErrUnknownKind)
		}
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	})
	return id, err
}

// ListPosts returns all posts without image data, ordered by id.
func (r *Repository) ListPosts(ctx context.Context) ([]domain.PostSummary, error) {
	posts := []domain.PostSummary{}
	err := r.withTx(ctx, "list_posts", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, latitude, longitude, address, title, text, kind, score
			FROM posts
			ORDER BY id`)
		if err != nil {
			return fmt.Errorf("query posts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var p domain.PostSummary
			err := rows.Scan(
				&p.ID,
				&p.Latitude,
				&p.Longitude,
				&p.Address,
				&p.Title,
				&p.Text,
				&p.Kind,
				&p.Score,
			)
			if err != nil {
				return fmt.Errorf("scan post: %w", err)
			}
			posts = append(posts, p)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate posts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// PostImage returns the stored image for a post.
func (r *Repository) PostImage(ctx context.Context, id int64) ([]byte, error) {
	query := r.dialect.rebind(`SELECT data FROM posts WHERE id = ?`)

	var data []byte
	err := r.withTx(ctx, "post_image", func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
			return fmt.Errorf("select image for post %d: %w", id, classify(err))
		}
		return nil
	})
	return data, err
}

// Upvote increments a post's score and returns the new value.
func (r *Repository) Upvote(ctx context.Context, id int64) (int64, error) {
	query := r.dialect.rebind(`UPDATE posts SET score = score + 1 WHERE id = ? RETURNING score`)

	var score int64
	err := r.withTx(ctx, "upvote", func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, id).Scan(&score); err != nil {
			return fmt.Errorf("upvote post %d: %w", id, classify(err))
		}
		return nil
	})
	return score, err
}

// ListKinds returns all kinds ordered by id.
func (r *Repository) ListKinds(ctx context.Context) ([]domain.Kind, error) {
	kinds := []domain.Kind{}
	err := r.withTx(ctx, "list_kinds", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, name, description FROM kinds ORDER BY id`)
		if err != nil {
			return fmt.Errorf("query kinds: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var k domain.Kind
			if err := rows.Scan(&k.ID, &k.Name, &k.Description); err != nil {
				return fmt.Errorf("scan kind: %w", err)
			}
			kinds = append(kinds, k)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate kinds: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kinds, nil
}

// CreateKind inserts a kind and returns its id.
func (r *Repository) CreateKind(ctx context.Context, kind domain.Kind) (int64, error) {
	query := r.dialect.rebind(`INSERT INTO kinds (name, description) VALUES (?, ?) RETURNING id`)

	var id int64
	err := r.withTx(ctx, "create_kind", func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, kind.Name, kind.Description).Scan(&id); err != nil {
			return fmt.Errorf("insert kind %q: %w", kind.Name, classify(err))
		}
		return nil
	})
	return id, err
}

// DeleteKind removes a kind by name and returns the deleted id. Posts that
// reference the kind block the delete.
func (r *Repository) DeleteKind(ctx context.Context, name string) (int64, error) {
	query := r.dialect.rebind(`DELETE FROM kinds WHERE name = ? RETURNING id`)

	var id int64
	err := r.withTx(ctx, "delete_kind", func(tx *sql.Tx) error {
		err := classify(tx.QueryRowContext(ctx, query, name).Scan(&id))
		if errors.Is(err, errForeignKey) {
			return fmt.Errorf("delete kind %q: %w", name, domain.ErrKindInUse)
		}
		if err != nil {
			return fmt.Errorf("delete kind %q: %w", name, err)
		}
		return nil
	})
	return id, err
}
