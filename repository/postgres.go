package repository

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

var (
	//go:embed sql/schema.sql
	querySchema string

	//go:embed sql/create.sql
	queryCreate string

	//go:embed sql/lock.sql
	queryLock string

	//go:embed sql/get.sql
	queryGet string

	//go:embed sql/find_by_email.sql
	queryFindByEmail string

	//go:embed sql/count.sql
	queryCount string
)

// Postgres stores items in the users table.
type Postgres struct {
	db  *pgxpool.Pool
	now func() time.Time
}

var _ ItemStore = (*Postgres)(nil)

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// ConnectPostgres opens a pool for url and creates the schema.
func ConnectPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}

	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the users table if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.Exec(ctx, querySchema)
	return err
}

func (p *Postgres) tx(ctx context.Context, f func(pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := f(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *Postgres) Create(ctx context.Context, in ItemInput) (*Item, error) {
	var item *Item
	err := p.tx(ctx, func(tx pgx.Tx) error {
		var err error
		item, err = p.insert(ctx, tx, in)
		return err
	})
	return item, err
}

func (p *Postgres) CreateFirst(ctx context.Context, in ItemInput) (*Item, error) {
	var item *Item
	err := p.tx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryLock); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRow(ctx, queryCount).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrNotEmpty
		}
		var err error
		item, err = p.insert(ctx, tx, in)
		return err
	})
	return item, err
}

func (p *Postgres) insert(ctx context.Context, tx pgx.Tx, in ItemInput) (*Item, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    p.now().UTC().Truncate(time.Microsecond),
	}
	_, err := tx.Exec(ctx, queryCreate, item.ID, item.Name, item.Email, item.PasswordHash, item.IsAdmin, item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return item, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return p.queryItem(ctx, queryGet, id)
}

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*Item, error) {
	return p.queryItem(ctx, queryFindByEmail, NormalizeEmail(email))
}

func (p *Postgres) queryItem(ctx context.Context, query string, arg string) (*Item, error) {
	var item Item
	err := p.db.QueryRow(ctx, query, arg).Scan(&item.ID, &item.Name, &item.Email, &item.PasswordHash, &item.IsAdmin, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRow(ctx, queryCount).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
