package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// storeFactories returns every store implementation available in this
// environment. Postgres joins only when AUTHBRIDGE_TEST_POSTGRES is set.
func storeFactories(t *testing.T) map[string]func(t *testing.T) ItemStore {
	t.Helper()
	factories := map[string]func(t *testing.T) ItemStore{
		"memory": func(t *testing.T) ItemStore { return NewMemory() },
		"bolt": func(t *testing.T) ItemStore {
			store, err := OpenBolt(filepath.Join(t.TempDir(), "items.db"))
			if err != nil {
				t.Fatalf("open bolt: %v", err)
			}
			t.Cleanup(func() { store.Close() })
			return store
		},
	}
	if url := os.Getenv("AUTHBRIDGE_TEST_POSTGRES"); url != "" {
		factories["postgres"] = func(t *testing.T) ItemStore {
			store, err := ConnectPostgres(context.Background(), url)
			if err != nil {
				t.Fatalf("connect postgres: %v", err)
			}
			if _, err := store.db.Exec(context.Background(), "TRUNCATE users"); err != nil {
				t.Fatalf("truncate: %v", err)
			}
			t.Cleanup(func() { store.Close() })
			return store
		}
	}
	return factories
}

func adaInput() ItemInput {
	return ItemInput{Name: "Ada", Email: "Ada@Example.com ", PasswordHash: "$2a$10$hash", IsAdmin: true}
}

func TestItemStoreCreateAndLookup(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			item, err := store.Create(ctx, adaInput())
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if item.ID == "" || item.Email != "ada@example.com" || !item.IsAdmin {
				t.Fatalf("unexpected item %+v", item)
			}

			byID, err := store.Get(ctx, item.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if byID.Email != item.Email || byID.PasswordHash != item.PasswordHash {
				t.Fatalf("get returned %+v", byID)
			}

			byEmail, err := store.FindByEmail(ctx, "ADA@example.com")
			if err != nil {
				t.Fatalf("find by email: %v", err)
			}
			if byEmail.ID != item.ID {
				t.Fatalf("find returned id %s, want %s", byEmail.ID, item.ID)
			}

			n, err := store.Count(ctx)
			if err != nil || n != 1 {
				t.Fatalf("count = %d, %v", n, err)
			}
			if err := store.Ping(ctx); err != nil {
				t.Fatalf("ping: %v", err)
			}
		})
	}
}

func TestItemStoreNotFoundAndDuplicate(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			if _, err := store.Get(ctx, "clgfkyin10000ecy82wllcj5i"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if _, err := store.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if _, err := store.Create(ctx, adaInput()); err != nil {
				t.Fatalf("create: %v", err)
			}
			if _, err := store.Create(ctx, adaInput()); !errors.Is(err, ErrDuplicateEmail) {
				t.Fatalf("expected ErrDuplicateEmail, got %v", err)
			}
			if _, err := store.Create(ctx, ItemInput{Email: "x@example.com"}); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestItemStoreCreateFirstOnlyOnce(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				created int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					in := adaInput()
					in.Email = string(rune('a'+i)) + "@example.com"
					if _, err := store.CreateFirst(ctx, in); err == nil {
						mu.Lock()
						created++
						mu.Unlock()
					} else if !errors.Is(err, ErrNotEmpty) {
						t.Errorf("unexpected error: %v", err)
					}
				}(i)
			}
			wg.Wait()

			if created != 1 {
				t.Fatalf("expected exactly one first item, got %d", created)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, "memory:")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := mem.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", mem)
	}

	file, err := Open(ctx, "file:"+filepath.Join(t.TempDir(), "authbridge.db"))
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer file.Close()
	if _, ok := file.(*Bolt); !ok {
		t.Fatalf("expected *Bolt, got %T", file)
	}

	for _, url := range []string{"file:", "mysql://x", ""} {
		if _, err := Open(ctx, url); !errors.Is(err, ErrUnsupportedURL) {
			t.Fatalf("%q: expected ErrUnsupportedURL, got %v", url, err)
		}
	}
}

func TestScheme(t *testing.T) {
	cases := map[string]string{
		"memory:":                      "memory",
		"file:./authbridge.db":         "bolt",
		"postgres://u:secret@db/app":   "postgres",
		"postgresql://u:secret@db/app": "postgres",
		"mysql://u:secret@db/app":      "unknown",
	}
	for url, want := range cases {
		if got := Scheme(url); got != want {
			t.Fatalf("Scheme(%q) = %q, want %q", url, got, want)
		}
	}
}
