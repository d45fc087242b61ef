package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/shopdesk/pkg/crypt"
)

// Tokens is the bearer token pair issued by the auth backend.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Empty reports whether no access token is held.
func (t Tokens) Empty() bool { return t.AccessToken == "" }

// TokenStore persists the session's tokens between runs. Load on an empty
// store returns zero Tokens and no error.
type TokenStore interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
}

// OpenTokenStore returns the store named by kind ("memory", "file" or
// "redis"). rdb is only used by the redis store.
func OpenTokenStore(kind, path string, rdb *redis.Client) (TokenStore, error) {
	switch kind {
	case "memory":
		return &MemoryTokens{}, nil
	case "file", "":
		return &FileTokens{Path: path}, nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("auth: redis token store needs a redis client")
		}
		return &RedisTokens{RDB: rdb, Key: "shopdesk:session"}, nil
	default:
		return nil, fmt.Errorf("auth: unknown token store %q", kind)
	}
}

// ── Memory ───────────────────────────────────────────────────────────────────

// MemoryTokens keeps tokens for the life of the process.
type MemoryTokens struct {
	mu sync.Mutex
	t  Tokens
}

func (m *MemoryTokens) Load(context.Context) (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t, nil
}

func (m *MemoryTokens) Save(_ context.Context, t Tokens) error {
	m.mu.Lock()
	m.t = t
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokens) Clear(context.Context) error {
	m.mu.Lock()
	m.t = Tokens{}
	m.mu.Unlock()
	return nil
}

// ── File ─────────────────────────────────────────────────────────────────────

// FileTokens keeps tokens in a 0600 JSON file, sealed when Sealer is set.
type FileTokens struct {
	Path   string
	Sealer *crypt.Sealer
	mu     sync.Mutex
}

func (f *FileTokens) Load(context.Context) (Tokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var t Tokens
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("auth: read %s: %w", f.Path, err)
	}
	// A plain JSON file predates the key; it is sealed on the next Save.
	if f.Sealer != nil && !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		if data, err = f.Sealer.Open(bytes.TrimSpace(data)); err != nil {
			return Tokens{}, fmt.Errorf("auth: open %s: %w", f.Path, err)
		}
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return Tokens{}, fmt.Errorf("auth: decode %s: %w", f.Path, err)
	}
	return t, nil
}

func (f *FileTokens) Save(_ context.Context, t Tokens) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if f.Sealer != nil {
		if data, err = f.Sealer.Seal(data); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("auth: create session dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("auth: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileTokens) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("auth: remove %s: %w", f.Path, err)
	}
	return nil
}

// ── Redis ────────────────────────────────────────────────────────────────────

// RedisTokens shares one session between processes through a Redis hash.
type RedisTokens struct {
	RDB *redis.Client
	Key string
}

func (r *RedisTokens) Load(ctx context.Context) (Tokens, error) {
	vals, err := r.RDB.HGetAll(ctx, r.Key).Result()
	if err != nil {
		return Tokens{}, fmt.Errorf("auth: redis load: %w", err)
	}
	return Tokens{AccessToken: vals["access"], RefreshToken: vals["refresh"]}, nil
}

func (r *RedisTokens) Save(ctx context.Context, t Tokens) error {
	if err := r.RDB.HSet(ctx, r.Key, "access", t.AccessToken, "refresh", t.RefreshToken).Err(); err != nil {
		return fmt.Errorf("auth: redis save: %w", err)
	}
	return nil
}

func (r *RedisTokens) Clear(ctx context.Context) error {
	return r.RDB.Del(ctx, r.Key).Err()
}
