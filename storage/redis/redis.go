// Package redis implements a datastore on Redis, for storage shared
// between several machines.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datrocity/pond/storage"
)

const connectTimeout = 5 * time.Second

// Config contains the Redis connection settings.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string `json:"addr" yaml:"addr"`
	// Password is optional.
	Password string `json:"password" yaml:"password"`
	// DB is the Redis database number.
	DB int `json:"db" yaml:"db"`
	// PoolSize is the connection pool size.
	PoolSize int `json:"pool_size" yaml:"pool_size"`
	// KeyPrefix is prepended to every stored key.
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// Datastore stores each object as one Redis string value.
//
// The fail-if-exists write maps to SET NX, which is atomic on the server.
type Datastore struct {
	id        string
	client    *redis.Client
	keyPrefix string
}

// New connects to Redis and returns the datastore.
func New(id string, cfg Config) (*Datastore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "pond:"
	}

	return &Datastore{
		id:        id,
		client:    client,
		keyPrefix: keyPrefix,
	}, nil
}

func (d *Datastore) ID() string { return d.id }

func (d *Datastore) key(path string) string { return d.keyPrefix + path }

func (d *Datastore) Exists(ctx context.Context, path string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(path)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (d *Datastore) ListVersions(ctx context.Context, location, name string) ([]string, error) {
	prefix := d.key(storage.JoinPath(location, name)) + "/"

	seen := make(map[string]struct{})
	var versions []string
	iter := d.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), prefix)
		version, _, ok := strings.Cut(rest, "/")
		if !ok || version == "" {
			continue
		}
		if _, dup := seen[version]; dup {
			continue
		}
		seen[version] = struct{}{}
		versions = append(versions, version)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return versions, nil
}

func (d *Datastore) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := d.client.Get(ctx, d.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (d *Datastore) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	if overwrite {
		if err := d.client.Set(ctx, d.key(path), data, 0).Err(); err != nil {
			return fmt.Errorf("redis set: %w", err)
		}
		return nil
	}

	ok, err := d.client.SetNX(ctx, d.key(path), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return storage.ErrAlreadyExists
	}
	return nil
}

func (d *Datastore) Close() error { return d.client.Close() }

var _ storage.Datastore = (*Datastore)(nil)
