package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mercator-hq/backupkeeper/pkg/namespace"
)

const (
	defaultRedisURL       = "redis://localhost:6379"
	defaultRedisKeyPrefix = "backupkeeper"
	rootKey               = "root"
)

// RedisConfig contains configuration for the Redis storage backend.
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// KeyPrefix namespaces every key the store writes.
	KeyPrefix string
}

// RedisStore implements namespace.Backend on Redis.
//
// Layout, for prefix p:
//
//	p:seq              counter ordering nodes and artifacts
//	p:node:<id>        hash {parent, name, created_at}
//	p:children:<id>    sorted set of child ids ("root" for the root)
//	p:artifacts:<id>   sorted set of artifact ids
//	p:artifact:<aid>   hash {node, name, created_at, size}
//	p:blob:<aid>       artifact content
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	url := cfg.URL
	if url == "" {
		url = defaultRedisURL
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, NewBackendError("redis", "parse_url", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, NewBackendError("redis", "connect", err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// ListChildren returns the children of nodeID in creation order.
func (s *RedisStore) ListChildren(ctx context.Context, nodeID string) ([]namespace.Node, error) {
	if err := s.requireNode(ctx, s.client, namespace.OpListChildren, nodeID); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, s.childrenKey(nodeID), 0, -1).Result()
	if err != nil {
		return nil, NewBackendError("redis", namespace.OpListChildren, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	names := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		names[i] = pipe.HGet(ctx, s.nodeKey(id), "name")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, NewBackendError("redis", namespace.OpListChildren, err)
	}

	children := make([]namespace.Node, 0, len(ids))
	for i, id := range ids {
		name, err := names[i].Result()
		if errors.Is(err, redis.Nil) {
			// Index entry without a node hash: a concurrent delete.
			continue
		}
		if err != nil {
			return nil, NewBackendError("redis", namespace.OpListChildren, err)
		}
		children = append(children, namespace.Node{ID: id, DisplayName: name})
	}
	return children, nil
}

// CreateChild adds a child node under parentID.
func (s *RedisStore) CreateChild(ctx context.Context, parentID, displayName string) (string, error) {
	if err := s.requireNode(ctx, s.client, namespace.OpCreateChild, parentID); err != nil {
		return "", err
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return "", NewBackendError("redis", namespace.OpCreateChild, err)
	}

	id := uuid.NewString()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.nodeKey(id),
		"parent", parentID,
		"name", displayName,
		"created_at", time.Now().UnixNano(),
	)
	pipe.ZAdd(ctx, s.childrenKey(parentID), redis.Z{Score: float64(seq), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", NewBackendError("redis", namespace.OpCreateChild, err)
	}
	return id, nil
}

// ListArtifacts returns the artifacts of nodeID in upload order.
func (s *RedisStore) ListArtifacts(ctx context.Context, nodeID string) ([]namespace.Artifact, error) {
	if err := s.requireNode(ctx, s.client, namespace.OpListArtifacts, nodeID); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, s.artifactsKey(nodeID), 0, -1).Result()
	if err != nil {
		return nil, NewBackendError("redis", namespace.OpListArtifacts, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	fields := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		fields[i] = pipe.HGetAll(ctx, s.artifactKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, NewBackendError("redis", namespace.OpListArtifacts, err)
	}

	artifacts := make([]namespace.Artifact, 0, len(ids))
	for i, id := range ids {
		values := fields[i].Val()
		if len(values) == 0 {
			continue
		}
		artifact, err := decodeArtifact(id, values)
		if err != nil {
			return nil, NewBackendError("redis", namespace.OpListArtifacts, err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// DeleteArtifact removes an artifact. Unknown artifacts are ignored.
func (s *RedisStore) DeleteArtifact(ctx context.Context, nodeID, artifactID string) error {
	owner, err := s.client.HGet(ctx, s.artifactKey(artifactID), "node").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return NewBackendError("redis", namespace.OpDeleteArtifact, err)
	}
	if owner != nodeID {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.artifactKey(artifactID), s.blobKey(artifactID))
	pipe.ZRem(ctx, s.artifactsKey(nodeID), artifactID)
	if _, err := pipe.Exec(ctx); err != nil {
		return NewBackendError("redis", namespace.OpDeleteArtifact, err)
	}
	return nil
}

// DeleteNode removes an empty node. The node's child and artifact sets are
// watched so a concurrent upload aborts the delete.
func (s *RedisStore) DeleteNode(ctx context.Context, nodeID string) error {
	if nodeID == namespace.RootID {
		return NewBackendError("redis", namespace.OpDeleteNode, errors.New("the namespace root cannot be deleted"))
	}

	nodeKey := s.nodeKey(nodeID)
	childrenKey := s.childrenKey(nodeID)
	artifactsKey := s.artifactsKey(nodeID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		parent, err := tx.HGet(ctx, nodeKey, "parent").Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotFound)
		}
		if err != nil {
			return err
		}

		children, err := tx.ZCard(ctx, childrenKey).Result()
		if err != nil {
			return err
		}
		artifacts, err := tx.ZCard(ctx, artifactsKey).Result()
		if err != nil {
			return err
		}
		if children > 0 || artifacts > 0 {
			return fmt.Errorf("node %q has %d children and %d artifacts: %w",
				nodeID, children, artifacts, namespace.ErrNodeNotEmpty)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, nodeKey, childrenKey, artifactsKey)
			pipe.ZRem(ctx, s.childrenKey(parent), nodeID)
			return nil
		})
		return err
	}, nodeKey, childrenKey, artifactsKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, namespace.ErrNodeNotFound), errors.Is(err, namespace.ErrNodeNotEmpty):
		return err
	default:
		return NewBackendError("redis", namespace.OpDeleteNode, err)
	}
}

// PutArtifact stores the content of r as a new artifact under nodeID.
func (s *RedisStore) PutArtifact(ctx context.Context, nodeID, name string, createdAt time.Time, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact %q: %w", name, err)
	}

	if err := s.requireNode(ctx, s.client, namespace.OpPutArtifact, nodeID); err != nil {
		return "", err
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return "", NewBackendError("redis", namespace.OpPutArtifact, err)
	}

	id := uuid.NewString()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.artifactKey(id),
		"node", nodeID,
		"name", name,
		"created_at", createdAt.UnixNano(),
		"size", len(data),
	)
	pipe.Set(ctx, s.blobKey(id), data, 0)
	pipe.ZAdd(ctx, s.artifactsKey(nodeID), redis.Z{Score: float64(seq), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", NewBackendError("redis", namespace.OpPutArtifact, err)
	}
	return id, nil
}

// Content returns an artifact's bytes.
func (s *RedisStore) Content(ctx context.Context, artifactID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.blobKey(artifactID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("artifact %q not found", artifactID)
	}
	if err != nil {
		return nil, NewBackendError("redis", "read_content", err)
	}
	return data, nil
}

// requireNode fails with namespace.ErrNodeNotFound unless nodeID is the root
// or an existing node.
func (s *RedisStore) requireNode(ctx context.Context, c redis.Cmdable, operation, nodeID string) error {
	if nodeID == namespace.RootID {
		return nil
	}
	n, err := c.Exists(ctx, s.nodeKey(nodeID)).Result()
	if err != nil {
		return NewBackendError("redis", operation, err)
	}
	if n == 0 {
		return fmt.Errorf("node %q: %w", nodeID, namespace.ErrNodeNotFound)
	}
	return nil
}

func decodeArtifact(id string, values map[string]string) (namespace.Artifact, error) {
	createdAt, err := strconv.ParseInt(values["created_at"], 10, 64)
	if err != nil {
		return namespace.Artifact{}, fmt.Errorf("artifact %q: invalid created_at: %w", id, err)
	}
	size, err := strconv.ParseInt(values["size"], 10, 64)
	if err != nil {
		return namespace.Artifact{}, fmt.Errorf("artifact %q: invalid size: %w", id, err)
	}
	return namespace.Artifact{
		ID:        id,
		Name:      values["name"],
		CreatedAt: time.Unix(0, createdAt).UTC(),
		Size:      size,
	}, nil
}

func (s *RedisStore) seqKey() string {
	return s.prefix + ":seq"
}

func (s *RedisStore) nodeKey(id string) string {
	return s.prefix + ":node:" + id
}

func (s *RedisStore) childrenKey(id string) string {
	if id == namespace.RootID {
		id = rootKey
	}
	return s.prefix + ":children:" + id
}

func (s *RedisStore) artifactsKey(id string) string {
	if id == namespace.RootID {
		id = rootKey
	}
	return s.prefix + ":artifacts:" + id
}

func (s *RedisStore) artifactKey(id string) string {
	return s.prefix + ":artifact:" + id
}

func (s *RedisStore) blobKey(id string) string {
	return s.prefix + ":blob:" + id
}
