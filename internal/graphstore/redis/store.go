// Package redis provides a Redis-backed graph store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/graphstore"
	"github.com/starford/nodeforge/internal/models"
)

const maxUpdateRetries = 16

// Store implements graphstore.Store using Redis.
//
// Layout under prefix: node:<id> holds the node JSON, nodes is the set of
// node ids, edge:<id> holds the edge JSON, edges is the set of edge ids and
// node:<id>:edges is the set of edge ids touching a node.
type Store struct {
	client *backend.Client
	prefix string
}

var _ graphstore.Store = (*Store)(nil)

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "nodeforge:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) nodeKey(id string) string      { return s.prefix + "node:" + id }
func (s *Store) nodeEdgesKey(id string) string { return s.prefix + "node:" + id + ":edges" }
func (s *Store) nodesKey() string              { return s.prefix + "nodes" }
func (s *Store) edgeKey(id string) string      { return s.prefix + "edge:" + id }
func (s *Store) edgesKey() string              { return s.prefix + "edges" }

// Create inserts a new node.
func (s *Store) Create(ctx context.Context, n models.Node) error {
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("graphstore: encode node: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.nodeKey(n.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("graphstore: create node: %w", err)
	}
	if !ok {
		return apperr.ErrAlreadyExists
	}
	if err := s.client.SAdd(ctx, s.nodesKey(), n.ID).Err(); err != nil {
		return fmt.Errorf("graphstore: index node: %w", err)
	}
	return nil
}

// Get returns the node with id.
func (s *Store) Get(ctx context.Context, id string) (models.Node, error) {
	return s.get(ctx, s.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *backend.StringCmd
}

func (s *Store) get(ctx context.Context, c getter, id string) (models.Node, error) {
	val, err := c.Get(ctx, s.nodeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return models.Node{}, apperr.ErrNotFound
		}
		return models.Node{}, fmt.Errorf("graphstore: get node: %w", err)
	}
	var n models.Node
	if err := json.Unmarshal(val, &n); err != nil {
		return models.Node{}, fmt.Errorf("graphstore: decode node %s: %w", id, err)
	}
	if n.Params == nil {
		n.Params = models.Params{}
	}
	return n, nil
}

// Update applies fn under WATCH on the node key, retrying when another
// writer changed the node between read and write.
func (s *Store) Update(ctx context.Context, id string, fn graphstore.Updater) (models.Node, error) {
	key := s.nodeKey(id)
	var result models.Node

	txf := func(tx *backend.Tx) error {
		old, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := fn(old.Clone())
		if err != nil {
			return err
		}
		next.ID = id
		next.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("graphstore: encode node: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		return models.Node{}, err
	}
	return models.Node{}, fmt.Errorf("graphstore: update %s: %w", id, apperr.ErrConflict)
}

// Delete removes a node and the edges touching it.
func (s *Store) Delete(ctx context.Context, id string) error {
	edgeIDs, err := s.client.SMembers(ctx, s.nodeEdgesKey(id)).Result()
	if err != nil {
		return fmt.Errorf("graphstore: node edges: %w", err)
	}
	edges := make([]models.Edge, 0, len(edgeIDs))
	for _, eid := range edgeIDs {
		e, err := s.getEdge(ctx, eid)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		edges = append(edges, e)
	}

	pipe := s.client.TxPipeline()
	for _, e := range edges {
		pipe.Del(ctx, s.edgeKey(e.ID))
		pipe.SRem(ctx, s.edgesKey(), e.ID)
		pipe.SRem(ctx, s.nodeEdgesKey(e.Source), e.ID)
		pipe.SRem(ctx, s.nodeEdgesKey(e.Target), e.ID)
	}
	pipe.Del(ctx, s.nodeKey(id), s.nodeEdgesKey(id))
	pipe.SRem(ctx, s.nodesKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("graphstore: delete node: %w", err)
	}
	return nil
}

// List returns every node ordered by id.
func (s *Store) List(ctx context.Context) ([]models.Node, error) {
	ids, err := s.client.SMembers(ctx, s.nodesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("graphstore: list nodes: %w", err)
	}
	sort.Strings(ids)
	out := make([]models.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.Get(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Connect inserts or replaces an edge.
func (s *Store) Connect(ctx context.Context, e models.Edge) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("graphstore: encode edge: %w", err)
	}
	prev, err := s.getEdge(ctx, e.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	if err == nil {
		pipe.SRem(ctx, s.nodeEdgesKey(prev.Source), e.ID)
		pipe.SRem(ctx, s.nodeEdgesKey(prev.Target), e.ID)
	}
	pipe.Set(ctx, s.edgeKey(e.ID), data, 0)
	pipe.SAdd(ctx, s.edgesKey(), e.ID)
	pipe.SAdd(ctx, s.nodeEdgesKey(e.Source), e.ID)
	pipe.SAdd(ctx, s.nodeEdgesKey(e.Target), e.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("graphstore: upsert edge: %w", err)
	}
	return nil
}

func (s *Store) getEdge(ctx context.Context, id string) (models.Edge, error) {
	val, err := s.client.Get(ctx, s.edgeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return models.Edge{}, apperr.ErrNotFound
		}
		return models.Edge{}, fmt.Errorf("graphstore: get edge: %w", err)
	}
	var e models.Edge
	if err := json.Unmarshal(val, &e); err != nil {
		return models.Edge{}, fmt.Errorf("graphstore: decode edge %s: %w", id, err)
	}
	return e, nil
}

// Edges returns every edge ordered by id.
func (s *Store) Edges(ctx context.Context) ([]models.Edge, error) {
	ids, err := s.client.SMembers(ctx, s.edgesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("graphstore: list edges: %w", err)
	}
	sort.Strings(ids)
	out := make([]models.Edge, 0, len(ids))
	for _, id := range ids {
		e, err := s.getEdge(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
