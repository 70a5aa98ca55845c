// Package redisstore keeps the catalog in Redis.
//
// Layout under namespace ns:
//
//	<ns>:rec:<id>      MessagePack-encoded record
//	<ns>:ids           sorted set of ids scored by catalog number
//	<ns>:name:<lower>  set of ids whose lower-cased name is <lower>
//	<ns>:seq           catalog number counter
//
// Multi-key writes go through MULTI/EXEC pipelines. Concurrent updates of the
// same id are last-writer-wins.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/record"
)

var (
	ErrNilClient   = errors.New("redisstore: nil client")
	ErrDuplicateID = errors.New("redisstore: duplicate id")
)

type Config struct {
	Client    goredis.UniversalClient
	Namespace string           // "" => "catalog"
	Now       func() time.Time // nil => time.Now
}

type Store struct {
	rdb goredis.UniversalClient
	ns  string
	now func() time.Time
}

var _ catalogcache.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	s := &Store{rdb: cfg.Client, ns: cfg.Namespace, now: cfg.Now}
	if s.ns == "" {
		s.ns = "catalog"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Store) recKey(id string) string    { return s.ns + ":rec:" + id }
func (s *Store) idsKey() string             { return s.ns + ":ids" }
func (s *Store) seqKey() string             { return s.ns + ":seq" }
func (s *Store) nameKey(name string) string { return s.ns + ":name:" + strings.ToLower(name) }

// FindAll returns every record ordered by catalog number.
func (s *Store) FindAll(ctx context.Context) ([]record.Record, error) {
	ids, err := s.rdb.ZRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list ids: %w", err)
	}
	return s.load(ctx, ids)
}

func (s *Store) FindByID(ctx context.Context, id string) (*record.Record, error) {
	return s.get(ctx, normalize(id))
}

// FindByName matches the whole name, ignoring case.
func (s *Store) FindByName(ctx context.Context, name string) ([]record.Record, error) {
	ids, err := s.rdb.SMembers(ctx, s.nameKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: name index: %w", err)
	}
	return s.load(ctx, ids)
}

// Save inserts rec. A zero ID gets a random one; a caller-supplied ID must not
// exist yet.
func (s *Store) Save(ctx context.Context, rec record.Record) (*record.Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	id := rec.Key()

	n, err := s.rdb.Exists(ctx, s.recKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: exists: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	seq, err := s.rdb.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: next number: %w", err)
	}

	now := s.now().UTC()
	rec.Number = seq
	rec.CreatedAt, rec.UpdatedAt = now, now
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode: %w", err)
	}

	// SETNX inside the transaction guards against a concurrent Save of the
	// same caller-supplied id.
	var created *goredis.BoolCmd
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		created = p.SetNX(ctx, s.recKey(id), b, 0)
		p.ZAdd(ctx, s.idsKey(), goredis.Z{Score: float64(seq), Member: id})
		p.SAdd(ctx, s.nameKey(rec.Name), id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redisstore: save: %w", err)
	}
	if !created.Val() {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	return &rec, nil
}

// Update replaces the record stored under id. It returns nil when id is
// unknown. ID, Number and CreatedAt are kept from the stored record.
func (s *Store) Update(ctx context.Context, id string, rec record.Record) (*record.Record, error) {
	id = normalize(id)
	cur, err := s.get(ctx, id)
	if err != nil || cur == nil {
		return nil, err
	}
	rec.ID, rec.Number, rec.CreatedAt = cur.ID, cur.Number, cur.CreatedAt
	rec.UpdatedAt = s.now().UTC()
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.recKey(id), b, 0)
		if !strings.EqualFold(cur.Name, rec.Name) {
			p.SRem(ctx, s.nameKey(cur.Name), id)
			p.SAdd(ctx, s.nameKey(rec.Name), id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redisstore: update: %w", err)
	}
	return &rec, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	id = normalize(id)
	cur, err := s.get(ctx, id)
	if err != nil || cur == nil {
		return false, err
	}
	var del *goredis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		del = p.Del(ctx, s.recKey(id))
		p.ZRem(ctx, s.idsKey(), id)
		p.SRem(ctx, s.nameKey(cur.Name), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redisstore: delete: %w", err)
	}
	return del.Val() > 0, nil
}

func (s *Store) get(ctx context.Context, id string) (*record.Record, error) {
	b, err := s.rdb.Get(ctx, s.recKey(id)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %s: %w", id, err)
	}
	var rec record.Record
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("redisstore: decode %s: %w", id, err)
	}
	return &rec, nil
}

// load fetches ids in order. Ids whose record vanished in between are skipped.
func (s *Store) load(ctx context.Context, ids []string) ([]record.Record, error) {
	out := make([]record.Record, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: mget: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec record.Record
		if err := msgpack.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("redisstore: decode %s: %w", ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func normalize(id string) string { return strings.ToLower(strings.TrimSpace(id)) }
