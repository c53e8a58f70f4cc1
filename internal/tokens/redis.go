package tokens

import (
	"encoding/json"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const tokenKeyPrefix = "fortune:token:"

// delete-if-value-equals, so the take stays atomic across instances:
// of two concurrent consumers only the one whose DEL fires wins.
const takeScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0`

// RedisStore backs the registry with a shared redis, for deployments
// running more than one instance.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl, grace time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl + grace}
}

func (s *RedisStore) Put(t *Token) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "marshal token")
	}

	if err := s.rdb.Set(tokenKeyPrefix+t.ID, raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "set token")
	}
	return nil
}

func (s *RedisStore) Take(id string, userID int64, kind Kind) (*Token, error) {
	key := tokenKeyPrefix + id

	raw, err := s.rdb.Get(key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get token")
	}

	t := &Token{}
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, errors.Wrap(err, "unmarshal token")
	}

	if t.UserID != userID || t.Kind != kind {
		return nil, nil
	}

	deleted, err := s.rdb.Eval(takeScript, []string{key}, string(raw)).Int64()
	if err != nil {
		return nil, errors.Wrap(err, "delete token")
	}
	if deleted == 0 {
		return nil, nil
	}

	return t, nil
}

// Purge is a no-op: redis expires entries through the key TTL.
func (s *RedisStore) Purge(time.Time) (int, error) {
	return 0, nil
}
