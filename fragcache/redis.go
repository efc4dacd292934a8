/*
 * redis.go, part of goconf.
 *
 *
 * Copyright 2021 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 *
 */

package fragcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//RedisStore is a Store on a Redis server, so several processes can share fragment geometries.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

//NewRedisStore returns a store using client. Keys are prefixed with prefix, and expire
//after ttl (never, if ttl is 0).
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

//DialRedis connects to the Redis server at addr and checks that it answers.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("fragcache: connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (R *RedisStore) Load(ctx context.Context, key string) (string, bool, error) {
	v, err := R.client.Get(ctx, R.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fragcache: redis get: %w", err)
	}
	return v, true, nil
}

func (R *RedisStore) Save(ctx context.Context, key, value string) error {
	if err := R.client.Set(ctx, R.prefix+key, value, R.ttl).Err(); err != nil {
		return fmt.Errorf("fragcache: redis set: %w", err)
	}
	return nil
}
