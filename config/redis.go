package config

import (
	"sync"
	"time"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Concurrency int
	// ResultTTL is how long finished analysis jobs stay queryable.
	ResultTTL time.Duration
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadDotEnv()
		redisConfig = LoadRedisConfig(osLookup)
	})
	return redisConfig
}

func LoadRedisConfig(env Lookup) *RedisConfig {
	return &RedisConfig{
		Addr:        envString(env, "REDIS_ADDR", "localhost:6379"),
		Password:    env("REDIS_PASSWORD"),
		DB:          envInt(env, "REDIS_DB", 0),
		Concurrency: envInt(env, "WORKER_CONCURRENCY", 4),
		ResultTTL:   envDuration(env, "JOB_RESULT_TTL", 24*time.Hour),
	}
}
