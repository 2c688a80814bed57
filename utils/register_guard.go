package utils

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/aiblog/config"
)

func regKey(parts ...string) string {
	key := "reg"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// RegistrationCooldownTry enforces a short cooldown between registrations
// per IP. Without Redis, or when disabled, every attempt passes.
func RegistrationCooldownTry(ctx context.Context, ip string) bool {
	sec := config.Get().RegisterCooldownSec
	cli := GetRedis()
	if sec <= 0 || cli == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	ok, err := cli.SetNX(ctx, regKey("cooldown", ip), "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	} // fail-open
	return ok
}

// RegistrationDailyLimitCheck allows up to N successful registrations per day per IP.
func RegistrationDailyLimitCheck(ctx context.Context, ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	cli := GetRedis()
	if limit <= 0 || cli == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := cli.Get(ctx, regKey("succday", ip, time.Now().Format("20060102"))).Int()
	if errors.Is(err, redis.Nil) {
		n = 0
	} else if err != nil {
		return true
	}
	return n < limit
}

// RegistrationDailyIncrement counts a successful registration for today.
func RegistrationDailyIncrement(ctx context.Context, ip string) {
	cli := GetRedis()
	if config.Get().RegisterMaxPerIPPerDay <= 0 || cli == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	key := regKey("succday", ip, time.Now().Format("20060102"))
	if err := cli.Incr(ctx, key).Err(); err == nil {
		// expire at the end of the day
		ttl := time.Until(time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour))
		_ = cli.Expire(ctx, key, ttl).Err()
	}
}
