package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted-set entry per admitted event, scored by
// its timestamp in ms.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
redis.call("ZADD", key, now, member)
local count = redis.call("ZCARD", key)
redis.call("PEXPIRE", key, window)

if count <= limit then
  return {1, 0}
end

redis.call("ZREM", key, member)

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] ~= nil then
  local retryAfter = (tonumber(oldest[2]) + window) - now
  if retryAfter < 0 then retryAfter = 0 end
  return {0, retryAfter}
end
return {0, window}
`)

// Redis is a sliding-window limiter shared by every replica.
//
// 设计原因：
// - 判断和写入放在同一个 Lua 脚本里执行，多副本并发时不会超发
// - member 带自增序号，同一毫秒内的两次请求不会互相覆盖
type Redis struct {
	client redis.Scripter
	seq    atomic.Uint64
}

func NewRedis(client redis.Scripter) *Redis {
	return &Redis{client: client}
}

func (l *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := time.Now()
	// Members must be unique per call or ZADD overwrites; the clock alone
	// can repeat on coarse timers.
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatUint(l.seq.Add(1), 10)

	res, err := slidingWindow.Run(ctx, l.client, []string{key}, now.UnixMilli(), window.Milliseconds(), limit, member).Result()
	if err != nil {
		return false, 0, err
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("unexpected redis eval result: %T %v", res, res)
	}

	allowed, _ := arr[0].(int64)
	var retryAfterMs int64
	switch v := arr[1].(type) {
	case int64:
		retryAfterMs = v
	case string:
		retryAfterMs, _ = strconv.ParseInt(v, 10, 64)
	}
	return allowed == 1, time.Duration(retryAfterMs) * time.Millisecond, nil
}
