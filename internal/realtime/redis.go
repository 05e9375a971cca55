package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bibektako/borrow-lend-backend/internal/logging"
)

var ErrRedisNotReady = errors.New("redis is not ready")

const (
	// channelPrefix namespaces the pub/sub channels, keyed by recipient
	// user id.
	channelPrefix = "rt:"

	// presenceKeyPrefix namespaces the per-user connection sets in the
	// shared presence registry.
	presenceKeyPrefix = "presence:"
)

// RedisConfig configures the optional pub/sub fan-out used when the service
// runs more than one instance behind a load balancer.
type RedisConfig struct {
	Enabled        bool          `env:"REDIS_ENABLED" envDefault:"false"`
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
}

// ConnectRedis establishes the redis connection, retrying on startup the same
// way the mongo bootstrap does.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrRedisNotReady, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// Publisher fans events out over redis pub/sub instead of delivering to the
// local hub. Channels are keyed by recipient user id; each instance runs a
// bridge that delivers a message when its hub holds a connection for that
// user, so a dispatcher on one instance can reach a client connected to
// another.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) SendToUser(ctx context.Context, userID, event string, payload any) error {
	b, err := json.Marshal(Event{Name: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event, err)
	}
	if err := p.rdb.Publish(ctx, channelPrefix+userID, b).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event, err)
	}
	return nil
}

// RedisPresence is the instance-spanning presence registry: every hub mirrors
// its connections into a per-user set, so Online sees a user connected to any
// instance. Connection ids are uuids, which keeps members unique across
// instances.
type RedisPresence struct {
	rdb *redis.Client
}

func NewRedisPresence(rdb *redis.Client) *RedisPresence {
	return &RedisPresence{rdb: rdb}
}

func (p *RedisPresence) Add(ctx context.Context, userID, connID string) error {
	if err := p.rdb.SAdd(ctx, presenceKeyPrefix+userID, connID).Err(); err != nil {
		return fmt.Errorf("register presence for %s: %w", userID, err)
	}
	return nil
}

func (p *RedisPresence) Remove(ctx context.Context, userID, connID string) error {
	if err := p.rdb.SRem(ctx, presenceKeyPrefix+userID, connID).Err(); err != nil {
		return fmt.Errorf("remove presence for %s: %w", userID, err)
	}
	return nil
}

func (p *RedisPresence) Online(ctx context.Context, userID string) (bool, error) {
	n, err := p.rdb.SCard(ctx, presenceKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("presence lookup for %s: %w", userID, err)
	}
	return n > 0, nil
}

// RunBridge subscribes to the user event channels and delivers messages to
// users with a connection on the local hub. Messages for users connected
// elsewhere are ignored; their own instance's bridge delivers them. Blocks
// until the context is cancelled.
func RunBridge(ctx context.Context, rdb *redis.Client, hub *Hub, log *slog.Logger) error {
	sub := rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID := strings.TrimPrefix(msg.Channel, channelPrefix)
			if _, held := hub.Lookup(userID); !held {
				continue
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("dropping malformed realtime event", logging.Error(err))
				continue
			}

			// The connection can go away between the lookup and the send.
			if err := hub.SendToUser(ctx, userID, ev.Name, ev.Payload); err != nil && !errors.Is(err, ErrUserNotConnected) {
				log.Warn("bridge delivery failed",
					logging.UserID(userID),
					logging.Error(err),
				)
			}
		}
	}
}
