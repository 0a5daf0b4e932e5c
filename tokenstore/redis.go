package tokenstore

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/digitrack/digitrack-go/models"
	"github.com/digitrack/digitrack-go/utils"
	"github.com/digitrack/digitrack-go/utils/logger"
)

// RedisStore keeps the session in a redis hash. Used on shared kiosk
// devices where several client processes share one session. All fields are
// written in a single HSET so readers never observe a partial record.
type RedisStore struct {
	client *redis.Client
	key    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Key of the session hash. Defaults to "digitrack:session".
	Key string
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	key := cfg.Key
	if key == "" {
		key = "digitrack:session"
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Save(ctx context.Context, tokens models.Tokens, user models.User) error {
	userData, err := utils.StructToBytes(user)
	if err != nil {
		logger.LogError("failed to encode user for session hash", zap.Error(err))
		return err
	}

	err = s.client.HSet(ctx, s.key,
		KeyIDToken, tokens.IDToken,
		KeyAccessToken, tokens.AccessToken,
		KeyRefreshToken, tokens.RefreshToken,
		KeyUser, string(userData),
	).Err()
	if err != nil {
		logger.LogError("failed to write session hash", zap.Error(err))
	}
	return err
}

func (s *RedisStore) Load(ctx context.Context) (models.Tokens, models.User, bool) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		logger.LogWarn("failed to read session hash", zap.Error(err))
		return models.Tokens{}, models.User{}, false
	}

	tokens := models.Tokens{
		IDToken:      fields[KeyIDToken],
		AccessToken:  fields[KeyAccessToken],
		RefreshToken: fields[KeyRefreshToken],
	}
	if !tokens.Complete() {
		return models.Tokens{}, models.User{}, false
	}

	var user models.User
	if err := utils.BytesToStruct([]byte(fields[KeyUser]), &user); err != nil {
		logger.LogWarn("discarding unreadable session hash", zap.Error(err))
		return models.Tokens{}, models.User{}, false
	}
	return tokens, user, true
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		logger.LogError("failed to delete session hash", zap.Error(err))
		return err
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
