package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"cuisine-adapter/internal/core/identity"
	"cuisine-adapter/internal/infrastructure/config"
	"cuisine-adapter/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Service 菜系身分檔案的 Redis 快取服務。
// 停用時所有操作都是 no-op，不會影響主流程。
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建緩存服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	if !cfg.Enabled {
		return &Service{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// GetProfile 讀取快取的身分檔案，miss 或停用時回傳 (nil, nil)
func (s *Service) GetProfile(ctx context.Context, cuisineName string) (*identity.Profile, error) {
	if !s.config.Enabled || s.client == nil {
		return nil, nil
	}

	key := s.profileKey(cuisineName)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			common.LogCacheMiss("redis", key)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var profile identity.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	common.LogCacheHit("redis", key)
	return &profile, nil
}

// SetProfile 寫入身分檔案快取，停用時 no-op
func (s *Service) SetProfile(ctx context.Context, cuisineName string, profile *identity.Profile) error {
	if !s.config.Enabled || s.client == nil {
		return nil
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	key := s.profileKey(cuisineName)
	if err := s.client.Set(ctx, key, data, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// InvalidateAll 清掉所有身分檔案快取，重算後呼叫
func (s *Service) InvalidateAll(ctx context.Context) {
	if !s.config.Enabled || s.client == nil {
		return
	}

	iter := s.client.Scan(ctx, 0, "identity:profile:*", 0).Iterator()
	removed := 0
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err == nil {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		common.LogWarn("快取失效掃描失敗", zap.Error(err))
		return
	}
	common.LogDebug("身分檔案快取已清空", zap.Int("removed", removed))
}

// Close 關閉 Redis 連線
func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Service) profileKey(cuisineName string) string {
	return fmt.Sprintf("identity:profile:%s", common.NormalizeName(cuisineName))
}
