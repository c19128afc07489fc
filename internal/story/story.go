// Package story holds ephemeral 24-hour status posts. Stories live in Redis
// with a TTL doing the expiry; nothing here survives past the window and the
// rest of the system never depends on story state.
package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"courier/server/internal/models"
	"courier/server/internal/profile"
)

// TTL is the story lifetime.
const TTL = 24 * time.Hour

const indexKey = "stories:index"

// Service posts and lists stories.
type Service struct {
	rdb      *redis.Client
	profiles profile.Service
	log      *zap.SugaredLogger
}

func NewService(rdb *redis.Client, profiles profile.Service, log *zap.SugaredLogger) *Service {
	return &Service{rdb: rdb, profiles: profiles, log: log}
}

func storyKey(id string) string { return "story:" + id }

// Post stores a new story with a 24h TTL and indexes it by post time.
func (s *Service) Post(ctx context.Context, username, content string, kind models.Kind) (models.Story, error) {
	if username == "" || content == "" {
		return models.Story{}, errors.New("story: username and content are required")
	}
	if kind == "" {
		kind = models.KindText
	}

	st := models.Story{
		ID:       uuid.NewString(),
		Username: username,
		Content:  content,
		Kind:     kind,
		PostedAt: time.Now(),
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return models.Story{}, fmt.Errorf("post story: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, storyKey(st.ID), payload, TTL)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(st.PostedAt.Unix()), Member: st.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return models.Story{}, fmt.Errorf("post story: %w", err)
	}
	return st, nil
}

// List returns every story from the last 24 hours, newest first, with the
// poster's current avatar attached. Index entries whose story key already
// expired are pruned as a side effect.
func (s *Service) List(ctx context.Context) ([]models.Story, error) {
	cutoff := time.Now().Add(-TTL).Unix()
	if err := s.rdb.ZRemRangeByScore(ctx, indexKey, "-inf", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	ids, err := s.rdb.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	if len(ids) == 0 {
		return []models.Story{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = storyKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	stories := []models.Story{}
	avatars := map[string]string{}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// TTL beat the index prune; drop the dangling entry.
			s.rdb.ZRem(ctx, indexKey, ids[i])
			continue
		}
		var st models.Story
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			s.log.Warnw("corrupt story payload", "id", ids[i], "err", err)
			continue
		}
		avatar, cached := avatars[st.Username]
		if !cached {
			if p, err := s.profiles.Get(ctx, st.Username); err == nil {
				avatar = p.Avatar
			}
			avatars[st.Username] = avatar
		}
		st.Avatar = avatar
		stories = append(stories, st)
	}
	return stories, nil
}
