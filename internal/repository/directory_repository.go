package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const directoryCacheTTL = 5 * time.Minute

// DirectoryRepository reads directory records through an optional Redis cache.
type DirectoryRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewDirectoryRepository(db *gorm.DB, rdb *redis.Client) *DirectoryRepository {
	return &DirectoryRepository{DB: db, Redis: rdb}
}

func directoryKey(kind, id string) string {
	return fmt.Sprintf("directory:%s:%s", kind, id)
}

// readThrough serves key from Redis, or loads it from the database and caches it.
// Cache failures only cost a database round trip.
func readThrough[T any](ctx context.Context, rdb *redis.Client, key string, load func() (*T, error)) (*T, error) {
	if rdb != nil {
		if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
			var v T
			if json.Unmarshal(raw, &v) == nil {
				return &v, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	if rdb != nil {
		if raw, err := json.Marshal(v); err == nil {
			rdb.Set(ctx, key, raw, directoryCacheTTL)
		}
	}
	return v, nil
}

func (r *DirectoryRepository) invalidate(ctx context.Context, key string) {
	if r.Redis != nil {
		r.Redis.Del(ctx, key)
	}
}

func (r *DirectoryRepository) FindGroup(ctx context.Context, id string) (*model.DirectoryGroup, error) {
	return readThrough(ctx, r.Redis, directoryKey("group", id), func() (*model.DirectoryGroup, error) {
		var g model.DirectoryGroup
		if err := r.DB.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
			return nil, notFound(err, "group", id)
		}
		return &g, nil
	})
}

func (r *DirectoryRepository) FindCompany(ctx context.Context, id string) (*model.DirectoryCompany, error) {
	return readThrough(ctx, r.Redis, directoryKey("company", id), func() (*model.DirectoryCompany, error) {
		var c model.DirectoryCompany
		if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
			return nil, notFound(err, "company", id)
		}
		return &c, nil
	})
}

func (r *DirectoryRepository) FindUser(ctx context.Context, id string) (*model.DirectoryUser, error) {
	return readThrough(ctx, r.Redis, directoryKey("user", id), func() (*model.DirectoryUser, error) {
		var u model.DirectoryUser
		if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
			return nil, notFound(err, "user", id)
		}
		return &u, nil
	})
}

func (r *DirectoryRepository) upsert(ctx context.Context, value interface{}) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

func (r *DirectoryRepository) SaveGroup(ctx context.Context, g *model.DirectoryGroup) error {
	if err := r.upsert(ctx, g); err != nil {
		return err
	}
	r.invalidate(ctx, directoryKey("group", g.ID))
	return nil
}

func (r *DirectoryRepository) SaveCompany(ctx context.Context, c *model.DirectoryCompany) error {
	if err := r.upsert(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx, directoryKey("company", c.ID))
	return nil
}

func (r *DirectoryRepository) SaveUser(ctx context.Context, u *model.DirectoryUser) error {
	if err := r.upsert(ctx, u); err != nil {
		return err
	}
	r.invalidate(ctx, directoryKey("user", u.ID))
	return nil
}
