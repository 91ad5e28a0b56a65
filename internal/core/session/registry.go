// Package session 管理多個食譜集合客戶端，每個會話對應一個前端畫面
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"recipe-manager/internal/core/collection"
	"recipe-manager/internal/core/recipeapi"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound 會話不存在或已過期
	ErrSessionNotFound = common.NewError(common.ErrCodeNotFound, common.MsgSessionNotFound, http.StatusNotFound, nil)
	// ErrTooManySessions 會話數量已達上限
	ErrTooManySessions = common.NewError(common.ErrCodeServiceUnavailable, common.MsgTooManySessions, http.StatusServiceUnavailable, nil)
)

// Session 單一會話
type Session struct {
	ID        string
	Client    *collection.Client
	CreatedAt time.Time

	lastSeen time.Time
}

// Status 會話統計
type Status struct {
	Active      int   `json:"active"`
	MaxSessions int   `json:"max_sessions"`
	Created     int64 `json:"created"`
	Expired     int64 `json:"expired"`
}

// Registry 會話註冊表
type Registry struct {
	api recipeapi.Repository
	cfg config.SessionConfig
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	created  int64
	expired  int64
}

// NewRegistry 創建會話註冊表
func NewRegistry(cfg config.SessionConfig, api recipeapi.Repository) *Registry {
	return newRegistry(cfg, api, time.Now)
}

func newRegistry(cfg config.SessionConfig, api recipeapi.Repository, now func() time.Time) *Registry {
	return &Registry{
		api:      api,
		cfg:      cfg,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Create 建立會話並載入集合。載入失敗時會話仍會建立，錯誤留在畫面狀態中
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	now := r.now()
	s := &Session{
		ID:        common.GenerateUUID(),
		Client:    collection.New(r.api),
		CreatedAt: now,
		lastSeen:  now,
	}

	r.mu.Lock()
	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		r.mu.Unlock()
		common.LogWarn("Session limit reached", zap.Int("max_sessions", r.cfg.MaxSessions))
		return nil, ErrTooManySessions
	}
	r.sessions[s.ID] = s
	r.created++
	active := len(r.sessions)
	r.mu.Unlock()

	common.LogInfo("Session created",
		zap.String("session_id", s.ID),
		zap.Int("active", active),
	)

	if err := s.Client.Fetch(ctx); err != nil {
		common.LogWarn("Initial fetch failed", zap.String("session_id", s.ID), zap.Error(err))
	}
	return s, nil
}

// Get 取得會話並更新最後使用時間
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s, nil
}

// Close 移除會話
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	common.LogInfo("Session closed", zap.String("session_id", id))
	return nil
}

// Len 目前的會話數量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// GetStatus 取得會話統計
func (r *Registry) GetStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Active:      len(r.sessions),
		MaxSessions: r.cfg.MaxSessions,
		Created:     r.created,
		Expired:     r.expired,
	}
}

// Sweep 移除閒置超過 idle_ttl 的會話，回傳移除數量
func (r *Registry) Sweep(now time.Time) int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.cfg.IdleTTL {
			delete(r.sessions, id)
			removed++
		}
	}
	r.expired += int64(removed)

	if removed > 0 {
		common.LogDebug("Expired idle sessions",
			zap.Int("removed", removed),
			zap.Int("active", len(r.sessions)),
		)
	}
	return removed
}

// Run 依 sweep_interval 定期清理，直到 ctx 結束
func (r *Registry) Run(ctx context.Context) {
	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}
