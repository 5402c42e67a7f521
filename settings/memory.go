package settings

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Memory is an in-process Store.
type Memory struct {
	mu    sync.Mutex
	users map[string]UserSettings
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]UserSettings)}
}

func (m *Memory) load(userID string) UserSettings {
	us, ok := m.users[userID]
	if !ok {
		return Defaults(userID)
	}
	us.Fonts = append([]string{}, us.Fonts...)
	us.NoticesSeen = maps.Clone(us.NoticesSeen)
	return us
}

func (m *Memory) Get(_ context.Context, userID string) (UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(userID), nil
}

func (m *Memory) Update(_ context.Context, userID, setting string, value any) (UserSettings, error) {
	v, err := validate(setting, value)
	if err != nil {
		return UserSettings{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	us := m.load(userID)
	apply(&us, setting, v)
	us.UpdatedAt = time.Now().UTC()
	m.users[userID] = us
	return m.load(userID), nil
}

func (m *Memory) AddFont(_ context.Context, userID, font string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	us := m.load(userID)
	fonts, added := addFont(us.Fonts, font)
	if !added {
		return nil
	}
	us.Fonts = fonts
	m.users[userID] = us
	return nil
}

func (m *Memory) MarkSeen(_ context.Context, userID, notice string, at time.Time) error {
	if err := checkNotice(notice); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	us := m.load(userID)
	if us.NoticesSeen == nil {
		us.NoticesSeen = map[string]time.Time{}
	}
	us.NoticesSeen[notice] = at.UTC()
	m.users[userID] = us
	return nil
}
