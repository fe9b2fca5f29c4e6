package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"bankcards/models"
)

// MemoryUserRepository реализует UserRepository в памяти для тестов
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uint]*models.User
	nextID uint
}

// NewMemoryUserRepository создает новый экземпляр MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[uint]*models.User),
		nextID: 1,
	}
}

func (r *MemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: пользователь уже существует", ErrInvalidField)
		}
	}

	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *MemoryUserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(strings.TrimSpace(user.Email), strings.TrimSpace(email)) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) ExistsByUsername(username string) (bool, error) {
	_, err := r.GetByUsername(username)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *MemoryUserRepository) ExistsByEmail(email string) (bool, error) {
	_, err := r.GetByEmail(email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *MemoryUserRepository) ListAll() ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, *r.users[id])
	}
	return users, nil
}

func (r *MemoryUserRepository) ListPage(offset, limit int, sortField string) ([]models.User, error) {
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}

	start := offset * limit
	if start >= len(all) {
		return []models.User{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}
