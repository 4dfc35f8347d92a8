package todo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zhouzirui/memorable/backend/internal/model/todo"
)

var (
	ErrClientIDRequired = errors.New("client id is required")
	ErrTodoNotFound     = errors.New("todo not found")
)

// Store is the contract the HTTP layer depends on. Alternative layouts
// (sharded maps, eviction) can be swapped in behind it.
type Store interface {
	Create(ctx context.Context, clientID string, req todo.CreateRequest) (todo.Todo, error)
	List(ctx context.Context, clientID string) ([]todo.Todo, error)
	Get(ctx context.Context, clientID string, id uint64) (todo.Todo, error)
	Update(ctx context.Context, clientID string, id uint64, req todo.UpdateRequest) (todo.Todo, error)
	Delete(ctx context.Context, clientID string, id uint64) error
}

// Observer receives committed mutations. Observe is called with the store
// lock held and must not block.
type Observer interface {
	Observe(event todo.Event)
}

type partition struct {
	items  []todo.Todo
	nextID uint64
}

// Service keeps every client's todos in memory behind a single mutex.
type Service struct {
	mu         sync.Mutex
	partitions map[string]*partition
	observers  []Observer
	now        func() time.Time
}

var _ Store = (*Service)(nil)

// NewService returns an empty store. Observers are notified of every
// successful create, update and delete.
func NewService(observers ...Observer) *Service {
	return &Service{
		partitions: make(map[string]*partition),
		observers:  append([]Observer(nil), observers...),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create appends a new todo to the client's collection and assigns it the
// next id from the client's counter.
func (s *Service) Create(_ context.Context, clientID string, req todo.CreateRequest) (todo.Todo, error) {
	if clientID == "" {
		return todo.Todo{}, ErrClientIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partitionLocked(clientID)
	p.nextID++
	item := todo.Todo{
		ID:     p.nextID,
		Title:  req.Title,
		Desc:   req.Desc,
		IsDone: req.IsDone,
	}
	p.items = append(p.items, item)

	s.notifyLocked(todo.EventCreated, clientID, item)
	return item, nil
}

// List returns the client's todos in insertion order. Unknown clients get
// an empty, non-nil slice.
func (s *Service) List(_ context.Context, clientID string) ([]todo.Todo, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partitionLocked(clientID)
	copied := make([]todo.Todo, len(p.items))
	copy(copied, p.items)
	return copied, nil
}

// Get looks up a todo by id within the client's collection.
func (s *Service) Get(_ context.Context, clientID string, id uint64) (todo.Todo, error) {
	if clientID == "" {
		return todo.Todo{}, ErrClientIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partitionLocked(clientID)
	idx := p.indexOf(id)
	if idx < 0 {
		return todo.Todo{}, ErrTodoNotFound
	}
	return p.items[idx], nil
}

// Update merges the present fields of req into the todo and returns the
// merged value.
func (s *Service) Update(_ context.Context, clientID string, id uint64, req todo.UpdateRequest) (todo.Todo, error) {
	if clientID == "" {
		return todo.Todo{}, ErrClientIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partitionLocked(clientID)
	idx := p.indexOf(id)
	if idx < 0 {
		return todo.Todo{}, ErrTodoNotFound
	}

	req.Apply(&p.items[idx])
	item := p.items[idx]

	s.notifyLocked(todo.EventUpdated, clientID, item)
	return item, nil
}

// Delete removes the todo, keeping the order and ids of the rest.
func (s *Service) Delete(_ context.Context, clientID string, id uint64) error {
	if clientID == "" {
		return ErrClientIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partitionLocked(clientID)
	idx := p.indexOf(id)
	if idx < 0 {
		return ErrTodoNotFound
	}

	removed := p.items[idx]
	p.items = append(p.items[:idx], p.items[idx+1:]...)

	s.notifyLocked(todo.EventDeleted, clientID, removed)
	return nil
}

// ClientCount reports how many client partitions have been materialized.
func (s *Service) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.partitions)
}

// Len reports how many todos clientID currently holds. Unlike the Store
// operations it does not materialize a partition for unknown clients.
func (s *Service) Len(clientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.partitions[clientID]; ok {
		return len(p.items)
	}
	return 0
}

func (s *Service) partitionLocked(clientID string) *partition {
	p, ok := s.partitions[clientID]
	if !ok {
		p = &partition{items: make([]todo.Todo, 0, 8)}
		s.partitions[clientID] = p
	}
	return p
}

func (s *Service) notifyLocked(kind todo.EventType, clientID string, item todo.Todo) {
	if len(s.observers) == 0 {
		return
	}
	event := todo.Event{
		Type:      kind,
		ClientID:  clientID,
		Todo:      item,
		Timestamp: s.now(),
	}
	for _, o := range s.observers {
		o.Observe(event)
	}
}

func (p *partition) indexOf(id uint64) int {
	for i, item := range p.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
