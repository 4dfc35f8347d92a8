package todo_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/memorable/backend/internal/model/todo"
	todo "github.com/zhouzirui/memorable/backend/internal/service/todo"
)

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

type recordingObserver struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingObserver) Observe(event model.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func TestServiceScenario(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	first, err := svc.Create(ctx, "c1", model.CreateRequest{Title: "Buy milk", Desc: "2%"})
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: 1, Title: "Buy milk", Desc: "2%"}, first)

	second, err := svc.Create(ctx, "c1", model.CreateRequest{Title: "Clean"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.ID)

	require.NoError(t, svc.Delete(ctx, "c1", 1))

	_, err = svc.Get(ctx, "c1", 1)
	require.ErrorIs(t, err, todo.ErrTodoNotFound)

	items, err := svc.List(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []model.Todo{second}, items)
}

func TestServiceIsolatesClients(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1", model.CreateRequest{Title: "mine"})
	require.NoError(t, err)

	items, err := svc.List(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.Get(ctx, "10.0.0.2", created.ID)
	assert.ErrorIs(t, err, todo.ErrTodoNotFound)

	_, err = svc.Update(ctx, "10.0.0.2", created.ID, model.UpdateRequest{Title: strPtr("stolen")})
	assert.ErrorIs(t, err, todo.ErrTodoNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "10.0.0.2", created.ID), todo.ErrTodoNotFound)

	got, err := svc.Get(ctx, "10.0.0.1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
}

func TestServiceListUnknownClientMaterializesPartition(t *testing.T) {
	svc := todo.NewService()

	items, err := svc.List(context.Background(), "never-seen-client")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 1, svc.ClientCount())
}

func TestServiceRejectsEmptyClientID(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "", model.CreateRequest{})
	assert.ErrorIs(t, err, todo.ErrClientIDRequired)
	_, err = svc.List(ctx, "")
	assert.ErrorIs(t, err, todo.ErrClientIDRequired)
	assert.Equal(t, 0, svc.ClientCount())
}

func TestServiceStoresFieldsVerbatim(t *testing.T) {
	svc := todo.NewService()

	created, err := svc.Create(context.Background(), "c", model.CreateRequest{Title: "  padded ", Desc: "", IsDone: true})
	require.NoError(t, err)
	assert.Equal(t, "  padded ", created.Title)
	assert.Empty(t, created.Desc)
	assert.True(t, created.IsDone)
}

func TestServiceUpdateWithNoFieldsIsNoop(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "c", model.CreateRequest{Title: "a", Desc: "b", IsDone: true})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "c", created.ID, model.UpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, created, updated)
}

func TestServiceUpdateMergesPresentFields(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "c", model.CreateRequest{Title: "a", Desc: "b"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "c", created.ID, model.UpdateRequest{Title: strPtr("X")})
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: created.ID, Title: "X", Desc: "b"}, updated)

	updated, err = svc.Update(ctx, "c", created.ID, model.UpdateRequest{Desc: strPtr(""), IsDone: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: created.ID, Title: "X", Desc: "", IsDone: true}, updated)

	got, err := svc.Get(ctx, "c", created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestServiceUpdateMissing(t *testing.T) {
	svc := todo.NewService()

	_, err := svc.Update(context.Background(), "c", 7, model.UpdateRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, todo.ErrTodoNotFound)
}

func TestServiceDeleteKeepsOthersIntact(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	var created []model.Todo
	for _, title := range []string{"one", "two", "three"} {
		item, err := svc.Create(ctx, "c", model.CreateRequest{Title: title, Desc: title + "-desc"})
		require.NoError(t, err)
		created = append(created, item)
	}

	require.NoError(t, svc.Delete(ctx, "c", 2))
	assert.ErrorIs(t, svc.Delete(ctx, "c", 2), todo.ErrTodoNotFound)

	items, err := svc.List(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []model.Todo{created[0], created[2]}, items)
}

func TestServiceNeverReusesIDs(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, "c", model.CreateRequest{Title: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Delete(ctx, "c", 2))

	next, err := svc.Create(ctx, "c", model.CreateRequest{Title: "y"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next.ID)

	require.NoError(t, svc.Delete(ctx, "c", 1))
	require.NoError(t, svc.Delete(ctx, "c", 3))

	next, err = svc.Create(ctx, "c", model.CreateRequest{Title: "z"})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), next.ID)
}

func TestServiceCountersArePerClient(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	a, err := svc.Create(ctx, "a", model.CreateRequest{})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "b", model.CreateRequest{})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), a.ID)
	assert.Equal(t, uint64(1), b.ID)
}

func TestServiceListReturnsCopy(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "c", model.CreateRequest{Title: "original"})
	require.NoError(t, err)

	items, err := svc.List(ctx, "c")
	require.NoError(t, err)
	items[0].Title = "mutated"

	got, err := svc.Get(ctx, "c", 1)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}

func TestServiceConcurrentCreatesSameClient(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	const workers = 64
	ids := make([]uint64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item, err := svc.Create(ctx, "shared", model.CreateRequest{Title: "x"})
			if err != nil {
				t.Errorf("Create err: %v", err)
				return
			}
			ids[i] = item.ID
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		require.Equal(t, uint64(i+1), id)
	}

	items, err := svc.List(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, items, workers)
}

func TestServiceConcurrentMixedOperations(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()
	clients := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for _, clientID := range clients {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(clientID string) {
				defer wg.Done()
				item, err := svc.Create(ctx, clientID, model.CreateRequest{Title: clientID})
				if err != nil {
					t.Errorf("Create err: %v", err)
					return
				}
				if _, err := svc.Update(ctx, clientID, item.ID, model.UpdateRequest{IsDone: boolPtr(true)}); err != nil {
					t.Errorf("Update err: %v", err)
				}
				if _, err := svc.List(ctx, clientID); err != nil {
					t.Errorf("List err: %v", err)
				}
				if item.ID%2 == 0 {
					if err := svc.Delete(ctx, clientID, item.ID); err != nil {
						t.Errorf("Delete err: %v", err)
					}
				}
			}(clientID)
		}
	}
	wg.Wait()

	for _, clientID := range clients {
		items, err := svc.List(ctx, clientID)
		require.NoError(t, err)
		assert.Len(t, items, 4)
		for _, item := range items {
			assert.Equal(t, clientID, item.Title)
			assert.True(t, item.IsDone)
			assert.Equal(t, uint64(1), item.ID%2)
		}
	}
}

func TestServiceNotifiesObservers(t *testing.T) {
	rec := &recordingObserver{}
	svc := todo.NewService(rec)
	ctx := context.Background()

	created, err := svc.Create(ctx, "c", model.CreateRequest{Title: "a"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "c", created.ID, model.UpdateRequest{Title: strPtr("b")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "c", created.ID))

	// failed mutations and reads are not reported
	_, _ = svc.Update(ctx, "c", 99, model.UpdateRequest{})
	_ = svc.Delete(ctx, "c", 99)
	_, _ = svc.List(ctx, "c")

	require.Len(t, rec.events, 3)
	assert.Equal(t, model.EventCreated, rec.events[0].Type)
	assert.Equal(t, model.EventUpdated, rec.events[1].Type)
	assert.Equal(t, "b", rec.events[1].Todo.Title)
	assert.Equal(t, model.EventDeleted, rec.events[2].Type)
	for _, ev := range rec.events {
		assert.Equal(t, "c", ev.ClientID)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestServiceLen(t *testing.T) {
	svc := todo.NewService()
	ctx := context.Background()

	assert.Equal(t, 0, svc.Len("c"))
	assert.Equal(t, 0, svc.ClientCount())

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "c", model.CreateRequest{Title: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Delete(ctx, "c", 2))

	assert.Equal(t, 2, svc.Len("c"))
	assert.Equal(t, 0, svc.Len("other"))
	assert.Equal(t, 1, svc.ClientCount())
}
