package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeklybloom/internal/model"
)

// seedFamily creates a weekly family of four instances starting 2024-01-01
// and returns the stored instances in date order.
func seedFamily(t *testing.T, repo Repo) []model.Task {
	t.Helper()

	tpl, err := repo.Create(weeklyTemplate("2024-01-01", "2024-01-22"))
	require.NoError(t, err)

	instances := Expand(tpl, 0)
	require.Len(t, instances, 4)

	stored, err := repo.ReplaceFamily(tpl.ID, instances)
	require.NoError(t, err)
	require.Len(t, stored, 4)
	return stored
}

func TestMemoryRepo_CreateGetList(t *testing.T) {
	repo := NewMemoryRepo()

	created, err := repo.Create(model.Task{Title: "water plants", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.OriginalTaskID)

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	_, err = repo.Get("task_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.List(ListFilter{Date: "2024-01-05"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = repo.List(ListFilter{Date: "2024-01-06"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryRepo_ListStatusFilter(t *testing.T) {
	repo := NewMemoryRepo()

	a, err := repo.Create(model.Task{Title: "a", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)
	_, err = repo.Create(model.Task{Title: "b", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)

	done := true
	_, err = repo.Update(a.ID, Patch{Completed: &done})
	require.NoError(t, err)

	pending, err := repo.List(ListFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].Title)

	doneList, err := repo.List(ListFilter{Status: "done"})
	require.NoError(t, err)
	require.Len(t, doneList, 1)
	assert.Equal(t, "a", doneList[0].Title)
}

func TestMemoryRepo_ReplaceFamilySupersedesTemplate(t *testing.T) {
	repo := NewMemoryRepo()
	stored := seedFamily(t, repo)

	all, err := repo.List(ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4, "template must not survive expansion")

	for _, inst := range stored {
		assert.NotEmpty(t, inst.OriginalTaskID)
	}
	assert.Equal(t, "2024-01-01", stored[0].StartDate())
}

func TestMemoryRepo_DeleteScopedThis(t *testing.T) {
	repo := NewMemoryRepo()
	stored := seedFamily(t, repo)

	removed, err := repo.DeleteScoped(stored[1].ID, ScopeThis, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, stored[1].ID, removed[0].ID)

	all, err := repo.List(ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryRepo_DeleteScopedFuture(t *testing.T) {
	repo := NewMemoryRepo()
	stored := seedFamily(t, repo)

	// Standing on day 14 and deleting "future" from the day-15 instance
	// keeps only days 1 and 8.
	removed, err := repo.DeleteScoped(stored[2].ID, ScopeFuture, "2024-01-14")
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	all, err := repo.List(ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-01-01", all[0].StartDate())
	assert.Equal(t, "2024-01-08", all[1].StartDate())
}

func TestMemoryRepo_DeleteScopedAll(t *testing.T) {
	repo := NewMemoryRepo()
	stored := seedFamily(t, repo)

	removed, err := repo.DeleteScoped(stored[3].ID, ScopeAll, "2024-01-22")
	require.NoError(t, err)
	assert.Len(t, removed, 4)

	all, err := repo.List(ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryRepo_UpdateScopedFutureLeavesPastAlone(t *testing.T) {
	repo := NewMemoryRepo()
	stored := seedFamily(t, repo)

	title := "renamed"
	updated, err := repo.UpdateScoped(stored[2].ID, Patch{Title: &title}, ScopeFuture, "2024-01-15")
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	all, err := repo.List(ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "water plants", all[0].Title)
	assert.Equal(t, "water plants", all[1].Title)
	assert.Equal(t, "renamed", all[2].Title)
	assert.Equal(t, "renamed", all[3].Title)
}

func TestMemoryRepo_UpdateScopedOnNonRecurringIsJustThis(t *testing.T) {
	repo := NewMemoryRepo()

	a, err := repo.Create(model.Task{Title: "a", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)
	_, err = repo.Create(model.Task{Title: "b", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)

	title := "renamed"
	updated, err := repo.UpdateScoped(a.ID, Patch{Title: &title}, ScopeAll, "2024-01-05")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "renamed", updated[0].Title)
}

func TestMemoryRepo_PatchClearsUntil(t *testing.T) {
	repo := NewMemoryRepo()

	created, err := repo.Create(weeklyTemplate("2024-01-01", "2024-01-22"))
	require.NoError(t, err)
	require.NotNil(t, created.Until)

	empty := ""
	updated, err := repo.Update(created.ID, Patch{Until: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.Until)
}

func TestMemoryRepo_OrderStaysUniqueAfterDelete(t *testing.T) {
	repo := NewMemoryRepo()

	_, err := repo.Create(model.Task{Title: "a", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)
	b, err := repo.Create(model.Task{Title: "b", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)
	c, err := repo.Create(model.Task{Title: "c", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)
	require.Equal(t, 2, c.Order)

	_, err = repo.DeleteScoped(b.ID, ScopeThis, "2024-01-05")
	require.NoError(t, err)

	d, err := repo.Create(model.Task{Title: "d", Dates: []string{"2024-01-05"}})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Order, "a freed slot is not recycled")

	all, err := repo.List(ListFilter{Date: "2024-01-05"})
	require.NoError(t, err)
	seen := map[int]bool{}
	for _, tk := range all {
		assert.False(t, seen[tk.Order], "order %d assigned twice", tk.Order)
		seen[tk.Order] = true
	}
}

func TestMemoryRepo_ReorderDensifies(t *testing.T) {
	repo := NewMemoryRepo()

	a, _ := repo.Create(model.Task{Title: "a", Dates: []string{"2024-01-05"}})
	b, _ := repo.Create(model.Task{Title: "b", Dates: []string{"2024-01-05"}})
	c, _ := repo.Create(model.Task{Title: "c", Dates: []string{"2024-01-05"}})

	ranked, err := repo.Reorder("2024-01-05", []model.TaskID{c.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, c.ID, ranked[0].ID)
	assert.Equal(t, a.ID, ranked[1].ID)
	assert.Equal(t, b.ID, ranked[2].ID, "unlisted tasks follow in prior order")
	for i, tk := range ranked {
		assert.Equal(t, i, tk.Order)
	}
}
