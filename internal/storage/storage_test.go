package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/breadbot/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "bread_test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestStorage_EmptyList(t *testing.T) {
	s := newTestStorage(t)

	posts, err := s.ListAllDescending(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestStorage_AppendAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	post := models.NewPost("1", "https://t.me/c/1/1", day(10))
	require.NoError(t, s.Append(ctx, post))

	posts, err := s.ListAllDescending(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post, posts[0])
}

func TestStorage_DuplicateID(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, models.NewPost("1", "https://t.me/c/1/1", day(10))))

	err := s.Append(ctx, models.NewPost("1", "https://t.me/c/1/other", day(11)))
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.True(t, errors.Is(err, ErrDuplicatePost))

	posts, err := s.ListAllDescending(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://t.me/c/1/1", posts[0].MessageURL)
}

func TestStorage_InvalidPost(t *testing.T) {
	s := newTestStorage(t)

	err := s.Append(context.Background(), models.Post{ID: "1"})
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "append", serr.Op)
}

func TestStorage_ListOrdersNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, d := range []int{3, 1, 5, 2, 4} {
		require.NoError(t, s.Append(ctx, models.NewPost(fmt.Sprint(d), fmt.Sprintf("https://t.me/c/1/%d", d), day(d))))
	}

	posts, err := s.ListAllDescending(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 5)
	for i, want := range []string{"5", "4", "3", "2", "1"} {
		assert.Equal(t, want, posts[i].ID)
	}
}

func TestStorage_ListOrdersMixedDateFormats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Rows as an older writer would have stored them: no fraction, mixed offsets.
	rows := []models.Post{
		{ID: "a", MessageURL: "u", Date: "2024-01-10T00:00:00Z"},
		{ID: "b", MessageURL: "u", Date: "2024-01-10T00:00:00.5Z"},
		{ID: "c", MessageURL: "u", Date: "2024-01-10T03:00:00+05:00"},
	}
	for _, p := range rows {
		require.NoError(t, s.Append(ctx, p))
	}

	posts, err := s.ListAllDescending(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{posts[0].ID, posts[1].ID, posts[2].ID})
}

func TestStorage_Count(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Append(ctx, models.NewPost("1", "u", day(1))))
	require.NoError(t, s.Append(ctx, models.NewPost("2", "u", day(2))))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStorage_ConcurrentAppend(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Append(ctx, models.NewPost(fmt.Sprint(i), "u", day(1).Add(time.Duration(i)*time.Hour)))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bread.db")
	ctx := context.Background()

	s, err := New(ctx, path, time.Second)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, models.NewPost("1", "u", day(1))))
	require.NoError(t, s.Close())

	s, err = New(ctx, path, time.Second)
	require.NoError(t, err)
	defer s.Close()

	posts, err := s.ListAllDescending(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestStorage_EmptyPath(t *testing.T) {
	_, err := New(context.Background(), "", time.Second)
	var serr *StorageError
	assert.ErrorAs(t, err, &serr)
}
