package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var december = Period{Year: 2012, Month: time.December}

func sampleEvents() []Event {
	return []Event{
		{Timestamp: time.Date(2012, 12, 14, 0, 0, 0, 0, time.UTC), Action: ActionRunFlow, User: "User123", FlowName: "Flow123"},
		{Timestamp: time.Date(2012, 12, 22, 0, 0, 0, 0, time.UTC), Action: ActionHuntCreated, User: "User456", URN: "aff4:/hunts/H:1"},
		{Timestamp: time.Date(2013, 1, 2, 0, 0, 0, 0, time.UTC), Action: ActionUserAdd, User: "admin"},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Append(ctx, sampleEvents()...))

	events, err := store.ReadShard(ctx, december)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, "User123", events[0].User)

	_, err = store.ReadShard(ctx, Period{Year: 2012, Month: time.June})
	assert.ErrorIs(t, err, ErrShardNotFound)

	assert.Equal(t, []Period{december, {Year: 2013, Month: time.January}}, store.Periods())

	store.FailShard(december, errors.New("disk on fire"))
	_, err = store.ReadShard(ctx, december)
	assert.EqualError(t, err, "disk on fire")

	assert.Equal(t, "memory", BackendName(store))
}

func TestMemoryStore_ReadShardReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Append(ctx, sampleEvents()...))

	events, err := store.ReadShard(ctx, december)
	require.NoError(t, err)
	events[0].User = "mutated"

	again, err := store.ReadShard(ctx, december)
	require.NoError(t, err)
	assert.Equal(t, "User123", again[0].User)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(FileStoreConfig{Root: dir})
	require.NoError(t, err)
	assert.Equal(t, "filesystem", store.Backend())

	require.NoError(t, store.Append(ctx, sampleEvents()...))
	assert.FileExists(t, filepath.Join(dir, "audit-2012-12.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "audit-2013-01.jsonl"))

	events, err := store.ReadShard(ctx, december)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, sampleEvents()[:2], events)

	// Appending keeps prior content
	extra := Event{Timestamp: time.Date(2012, 12, 30, 0, 0, 0, 0, time.UTC), Action: ActionRunFlow, User: "GRR", FlowName: "Interrogate"}
	require.NoError(t, store.Append(ctx, extra))
	events, err = store.ReadShard(ctx, december)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, extra, events[2])

	periods, err := store.Periods()
	require.NoError(t, err)
	assert.Equal(t, []Period{december, {Year: 2013, Month: time.January}}, periods)
}

func TestFileStore_MissingShard(t *testing.T) {
	store, err := NewFileStore(FileStoreConfig{Root: t.TempDir()})
	require.NoError(t, err)

	_, err = store.ReadShard(context.Background(), december)
	assert.ErrorIs(t, err, ErrShardNotFound)
}

func TestFileStore_CorruptShard(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(FileStoreConfig{Root: dir})
	require.NoError(t, err)

	content := `{"timestamp":"2012-12-01T00:00:00Z","action":"RUN_FLOW"}` + "\n\n{broken\n"
	require.NoError(t, os.WriteFile(store.ShardPath(december), []byte(content), 0644))

	_, err = store.ReadShard(context.Background(), december)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrShardNotFound)
	assert.Contains(t, err.Error(), "line 3")
}

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := NewS3StoreWithClient(client, "audit-bucket", "grr/audit")

	assert.Equal(t, "s3", store.Backend())
	assert.Equal(t, "grr/audit/audit-2012-12.jsonl", store.Key(december))

	require.NoError(t, store.Append(ctx, sampleEvents()...))
	assert.Len(t, client.objects, 2)

	events, err := store.ReadShard(ctx, december)
	require.NoError(t, err)
	assert.Equal(t, sampleEvents()[:2], events)

	require.NoError(t, store.Append(ctx, sampleEvents()[0]))
	events, err = store.ReadShard(ctx, december)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	_, err = store.ReadShard(ctx, Period{Year: 2011, Month: time.March})
	assert.ErrorIs(t, err, ErrShardNotFound)
}

func TestS3Store_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("get error", func(t *testing.T) {
		client := newFakeS3()
		client.getErr = errors.New("access denied")
		store := NewS3StoreWithClient(client, "b", "")

		_, err := store.ReadShard(ctx, december)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrShardNotFound)
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("put error", func(t *testing.T) {
		client := newFakeS3()
		client.putErr = errors.New("slow down")
		store := NewS3StoreWithClient(client, "b", "")

		err := store.Append(ctx, sampleEvents()[0])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upload audit shard 2012-12")
	})

	t.Run("corrupt object", func(t *testing.T) {
		client := newFakeS3()
		store := NewS3StoreWithClient(client, "b", "")
		client.objects[store.Key(december)] = []byte("{nope")

		_, err := store.ReadShard(ctx, december)
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "failed to decode audit shard 2012-12"))
	})
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3StoreConfig{Region: "us-east-1"})
	assert.EqualError(t, err, "s3 bucket is required")
}
