// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWriteRead(t *testing.T) {
	store := NewStore(t.TempDir())

	in := Snapshot{
		Status:      StatusConverting,
		Progress:    42,
		Message:     "Encoding in progress...",
		Duration:    120,
		CurrentTime: 50,
		TimeString:  "00:00:50 / 00:02:00",
		Frame:       "1250",
		Speed:       "1.5x",
		ETA:         "46s",
	}
	require.NoError(t, store.Write("movie", in))

	out, err := store.Read("movie")
	require.NoError(t, err)

	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, in.Progress, out.Progress)
	assert.Equal(t, in.Duration, out.Duration)
	assert.Equal(t, in.TimeString, out.TimeString)
	assert.Equal(t, in.Speed, out.Speed)
	assert.False(t, out.Timestamp.IsZero(), "timestamp backfilled on write")
}

func TestStoreReadUnknownJob(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Read("nope")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStoreReplacesSnapshot(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Write("movie", Snapshot{Status: StatusInitializing}))
	require.NoError(t, store.Write("movie", Snapshot{Status: StatusCompleted, Progress: 100, Segments: 20}))

	out, err := store.Read("movie")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 20, out.Segments)

	// 单快照，不是日志
	entries, err := os.ReadDir(store.Dir("movie"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SnapshotFile, entries[0].Name())
}

func TestStoreNoTempFileLeftBehind(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Write("movie", Snapshot{Status: StatusInitializing}))

	_, err := os.Stat(filepath.Join(store.Dir("movie"), SnapshotFile+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreOptionalFieldsOmitted(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Write("movie", Snapshot{Status: StatusError, Error: "boom", Message: "failed"}))

	data, err := os.ReadFile(filepath.Join(store.Dir("movie"), SnapshotFile))
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"status"`)
	assert.Contains(t, text, `"error"`)
	assert.NotContains(t, text, `"segments"`)
	assert.NotContains(t, text, `"output_size"`)
	assert.NotContains(t, text, `"speed"`)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusInitializing.Terminal())
	assert.False(t, StatusConverting.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}
