// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package convert

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elasda977/Slice-Video/internal/progress"
)

// writeScript installs an executable stub standing in for ffmpeg/ffprobe.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newTestConverter(t *testing.T, ffmpegBody, ffprobeBody string) (*Converter, *progress.Store) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts need a POSIX shell")
	}

	dir := t.TempDir()
	store := progress.NewStore(filepath.Join(dir, "output"))

	input := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(input, []byte("fake video"), 0o644))

	conv, err := New(Config{
		Job:            "movie",
		Input:          input,
		SegmentSeconds: 6,
		Binaries: Binaries{
			FFmpeg:  writeScript(t, dir, "ffmpeg", ffmpegBody),
			FFprobe: writeScript(t, dir, "ffprobe", ffprobeBody),
		},
		Store: store,
	})
	require.NoError(t, err)
	return conv, store
}

const successBody = `for a in "$@"; do last=$a; done
out=$(dirname "$last")
echo "frame=720 time=00:00:30.04 speed=2.0x"
echo "frame=1440 time=00:01:00.02 speed=2.0x"
i=0
while [ $i -lt 20 ]; do
  printf segmentdata > "$out/segment_$(printf %03d $i).ts"
  i=$((i+1))
done
echo "#EXTM3U" > "$out/playlist.m3u8"
exit 0
`

func TestConverterCompletes(t *testing.T) {
	conv, store := newTestConverter(t, successBody, `echo 120.000000`)

	require.NoError(t, conv.Run(context.Background()))

	snap, err := store.Read("movie")
	require.NoError(t, err)

	assert.Equal(t, progress.StatusCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, 20, snap.Segments)
	assert.Equal(t, 120, snap.Duration)
	assert.NotEmpty(t, snap.OutputSize)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestConverterEncoderFailure(t *testing.T) {
	conv, store := newTestConverter(t,
		`echo "movie.mp4: Invalid data found when processing input" 1>&2
exit 1
`, `echo 120.000000`)

	require.Error(t, conv.Run(context.Background()))

	snap, err := store.Read("movie")
	require.NoError(t, err)

	assert.Equal(t, progress.StatusError, snap.Status)
	assert.Contains(t, snap.Error, "Invalid data found")
	assert.Zero(t, snap.Segments)
	assert.Empty(t, snap.OutputSize)
}

func TestConverterZeroDuration(t *testing.T) {
	conv, store := newTestConverter(t, successBody, `echo 0.000000`)

	require.Error(t, conv.Run(context.Background()))

	snap, err := store.Read("movie")
	require.NoError(t, err)

	assert.Equal(t, progress.StatusError, snap.Status)
	assert.Equal(t, "Could not determine video duration", snap.Message)
	assert.NotEmpty(t, snap.Error)
	// converting 状态从未写入
	assert.Zero(t, snap.Duration)
	assert.Zero(t, snap.CurrentTime)
}

func TestConverterProbeFailure(t *testing.T) {
	conv, store := newTestConverter(t, successBody, `exit 1`)

	require.Error(t, conv.Run(context.Background()))

	snap, err := store.Read("movie")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusError, snap.Status)
}

func TestConverterCancel(t *testing.T) {
	conv, store := newTestConverter(t,
		`trap 'exit 0' INT TERM
echo "frame=1 time=00:00:01.00 speed=1.0x"
sleep 30 &
wait $!
exit 0
`, `echo 120.000000`)

	runDone := make(chan error, 1)
	go func() { runDone <- conv.Run(context.Background()) }()

	// 等待进入 converting 状态
	require.Eventually(t, func() bool {
		snap, err := store.Read("movie")
		return err == nil && snap.Status == progress.StatusConverting
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conv.Cancel())

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after Cancel")
	}

	snap, err := store.Read("movie")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCancelled, snap.Status)
	assert.Equal(t, "Conversion cancelled", snap.Message)

	// 取消已终止的任务是幂等的
	require.NoError(t, conv.Cancel())
}

func TestConverterTerminalSnapshotIsLastWrite(t *testing.T) {
	conv, store := newTestConverter(t, successBody, `echo 120.000000`)

	require.NoError(t, conv.Run(context.Background()))

	before, err := store.Read("movie")
	require.NoError(t, err)
	require.True(t, before.Status.Terminal())

	// Run 返回后不再有写入
	time.Sleep(50 * time.Millisecond)
	after, err := store.Read("movie")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
