package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	staleUpload := touch(t, dir, "upload_123.xlsx", old)
	staleExport := touch(t, dir, "students_export_1_abc.xlsx", old)
	freshUpload := touch(t, dir, "upload_456.xlsx", now)
	foreign := touch(t, dir, "report.xlsx", old)
	notXlsx := touch(t, dir, "upload_789.csv", old)

	n, err := Sweep(dir, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, gone := range []string{staleUpload, staleExport} {
		_, err := os.Stat(gone)
		assert.True(t, os.IsNotExist(err), "%s should be removed", gone)
	}
	for _, kept := range []string{freshUpload, foreign, notXlsx} {
		_, err := os.Stat(kept)
		assert.NoError(t, err, "%s should be kept", kept)
	}
}

func TestSweep_MissingDir(t *testing.T) {
	n, err := Sweep(filepath.Join(t.TempDir(), "nope"), time.Hour, time.Now())
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartSweeper_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "upload_1.xlsx", time.Now().Add(-3*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartSweeper(ctx, []string{dir}, SweepConfig{Interval: time.Hour, MaxAge: time.Hour})
		close(done)
	}()

	// The first sweep runs before the ticker starts.
	assert.Eventually(t, func() bool {
		entries, _ := os.ReadDir(dir)
		return len(entries) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
