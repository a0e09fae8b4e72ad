// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package shim

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler counts invocations and writes an artifact like a real
// compiler would.
func fakeCompiler(t *testing.T, calls *int) compileFunc {
	t.Helper()

	return func(_ context.Context, object, source string) error {
		*calls++

		_, err := os.Stat(source)
		require.NoError(t, err, "source must exist before compiling")

		return os.WriteFile(object, []byte("fake object"), 0o644)
	}
}

func TestBuilderEnsureBuildsOnce(t *testing.T) {
	dir := t.TempDir()
	calls := 0

	builder := New(filepath.Join(dir, "vmtest"))
	builder.compile = fakeCompiler(t, &calls)

	path, err := builder.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.FileExists(t, path)

	// Fresh artifact, no rebuild.
	again, err := builder.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, path, again)
}

func TestBuilderEnsureRebuildsStaleArtifact(t *testing.T) {
	dir := t.TempDir()
	calls := 0

	builder := New(dir)
	builder.compile = fakeCompiler(t, &calls)

	path, err := builder.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// Touch the source so it is newer than the artifact.
	future := time.Now().Add(time.Hour)
	sourcePath := filepath.Join(dir, sourceName)
	require.NoError(t, os.Chtimes(sourcePath, future, future))

	_, err = builder.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// Once the artifact is newer than the source again, no rebuild happens.
	require.NoError(t, os.Chtimes(path,
		future.Add(time.Hour), future.Add(time.Hour)))

	_, err = builder.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBuilderEnsureRestoresCorruptedSource(t *testing.T) {
	dir := t.TempDir()
	calls := 0

	builder := New(dir)
	builder.compile = fakeCompiler(t, &calls)

	_, err := builder.Ensure(context.Background())
	require.NoError(t, err)

	sourcePath := filepath.Join(dir, sourceName)
	require.NoError(t, os.WriteFile(sourcePath, []byte("garbage"), 0o644))

	_, err = builder.Ensure(context.Background())
	require.NoError(t, err)

	restored, err := os.ReadFile(sourcePath)
	require.NoError(t, err)
	assert.Equal(t, source, restored)
}

func TestBuilderEnsureCompileError(t *testing.T) {
	builder := New(t.TempDir())
	builder.compile = func(_ context.Context, _, _ string) error {
		return &BuildError{CommandLine: "cc ...", Err: assert.AnError}
	}

	_, err := builder.Ensure(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, &BuildError{})
}
