package application

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdecomp/jdecomp/internal/adapters/classpath"
	"github.com/jdecomp/jdecomp/internal/classfile/classfiletest"
	"github.com/jdecomp/jdecomp/internal/domain"
)

func TestServiceDecompileAllWritesEveryClass(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeClass(t, src, "com/example/Hello", classfiletest.Hello())
	writeClass(t, src, "com/Other", classfiletest.New("com/Other", "java/lang/Object").Bytes())
	out := t.TempDir()

	var (
		mu    sync.Mutex
		calls []int
	)
	progress := func(done, total int, item BatchItem) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 2, total)
		assert.NoError(t, item.Err)
		calls = append(calls, done)
	}

	service := NewService(classpath.Opener{}, nil, nil)
	result, err := service.DecompileAll(context.Background(), BatchCommand{
		Source:    src,
		OutputDir: out,
		Options:   domain.WriteOptions{Indent: "  ", LineSeparator: "\n"},
		Workers:   2,
	}, progress)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{1, 2}, calls)
	assert.Zero(t, result.Failed())
	require.Len(t, result.Items, 2)
	assert.Equal(t, "com/Other", result.Items[0].ClassName)
	assert.Equal(t, "com/example/Hello", result.Items[1].ClassName)
	assert.Len(t, result.Summaries(), 2)

	data, err := os.ReadFile(filepath.Join(out, "com", "example", "Hello.java"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package com.example;\nimport java.util.List;\npublic class Hello {\n  private static final int ANSWER = 42;\n")

	data, err = os.ReadFile(filepath.Join(out, "com", "Other.java"))
	require.NoError(t, err)
	assert.Equal(t, "package com;\npublic class Other {\n}\n", string(data))
}

func TestServiceDecompileAllContinuesPastFailures(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeClass(t, src, "com/example/Hello", classfiletest.Hello())
	writeClass(t, src, "a/Broken", brokenClass())
	writeClass(t, src, "a/Garbage", []byte{0xCA, 0xFE})
	out := t.TempDir()

	service := NewService(classpath.Opener{}, nil, nil)
	result, err := service.DecompileAll(context.Background(), BatchCommand{
		Source:    src,
		OutputDir: out,
		Options:   domain.DefaultWriteOptions(),
	}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "decompile 2 of 3 classes failed")
	assert.ErrorContains(t, err, "decompile a/Broken")
	assert.ErrorContains(t, err, "operand stack underflow")

	assert.Equal(t, 2, result.Failed())
	require.Len(t, result.Summaries(), 1)
	assert.Equal(t, "com/example/Hello", result.Summaries()[0].Name)

	_, err = os.Stat(filepath.Join(out, "com", "example", "Hello.java"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "a", "Broken.java"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestServiceDecompileAllReadsJars(t *testing.T) {
	t.Parallel()

	jarPath := filepath.Join(t.TempDir(), "app.jar")
	writeJar(t, jarPath, map[string][]byte{
		"com/example/Hello.class": classfiletest.Hello(),
		"META-INF/MANIFEST.MF":    []byte("Manifest-Version: 1.0\n"),
	})
	out := t.TempDir()

	result, err := NewService(classpath.Opener{}, nil, nil).DecompileAll(context.Background(), BatchCommand{
		Source:    jarPath,
		OutputDir: out,
		Options:   domain.DefaultWriteOptions(),
		Workers:   4,
	}, nil)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, filepath.Join(out, "com", "example", "Hello.java"), result.Items[0].Output)
}

func TestServiceDecompileAllErrors(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, nil, nil).DecompileAll(context.Background(), BatchCommand{Source: "x"}, nil)
	assert.ErrorIs(t, err, ErrNoClassPathOpener)

	missing := filepath.Join(t.TempDir(), "missing.jar")
	_, err = NewService(classpath.Opener{}, nil, nil).DecompileAll(context.Background(), BatchCommand{Source: missing}, nil)
	assert.ErrorContains(t, err, "open batch source")
	assert.ErrorContains(t, err, missing)
}

func TestServiceDecompileAllHonorsCancellation(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeClass(t, src, "com/example/Hello", classfiletest.Hello())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(classpath.Opener{}, nil, nil).DecompileAll(ctx, BatchCommand{
		Source:    src,
		OutputDir: t.TempDir(),
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeJar(t *testing.T, path string, files map[string][]byte) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}
