// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	reloadDelay = 20 * time.Millisecond
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatcher(t *testing.T) {
	t.Run("initial load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "proxyx.yaml")
		writeConfig(t, path, "target: http://a.example.com\n")

		w, err := NewWatcher(path, nil)

		require.NoError(t, err)
		defer func() { _ = w.Close() }()
		assert.Equal(t, "http://a.example.com", w.Config().Target)
	})
	t.Run("initial load fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "proxyx.yaml")
		writeConfig(t, path, "target: [\n")

		w, err := NewWatcher(path, nil)

		assert.Error(t, err)
		assert.Nil(t, w)
	})
	t.Run("missing file", func(t *testing.T) {
		w, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil)

		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, w)
	})
	t.Run("reload on write", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "proxyx.yaml")
		writeConfig(t, path, "target: http://a.example.com\n")
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		defer func() { _ = w.Close() }()
		reloaded := make(chan *Config, 10)
		w.OnReload(func(c *Config) { reloaded <- c })

		writeConfig(t, path, "target: http://b.example.com\nproxies:\n  - url: socks5://127.0.0.1:1080\n")

		select {
		case c := <-reloaded:
			assert.Equal(t, "http://b.example.com", c.Target)
			assert.Len(t, c.Proxies, 1)
			assert.Same(t, c, w.Config())
		case <-time.After(5 * time.Second):
			t.Fatal("config was not reloaded")
		}
	})
	t.Run("reload on rename", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "proxyx.yaml")
		writeConfig(t, path, "target: http://a.example.com\n")
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		defer func() { _ = w.Close() }()
		reloaded := make(chan *Config, 10)
		w.OnReload(func(c *Config) { reloaded <- c })

		tmp := filepath.Join(dir, "proxyx.yaml.tmp")
		writeConfig(t, tmp, "target: http://c.example.com\n")
		require.NoError(t, os.Rename(tmp, path))

		select {
		case c := <-reloaded:
			assert.Equal(t, "http://c.example.com", c.Target)
		case <-time.After(5 * time.Second):
			t.Fatal("config was not reloaded")
		}
	})
	t.Run("bad reload keeps previous config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "proxyx.yaml")
		writeConfig(t, path, "target: http://a.example.com\n")
		core, logs := observer.New(zap.ErrorLevel)
		w, err := NewWatcher(path, zap.New(core))
		require.NoError(t, err)
		defer func() { _ = w.Close() }()
		old := w.Config()
		reloaded := make(chan *Config, 10)
		w.OnReload(func(c *Config) { reloaded <- c })

		writeConfig(t, path, "logging:\n  format: xml\n")

		require.Eventually(t, func() bool {
			return logs.FilterMessage("config reload failed, keeping previous config").Len() > 0
		}, 5*time.Second, 10*time.Millisecond)
		assert.Same(t, old, w.Config())
		assert.Empty(t, reloaded)
	})
	t.Run("other files are ignored", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "proxyx.yaml")
		writeConfig(t, path, "target: http://a.example.com\n")
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		defer func() { _ = w.Close() }()
		reloaded := make(chan *Config, 10)
		w.OnReload(func(c *Config) { reloaded <- c })

		writeConfig(t, filepath.Join(dir, "other.yaml"), "target: http://b.example.com\n")

		time.Sleep(10 * reloadDelay)
		assert.Empty(t, reloaded)
		assert.Equal(t, "http://a.example.com", w.Config().Target)
	})
	t.Run("close", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "proxyx.yaml")
		writeConfig(t, path, "target: http://a.example.com\n")
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		reloaded := make(chan *Config, 10)
		w.OnReload(func(c *Config) { reloaded <- c })

		require.NoError(t, w.Close())
		assert.NoError(t, w.Close())
		writeConfig(t, path, "target: http://b.example.com\n")

		time.Sleep(10 * reloadDelay)
		assert.Empty(t, reloaded)
		assert.Equal(t, "http://a.example.com", w.Config().Target)
	})
}
