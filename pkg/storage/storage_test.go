package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := s.Save("rosters/4.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "rosters/4.csv", name)

	f, err := s.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(body))

	require.NoError(t, s.Delete(name))
	_, err = s.Open(name)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, s.Delete(name), "deleting a missing file is not an error")
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"", "../secret", "/etc/passwd", "a/../../b"} {
		_, err := s.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	_, err = s.Save("old.csv", []byte("old"))
	require.NoError(t, err)
	_, err = s.Save("new.csv", []byte("new"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.csv"), past, past))

	deleted, err := s.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)
	_, err = s.Open("new.csv")
	assert.NoError(t, err)
}

func TestDownloadSignerRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Minute)
	token, expiresAt, err := signer.Sign("export-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	subject, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "export-1", subject)

	_, err = NewDownloadSigner("other", time.Minute).Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestDownloadSignerRejectsExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Minute)
	token, _, err := signer.Sign("export-1")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestLocalStoragePing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, store.Ping(context.Background()))
}
