package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"pfpharvest/pkg/config"
	"pfpharvest/pkg/logger"
)

// memoryStore is an in-memory CredentialStore with error injection
type memoryStore struct {
	name     string
	creds    map[string]Credential
	storeErr error
}

func newMemoryStore(name string) *memoryStore {
	return &memoryStore{name: name, creds: map[string]Credential{}}
}

func (m *memoryStore) Name() string { return m.name }

func (m *memoryStore) Store(cred *Credential) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.creds[cred.Profile] = *cred
	return nil
}

func (m *memoryStore) Retrieve(profile string) (*Credential, error) {
	cred, ok := m.creds[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &cred, nil
}

func (m *memoryStore) Delete(profile string) error {
	if _, ok := m.creds[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.creds, profile)
	return nil
}

func TestManagerResolveOrder(t *testing.T) {
	first := newMemoryStore("first")
	second := newMemoryStore("second")
	second.creds[DefaultProfile] = Credential{Profile: DefaultProfile, APIKey: "from-second"}

	m := NewManagerWithStores(logger.NewNopLogger(), first, second)

	cred, source, err := m.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "from-second", cred.APIKey)
	assert.Equal(t, "second", source)

	first.creds[DefaultProfile] = Credential{Profile: DefaultProfile, APIKey: "from-first"}
	cred, source, err = m.Resolve(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "from-first", cred.APIKey)
	assert.Equal(t, "first", source)
}

func TestManagerResolveNotFound(t *testing.T) {
	m := NewManagerWithStores(logger.NewNopLogger(), newMemoryStore("empty"))
	_, _, err := m.Resolve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreSkipsReadOnlyStores(t *testing.T) {
	writable := newMemoryStore("writable")
	m := NewManagerWithStores(logger.NewNopLogger(), NewEnvironmentStore(), writable)

	source, err := m.Store(&Credential{APIKey: "secret-key-123"})
	require.NoError(t, err)
	assert.Equal(t, "writable", source)
	assert.Equal(t, "secret-key-123", writable.creds[DefaultProfile].APIKey)
	assert.False(t, writable.creds[DefaultProfile].LastModified.IsZero())
}

func TestManagerStoreFailures(t *testing.T) {
	broken := newMemoryStore("broken")
	broken.storeErr = errors.New("disk full")
	m := NewManagerWithStores(logger.NewNopLogger(), broken)

	_, err := m.Store(&Credential{APIKey: "k"})
	assert.ErrorContains(t, err, "disk full")

	_, err = m.Store(&Credential{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = NewManagerWithStores(logger.NewNopLogger()).Store(&Credential{APIKey: "k"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestManagerDelete(t *testing.T) {
	a := newMemoryStore("a")
	b := newMemoryStore("b")
	a.creds[DefaultProfile] = Credential{Profile: DefaultProfile, APIKey: "1"}
	b.creds[DefaultProfile] = Credential{Profile: DefaultProfile, APIKey: "2"}
	m := NewManagerWithStores(logger.NewNopLogger(), a, b)

	require.NoError(t, m.Delete(""))
	assert.Empty(t, a.creds)
	assert.Empty(t, b.creds)
	assert.ErrorIs(t, m.Delete(""), ErrCredentialsNotFound)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(config.APIKeyEnv, "")
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	t.Setenv(config.APIKeyEnv, "env-key")
	cred, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env-key", cred.APIKey)
	assert.Equal(t, DefaultProfile, cred.Profile)

	assert.ErrorIs(t, store.Store(cred), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(""), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	_, err = store.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Credential{Profile: "work", APIKey: "keyring-key"}))
	cred, err := store.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "keyring-key", cred.APIKey)

	require.NoError(t, store.Delete("work"))
	assert.ErrorIs(t, store.Delete("work"), ErrCredentialsNotFound)
	assert.ErrorIs(t, store.Store(&Credential{Profile: "work"}), ErrInvalidCredentials)
}

func TestKeyringStoreUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus"))
	t.Cleanup(keyring.MockInit)

	_, err := NewKeyringStore()
	assert.ErrorContains(t, err, "keyring not available")
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(PassphraseEnv, "test-passphrase")
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = store.Retrieve(DefaultProfile)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Credential{Profile: DefaultProfile, APIKey: "file-key-1"}))
	require.NoError(t, store.Store(&Credential{Profile: "other", APIKey: "file-key-2"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "file-key-1", "keys are not stored in plaintext")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	cred, err := reopened.Retrieve(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "file-key-1", cred.APIKey)

	require.NoError(t, reopened.Delete(DefaultProfile))
	require.NoError(t, reopened.Delete("other"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty vault is removed")
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(PassphraseEnv, "right")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Profile: DefaultProfile, APIKey: "k"}))

	t.Setenv(PassphraseEnv, "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve(DefaultProfile)
	assert.ErrorContains(t, err, "failed to decrypt")
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Profile: DefaultProfile, APIKey: "k"}))

	pass, err := os.ReadFile(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.NotEmpty(t, pass)

	again, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	cred, err := again.Retrieve(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "k", cred.APIKey)
}

func TestNewManagerUsesConfigDir(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv(PassphraseEnv, "p")
	t.Setenv(config.APIKeyEnv, "")

	m, err := NewManager(logger.NewNopLogger())
	require.NoError(t, err)

	source, err := m.Store(&Credential{APIKey: "stored-key"})
	require.NoError(t, err)
	assert.Equal(t, "keyring", source)

	cred, source, err := m.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "stored-key", cred.APIKey)
	assert.Equal(t, "keyring", source)

	t.Setenv(config.APIKeyEnv, "env-wins")
	cred, source, err = m.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "env-wins", cred.APIKey)
	assert.Equal(t, "environment", source)

	require.NoError(t, m.Delete(""))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "********", MaskKey("short"))
	assert.Equal(t, "abcd...wxyz", MaskKey("abcdefghijklmnopqrstuvwxyz"))
}

func TestWriteAPIKeyGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteAPIKeyGuide(&buf)
	assert.Contains(t, buf.String(), config.APIKeyEnv)
	assert.Contains(t, buf.String(), "pfpharvest apikey set")
}
