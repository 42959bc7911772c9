package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"pfpharvest/pkg/logger"
)

// DefaultProfile is used when no profile name is given
const DefaultProfile = "default"

// Credential is a stored catalog API key
type Credential struct {
	Profile      string    `json:"profile"`
	APIKey       string    `json:"api_key"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving API keys
type CredentialStore interface {
	// Name identifies the store in logs and command output
	Name() string

	// Store saves a credential under its profile
	Store(cred *Credential) error

	// Retrieve gets the credential for a profile
	Retrieve(profile string) (*Credential, error)

	// Delete removes the credential for a profile
	Delete(profile string) error
}

// Manager resolves the API key from several stores in priority order
type Manager struct {
	stores []CredentialStore
	logger logger.Logger
}

// NewManager creates a manager over the environment, the system keychain when
// available, and an encrypted file in the user config directory
func NewManager(log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	stores := []CredentialStore{NewEnvironmentStore()}

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	} else {
		log.WithError(err).Debug("system keychain unavailable")
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return NewManagerWithStores(log, stores...), nil
}

// NewManagerWithStores creates a manager over the given stores, highest priority first
func NewManagerWithStores(log logger.Logger, stores ...CredentialStore) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{stores: stores, logger: log.WithField("component", "auth")}
}

// Resolve returns the first credential found for profile and the name of the store holding it
func (m *Manager) Resolve(profile string) (*Credential, string, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	for _, store := range m.stores {
		cred, err := store.Retrieve(profile)
		if err == nil && cred != nil && cred.APIKey != "" {
			m.logger.DebugWithFields("resolved API key", map[string]interface{}{
				"profile": profile,
				"store":   store.Name(),
			})
			return cred, store.Name(), nil
		}
		if err != nil && !errors.Is(err, ErrCredentialsNotFound) {
			m.logger.WithError(err).WarnWithFields("credential store failed", map[string]interface{}{
				"store": store.Name(),
			})
		}
	}

	return nil, "", ErrCredentialsNotFound
}

// Store saves the key in the first writable store and returns that store's name
func (m *Manager) Store(cred *Credential) (string, error) {
	if cred == nil || cred.APIKey == "" {
		return "", ErrInvalidCredentials
	}
	if cred.Profile == "" {
		cred.Profile = DefaultProfile
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return store.Name(), nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to store API key: %w", lastErr)
	}
	return "", ErrStoreUnavailable
}

// Delete removes the key for profile from every store holding it
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}

	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		}
	}

	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "pfpharvest")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "pfpharvest")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "pfpharvest")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "pfpharvest")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskKey masks all but the first 4 and last 4 characters of a key
func MaskKey(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("API key not found")
	ErrInvalidCredentials  = errors.New("invalid API key")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
