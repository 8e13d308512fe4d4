package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	// KeyringServiceName is the service name used in the system keychain
	KeyringServiceName = "ruffle-manager"

	// ConfigFileName is the name of the config file
	ConfigFileName = ".ruffle-manager.yaml"

	tokenKey = "token"
)

// Storage stores the token in the system keychain, falling back to the
// config file where no keychain is available
type Storage struct {
	keychainAvailable bool
	configPath        string // Custom config path (for testing)
}

// NewStorage creates a new Storage instance
func NewStorage() *Storage {
	s := &Storage{}
	s.keychainAvailable = s.checkKeychainAvailable()
	return s
}

// NewStorageWithConfig creates a Storage instance with a custom config path (for testing)
func NewStorageWithConfig(configPath string, useKeychain bool) *Storage {
	return &Storage{
		keychainAvailable: useKeychain,
		configPath:        configPath,
	}
}

// checkKeychainAvailable checks the keychain with a lookup that is expected
// to miss
func (s *Storage) checkKeychainAvailable() bool {
	testKey := "ruffle-manager-keychain-test"

	_, err := keyring.Get(KeyringServiceName, testKey)
	if err == nil || err == keyring.ErrNotFound {
		return true
	}

	// Headless Linux usually ends up here
	if testErr := keyring.Set(KeyringServiceName, testKey, "test"); testErr != nil {
		return false
	}
	_ = keyring.Delete(KeyringServiceName, testKey)
	return true
}

// GetToken retrieves the stored token for a hostname
func (s *Storage) GetToken(hostname string) (string, TokenSource, error) {
	if hostname == "" {
		hostname = DefaultHostname
	}

	if s.keychainAvailable {
		token, err := keyring.Get(KeyringServiceName, hostname)
		if err == nil && token != "" {
			return token, TokenSourceKeychain, nil
		}
	}

	token, err := s.getTokenFromConfig()
	if err == nil && token != "" {
		return token, TokenSourceConfig, nil
	}

	return "", TokenSourceNone, fmt.Errorf("no token found")
}

// SetToken stores a token for a hostname
func (s *Storage) SetToken(hostname, token string) error {
	if hostname == "" {
		hostname = DefaultHostname
	}

	if s.keychainAvailable {
		if err := keyring.Set(KeyringServiceName, hostname, token); err == nil {
			return nil
		}
	}

	return s.setTokenInConfig(token)
}

// DeleteToken removes the stored token for a hostname
func (s *Storage) DeleteToken(hostname string) error {
	if hostname == "" {
		hostname = DefaultHostname
	}

	var keychainErr error
	if s.keychainAvailable {
		keychainErr = keyring.Delete(KeyringServiceName, hostname)
		if keychainErr == keyring.ErrNotFound {
			keychainErr = nil
		}
	}

	configErr := s.setTokenInConfig("")

	if keychainErr != nil && configErr != nil {
		return fmt.Errorf("failed to delete token from keychain (%v) and config (%v)", keychainErr, configErr)
	}

	return nil
}

// IsKeychainAvailable returns whether the system keychain is available
func (s *Storage) IsKeychainAvailable() bool {
	return s.keychainAvailable
}

// GetStorageLocation returns a description of where tokens are stored
func (s *Storage) GetStorageLocation() string {
	if s.keychainAvailable {
		switch runtime.GOOS {
		case "darwin":
			return "macOS Keychain"
		case "linux":
			return "Secret Service (GNOME Keyring/KWallet)"
		case "windows":
			return "Windows Credential Manager"
		default:
			return "System Keychain"
		}
	}
	return "config file (~/" + ConfigFileName + ")"
}

// getConfigPath returns the path to the config file
func (s *Storage) getConfigPath() (string, error) {
	if s.configPath != "" {
		return s.configPath, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// readConfig parses the config file into a document node. A missing file
// yields an empty mapping.
func (s *Storage) readConfig() (string, *yaml.Node, error) {
	path, err := s.getConfigPath()
	if err != nil {
		return "", nil, err
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, doc, nil
		}
		return "", nil, err
	}

	var parsed yaml.Node
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return "", nil, err
	}
	if parsed.Kind == yaml.DocumentNode && len(parsed.Content) == 1 && parsed.Content[0].Kind == yaml.MappingNode {
		doc = &parsed
	} else if parsed.Kind != 0 {
		return "", nil, fmt.Errorf("config file %s is not a mapping", path)
	}
	return path, doc, nil
}

// getTokenFromConfig retrieves the token from the config file
func (s *Storage) getTokenFromConfig() (string, error) {
	_, doc, err := s.readConfig()
	if err != nil {
		return "", err
	}

	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == tokenKey {
			return mapping.Content[i+1].Value, nil
		}
	}
	return "", nil
}

// setTokenInConfig writes the token key, leaving every other key and
// comment of the file as it was
func (s *Storage) setTokenInConfig(token string) error {
	path, doc, err := s.readConfig()
	if err != nil {
		return err
	}

	mapping := doc.Content[0]
	found := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == tokenKey {
			mapping.Content[i+1].SetString(token)
			found = true
			break
		}
	}
	if !found {
		if token == "" {
			return nil
		}
		key := &yaml.Node{}
		key.SetString(tokenKey)
		value := &yaml.Node{}
		value.SetString(token)
		mapping.Content = append(mapping.Content, key, value)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	// 0600, the file holds a token
	return os.WriteFile(path, data, 0600)
}
