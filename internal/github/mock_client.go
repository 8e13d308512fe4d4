package github

import (
	"context"
	"sync"

	gh "github.com/google/go-github/v68/github"
)

// MockClient is a mock implementation of the Client interface for testing
type MockClient struct {
	// ListReleasesFunc can be set to mock ListReleases behavior
	ListReleasesFunc func(ctx context.Context, owner, repo string) ([]*gh.RepositoryRelease, error)

	// ListReleaseAssetsFunc can be set to mock ListReleaseAssets behavior
	ListReleaseAssetsFunc func(ctx context.Context, owner, repo string, releaseID int64) ([]*gh.ReleaseAsset, error)

	mu sync.Mutex

	// Call tracking
	Calls []MockCall
}

// MockCall records a method call for verification
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	return &MockClient{
		Calls: make([]MockCall, 0),
	}
}

// ListReleases implements Client.ListReleases
func (m *MockClient) ListReleases(ctx context.Context, owner, repo string) ([]*gh.RepositoryRelease, error) {
	m.record("ListReleases", owner, repo)
	if m.ListReleasesFunc != nil {
		return m.ListReleasesFunc(ctx, owner, repo)
	}
	return nil, nil
}

// ListReleaseAssets implements Client.ListReleaseAssets
func (m *MockClient) ListReleaseAssets(ctx context.Context, owner, repo string, releaseID int64) ([]*gh.ReleaseAsset, error) {
	m.record("ListReleaseAssets", owner, repo, releaseID)
	if m.ListReleaseAssetsFunc != nil {
		return m.ListReleaseAssetsFunc(ctx, owner, repo, releaseID)
	}
	return nil, nil
}

func (m *MockClient) record(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// Reset clears all recorded calls
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// CallCount returns the number of times a method was called
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.Calls {
		if call.Method == method {
			count++
		}
	}
	return count
}
