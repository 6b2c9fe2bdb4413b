package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"tarledger/internal/domain"
)

// IPFSStub mimics an IPFS pinning backend without a node: content-addressed
// URIs, in-memory bytes. Useful for development and tests; identical bytes
// get identical URIs, as on the real network.
type IPFSStub struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewIPFSStub() *IPFSStub {
	return &IPFSStub{objects: make(map[string][]byte)}
}

func (s *IPFSStub) Put(_ context.Context, _ string, _ string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	uri := "ipfs://bafk" + hex.EncodeToString(sum[:])
	s.mu.Lock()
	s.objects[uri] = append([]byte(nil), data...)
	s.mu.Unlock()
	return uri, nil
}

func (s *IPFSStub) Get(_ context.Context, uri string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.objects[uri]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s not pinned", domain.ErrContentStore, uri)
	}
	return append([]byte(nil), data...), nil
}
