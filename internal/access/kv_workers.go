//go:build js && wasm

package access

import (
	"encoding/json"
	"fmt"

	"github.com/syumai/workers/cloudflare/kv"
)

const (
	// KVNamespace is the binding name configured in wrangler.toml.
	KVNamespace = "console_client_kv"
	kvKey       = "console_access"
)

// KVBackend stores the token in Cloudflare KV.
type KVBackend struct {
	ns *kv.Namespace
}

func NewKVBackend() (*KVBackend, error) {
	ns, err := kv.NewNamespace(KVNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}
	return &KVBackend{ns: ns}, nil
}

func (c *KVBackend) Load() (*Record, error) {
	raw, err := c.ns.GetString(kvKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token from KV: %w", err)
	}
	if raw == "" {
		return nil, ErrNoCredentials
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse access token JSON: %w", err)
	}
	if rec.AccessToken == "" {
		return nil, ErrNoCredentials
	}
	return &rec, nil
}

func (c *KVBackend) Save(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal access token: %w", err)
	}
	if err := c.ns.PutString(kvKey, string(data), nil); err != nil {
		return fmt.Errorf("failed to store access token in KV: %w", err)
	}
	return nil
}

// Clear overwrites the entry with an empty value, which Load treats as
// missing.
func (c *KVBackend) Clear() error {
	if err := c.ns.PutString(kvKey, "", nil); err != nil {
		return fmt.Errorf("failed to clear access token in KV: %w", err)
	}
	return nil
}
