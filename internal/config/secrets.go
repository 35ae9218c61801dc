// Package config holds the two configuration layers the service needs:
// Secrets (Vault-backed, for connection URIs) and Runtime (plain
// environment variables, for every operational tunable).
package config

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Secrets wraps the Vault API client for reading the connection strings the
// service must not keep in plain environment variables: PG_URL,
// END_DB_URI, NATS_URL.
type Secrets struct {
	client *api.Client
}

// NewSecretManager creates a Vault client pointed at address and
// authenticated with token.
func NewSecretManager(address, token string) (*Secrets, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: vault client init: %w", err)
	}
	client.SetToken(token)

	return &Secrets{client: client}, nil
}

// GetSecret reads the raw data map at path. For KV v2 backends the caller
// must unwrap the nested "data" key — see GetKV2.
func (s *Secrets) GetSecret(path string) (map[string]interface{}, error) {
	secret, err := s.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("config: read secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("config: no data found at %s", path)
	}
	return secret.Data, nil
}

// GetKV2 reads from a KV v2 backend and returns the inner "data" map.
func (s *Secrets) GetKV2(path string) (map[string]interface{}, error) {
	raw, err := s.GetSecret(path)
	if err != nil {
		return nil, err
	}
	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("config: unexpected data format at %s", path)
	}
	return data, nil
}

// ConnectionStrings holds the three connection URIs the service reads out
// of Vault at startup: the operational database, the end/reporting
// database, and the NATS event bus.
type ConnectionStrings struct {
	PGURL    string
	EndDBURI string
	NATSURL  string
}

// LoadConnectionStrings reads the KV v2 secret at path and extracts
// PG_URL, END_DB_URI, and NATS_URL as typed fields, so callers never have
// to type-assert a raw map themselves.
func (s *Secrets) LoadConnectionStrings(path string) (ConnectionStrings, error) {
	data, err := s.GetKV2(path)
	if err != nil {
		return ConnectionStrings{}, err
	}

	var cs ConnectionStrings
	var ok bool
	if cs.PGURL, ok = data["PG_URL"].(string); !ok {
		return ConnectionStrings{}, fmt.Errorf("config: PG_URL missing or not a string at %s", path)
	}
	if cs.EndDBURI, ok = data["END_DB_URI"].(string); !ok {
		return ConnectionStrings{}, fmt.Errorf("config: END_DB_URI missing or not a string at %s", path)
	}
	if cs.NATSURL, ok = data["NATS_URL"].(string); !ok {
		return ConnectionStrings{}, fmt.Errorf("config: NATS_URL missing or not a string at %s", path)
	}
	return cs, nil
}
