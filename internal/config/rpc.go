package config

import (
	"errors"
	"os"
)

// RPCConfig is only required in fork mode, where token accounts are
// hydrated from a live cluster.
type RPCConfig struct {
	RPCUrl string

	// RPCApiKey is sent as the x-api-key header when set.
	RPCApiKey string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.RPCApiKey = os.Getenv("RPC_KEY")
	return nil
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: RPC_URL is required")
	}
	return nil
}

// Headers returns the extra HTTP headers for RPC requests.
func (r *RPCConfig) Headers() map[string]string {
	if r.RPCApiKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": r.RPCApiKey}
}
