package vault

import (
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"

	"github.com/David-Orizu31/todolist/internal"
)

// Provider reads secret values from HashiCorp Vault's KV store.
type Provider struct {
	client *api.Client
	path   string

	mu      sync.Mutex
	results map[string]map[string]interface{}
}

// New instantiates a Provider pointing to the received address using the
// token for authentication, path is the KV mount prefix for all lookups.
func New(token, addr, path string) (*Provider, error) {
	config := &api.Config{
		Address: addr,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "api.NewClient")
	}

	client.SetToken(token)

	return &Provider{
		client:  client,
		path:    path,
		results: make(map[string]map[string]interface{}),
	}, nil
}

// Get requests the value matching "<secret path>:<key>", secrets already
// retrieved are returned from a local cache.
func (p *Provider) Get(v string) (string, error) {
	segments := strings.Split(v, ":")
	if len(segments) != 2 {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%q is not a valid lookup value", v)
	}

	data, err := p.secret(segments[0])
	if err != nil {
		return "", err
	}

	res, ok := data[segments[1]].(string)
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "key %q not found in secret", segments[1])
	}

	return res, nil
}

func (p *Provider) secret(path string) (map[string]interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if data, ok := p.results[path]; ok {
		return data, nil
	}

	secret, err := p.client.Logical().Read(p.path + path)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Logical.Read")
	}

	if secret == nil {
		return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "secret %q not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, internal.NewErrorf(internal.ErrorCodeUnknown, "secret %q has no data", path)
	}

	p.results[path] = data

	return data, nil
}
