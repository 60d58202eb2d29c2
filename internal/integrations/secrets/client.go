package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretsAPI is the minimal Secrets Manager interface required by Client.
// *secretsmanager.Client from aws-sdk-go-v2 satisfies this interface.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Getter resolves one key from a JSON-object secret.
type Getter interface {
	GetSecretKey(ctx context.Context, secretName, key string) (string, error)
}

// Client reads JSON-object secrets from AWS Secrets Manager.
type Client struct {
	api secretsAPI
}

func New(api secretsAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("secrets: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetSecretKey fetches the named secret, decodes it as a flat JSON object
// and returns the value stored under key.
func (c *Client) GetSecretKey(ctx context.Context, secretName, key string) (string, error) {
	secretName = strings.TrimSpace(secretName)
	if secretName == "" {
		return "", errors.New("secrets: secret name is required")
	}
	if key == "" {
		return "", errors.New("secrets: key is required")
	}

	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretName,
	})
	if err != nil {
		return "", fmt.Errorf("secrets: get secret %q: %w", secretName, err)
	}
	if out == nil || out.SecretString == nil {
		return "", fmt.Errorf("secrets: secret %q has no string value", secretName)
	}

	var kv map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &kv); err != nil {
		return "", fmt.Errorf("secrets: decode secret %q: %w", secretName, err)
	}
	value, ok := kv[key]
	if !ok || value == "" {
		return "", fmt.Errorf("secrets: secret %q missing key %q", secretName, key)
	}
	return value, nil
}
