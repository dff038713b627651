package provider

import (
	"context"
	"testing"

	"handyman-auth/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedVerifier struct {
	name string
}

func (v namedVerifier) Name() string { return v.name }

func (v namedVerifier) VerifyToken(context.Context, string) (*auth.ExternalIdentity, error) {
	return &auth.ExternalIdentity{Provider: v.name}, nil
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(namedVerifier{"google"}, nil, namedVerifier{"facebook"})

	v, err := reg.Get("facebook")
	require.NoError(t, err)
	assert.Equal(t, "facebook", v.Name())

	_, err = reg.Get("github")
	assert.EqualError(t, err, "unknown token provider: github")
}
