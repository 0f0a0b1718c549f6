// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestLookup verifies registry membership for all supported providers.
*/
func TestLookup(t *testing.T) {
	for _, name := range []string{ProviderGoogle, ProviderGitHub, ProviderDiscord, ProviderTwitter, ProviderLinkedIn} {
		provider, found := Lookup(name)
		require.True(t, found, "provider %s missing from registry", name)
		assert.Equal(t, name, provider.Name)
		assert.NotEmpty(t, provider.Scopes)
		assert.NotEmpty(t, provider.UserInfoURL)
		assert.NotNil(t, provider.transform)
	}

	_, found := Lookup("myspace")
	assert.False(t, found)
}

/*
TestTransforms_FieldMapping pins the provider-specific field contracts: each
raw payload shape maps to the normalized details exactly.
*/
func TestTransforms_FieldMapping(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		body     string
		expected UserDetails
	}{
		{
			name:     "google_openid_profile",
			provider: ProviderGoogle,
			body:     `{"sub":"108256","email":"tai@gmail.com","name":"Tai Bui","picture":"https://lh3.googleusercontent.com/a/x"}`,
			expected: UserDetails{
				OAuthUserID: "108256",
				Email:       "tai@gmail.com",
				Username:    "Tai Bui",
				Avatar:      "https://lh3.googleusercontent.com/a/x",
			},
		},
		{
			name:     "github_numeric_id",
			provider: ProviderGitHub,
			body:     `{"id":583231,"login":"octocat","avatar_url":"https://avatars.githubusercontent.com/u/583231","email":"ignored@example.com"}`,
			expected: UserDetails{
				OAuthUserID: "583231",
				Username:    "octocat",
				Avatar:      "https://avatars.githubusercontent.com/u/583231",
				// read:user does not grant a verified email
				Email: "",
			},
		},
		{
			name:     "discord_identify",
			provider: ProviderDiscord,
			body:     `{"id":"80351110224678912","username":"nelly","avatar":"8342729096ea3675442027381ff50dfe","email":"nelly@discord.com"}`,
			expected: UserDetails{
				OAuthUserID: "80351110224678912",
				Email:       "nelly@discord.com",
				Username:    "nelly",
				Avatar:      "8342729096ea3675442027381ff50dfe",
			},
		},
		{
			name:     "twitter_nested_data",
			provider: ProviderTwitter,
			body:     `{"data":{"id":"2244994945","name":"Tai","profile_image_url":"https://pbs.twimg.com/x.png"}}`,
			expected: UserDetails{
				OAuthUserID: "2244994945",
				Username:    "Tai",
				Avatar:      "https://pbs.twimg.com/x.png",
			},
		},
		{
			name:     "linkedin_openid",
			provider: ProviderLinkedIn,
			body:     `{"sub":"782bbtaQ","name":"Tai Bui","picture":"https://media.licdn.com/x","email":"tai@linkedin.com"}`,
			expected: UserDetails{
				OAuthUserID: "782bbtaQ",
				Email:       "tai@linkedin.com",
				Username:    "Tai Bui",
				Avatar:      "https://media.licdn.com/x",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, found := Lookup(tt.provider)
			require.True(t, found)

			assert.Equal(t, tt.expected, provider.transform([]byte(tt.body)))
		})
	}
}

/*
TestTransforms_Total verifies that every transform tolerates empty, partial,
and malformed payloads without panicking; provider responses are untrusted.
*/
func TestTransforms_Total(t *testing.T) {
	bodies := []string{
		`{}`,
		``,
		`not json at all`,
		`{"id":"unexpected-string-for-github"}`,
		`{"data":null}`,
		`[1,2,3]`,
	}

	for name, provider := range registry {
		for _, body := range bodies {
			details := provider.transform([]byte(body))

			// Absent fields degrade to empty strings, never to a panic
			_ = details
		}
		t.Logf("provider %s transform is total", name)
	}
}

/*
TestPKCEFlags pins which providers carry an S256 challenge.
*/
func TestPKCEFlags(t *testing.T) {
	expectations := map[string]bool{
		ProviderGoogle:   true,
		ProviderDiscord:  true,
		ProviderTwitter:  true,
		ProviderGitHub:   false,
		ProviderLinkedIn: false,
	}

	for name, wantPKCE := range expectations {
		provider, found := Lookup(name)
		require.True(t, found)
		assert.Equal(t, wantPKCE, provider.UsesPKCE, "provider %s", name)
	}
}

/*
TestNames returns every registered wire name.
*/
func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 5)
	assert.ElementsMatch(t, names, []string{
		ProviderGoogle, ProviderGitHub, ProviderDiscord, ProviderTwitter, ProviderLinkedIn,
	})
}
