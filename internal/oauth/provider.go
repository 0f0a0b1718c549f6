// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package oauth orchestrates the authorization-code flow against external
identity providers.

It is deliberately ignorant of Passage's user model: the flow verifies a
provider identity, normalizes the profile payload into [UserDetails], and
hands it to a [Hooks] implementation. Session minting and user provisioning
live behind that hook, in internal/auth.

Supported providers: Google, GitHub, Discord, Twitter, LinkedIn.

Flow state (anti-CSRF state, PKCE code verifier) travels exclusively in
short-lived cookies; the server keeps nothing between the initiation redirect
and the callback.
*/
package oauth

import (
	"encoding/json"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// # Provider Registry

// Provider names accepted on the wire.
const (
	ProviderGoogle   = "google"
	ProviderGitHub   = "github"
	ProviderDiscord  = "discord"
	ProviderTwitter  = "twitter"
	ProviderLinkedIn = "linkedin"
)

// UserDetails is the provider-neutral profile extracted after verification.
//
// Every field is total: a provider payload missing a field yields an empty
// string, never an error. OAuthUserID is the only field callers may rely on
// being non-empty for a well-behaved provider.
type UserDetails struct {
	OAuthUserID string
	Email       string
	Username    string
	Avatar      string
}

// Provider describes one upstream identity provider: where to send the user,
// where to exchange the code, which scopes to request, and how to read the
// profile payload back into [UserDetails].
type Provider struct {
	Name        string
	Endpoint    oauth2.Endpoint
	Scopes      []string
	UserInfoURL string

	// UsesPKCE controls whether the authorization request carries an S256
	// code challenge and the exchange carries the matching verifier.
	UsesPKCE bool

	// transform maps the raw user-info body to normalized details.
	transform func(body []byte) UserDetails
}

var registry = map[string]Provider{
	ProviderGoogle: {
		Name:        ProviderGoogle,
		Endpoint:    endpoints.Google,
		Scopes:      []string{"openid", "profile", "email"},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		UsesPKCE:    true,
		transform:   transformGoogle,
	},
	ProviderGitHub: {
		Name:        ProviderGitHub,
		Endpoint:    endpoints.GitHub,
		Scopes:      []string{"read:user"},
		UserInfoURL: "https://api.github.com/user",
		UsesPKCE:    false,
		transform:   transformGitHub,
	},
	ProviderDiscord: {
		Name:        ProviderDiscord,
		Endpoint:    endpoints.Discord,
		Scopes:      []string{"identify"},
		UserInfoURL: "https://discord.com/api/users/@me",
		UsesPKCE:    true,
		transform:   transformDiscord,
	},
	ProviderTwitter: {
		Name:        ProviderTwitter,
		Endpoint:    endpoints.X,
		Scopes:      []string{"users.read", "tweet.read"},
		UserInfoURL: "https://api.twitter.com/2/users/me?user.fields=profile_image_url",
		UsesPKCE:    true,
		transform:   transformTwitter,
	},
	ProviderLinkedIn: {
		Name:        ProviderLinkedIn,
		Endpoint:    endpoints.LinkedIn,
		Scopes:      []string{"openid", "profile", "email"},
		UserInfoURL: "https://api.linkedin.com/v2/userinfo",
		UsesPKCE:    false,
		transform:   transformLinkedIn,
	},
}

// Lookup returns the registered provider for a wire name.
func Lookup(name string) (Provider, bool) {
	provider, found := registry[name]
	return provider, found
}

// Names lists the registered provider wire names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// # Profile Transforms
//
// Each transform decodes only the fields it needs. A malformed or partial
// body degrades to empty fields; the caller decides what to do with an
// empty OAuthUserID.

type googleProfile struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func transformGoogle(body []byte) UserDetails {
	var profile googleProfile
	_ = json.Unmarshal(body, &profile)

	return UserDetails{
		OAuthUserID: profile.Sub,
		Email:       profile.Email,
		Username:    profile.Name,
		Avatar:      profile.Picture,
	}
}

type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

func transformGitHub(body []byte) UserDetails {
	var profile githubProfile
	_ = json.Unmarshal(body, &profile)

	details := UserDetails{
		Username: profile.Login,
		Avatar:   profile.AvatarURL,
		// GitHub's user endpoint does not return a verified email with
		// the read:user scope; Email stays empty on purpose.
		Email: "",
	}
	if profile.ID != 0 {
		details.OAuthUserID = strconv.FormatInt(profile.ID, 10)
	}

	return details
}

type discordProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func transformDiscord(body []byte) UserDetails {
	var profile discordProfile
	_ = json.Unmarshal(body, &profile)

	return UserDetails{
		OAuthUserID: profile.ID,
		Email:       profile.Email,
		Username:    profile.Username,
		Avatar:      profile.Avatar,
	}
}

type twitterProfile struct {
	Data struct {
		ID              string `json:"id"`
		Email           string `json:"email"`
		Name            string `json:"name"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func transformTwitter(body []byte) UserDetails {
	var profile twitterProfile
	_ = json.Unmarshal(body, &profile)

	return UserDetails{
		OAuthUserID: profile.Data.ID,
		Email:       profile.Data.Email,
		Username:    profile.Data.Name,
		Avatar:      profile.Data.ProfileImageURL,
	}
}

type linkedinProfile struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

func transformLinkedIn(body []byte) UserDetails {
	var profile linkedinProfile
	_ = json.Unmarshal(body, &profile)

	return UserDetails{
		OAuthUserID: profile.Sub,
		Email:       profile.Email,
		Username:    profile.Name,
		Avatar:      profile.Picture,
	}
}
