// Copyright 2024 Wes Nick
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mailctl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ConfigPaths are the well-known files inside the config directory.
type ConfigPaths struct {
	Dir         string
	Credentials string
	Token       string
}

// GetConfigPaths resolves the config directory, defaulting to
// ~/.config/mailctl.
func GetConfigPaths(dir string) (*ConfigPaths, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolving home directory")
		}
		dir = filepath.Join(home, ".config", "mailctl")
	}
	return &ConfigPaths{
		Dir:         dir,
		Credentials: filepath.Join(dir, "credentials.json"),
		Token:       filepath.Join(dir, "token.json"),
	}, nil
}

// NewGmailService builds an authenticated Gmail API service from the
// files in the config directory. Both OAuth client credentials with a
// cached token and service accounts with domain-wide delegation are
// supported; the credential type is detected from the JSON. There is no
// interactive flow here; obtaining a token is the user's problem.
func NewGmailService(ctx context.Context, paths *ConfigPaths, userEmail string) (*gmailv1.Service, error) {
	credBytes, err := os.ReadFile(paths.Credentials)
	if err != nil {
		return nil, errors.Wrapf(err, "reading credentials %s", paths.Credentials)
	}

	if isServiceAccount(credBytes) {
		if userEmail == "" {
			return nil, errors.New("service account authentication requires a user email to impersonate")
		}
		log.Debugf("authenticating as service account, impersonating %s", userEmail)
		cfg, err := google.JWTConfigFromJSON(credBytes, gmailScopes()...)
		if err != nil {
			return nil, errors.Wrap(err, "parsing service account credentials")
		}
		cfg.Subject = userEmail
		return gmailv1.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx)))
	}

	cfg, err := google.ConfigFromJSON(credBytes, gmailScopes()...)
	if err != nil {
		return nil, errors.Wrap(err, "parsing OAuth credentials")
	}
	tokBytes, err := os.ReadFile(paths.Token)
	if err != nil {
		return nil, errors.Wrapf(err, "reading token %s (run an OAuth flow to obtain one)", paths.Token)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(tokBytes, tok); err != nil {
		return nil, errors.Wrap(err, "decoding token")
	}
	log.Debugf("authenticating with OAuth token from %s", paths.Token)
	return gmailv1.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, tok)))
}

func gmailScopes() []string {
	return []string{
		gmailv1.GmailModifyScope,
		gmailv1.GmailSettingsBasicScope,
		gmailv1.GmailLabelsScope,
	}
}

func isServiceAccount(credBytes []byte) bool {
	var credType struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(credBytes, &credType); err != nil {
		return false
	}
	return credType.Type == "service_account"
}
