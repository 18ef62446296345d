// internal/ingest/authorize.go
package ingest

import (
	"crypto/subtle"
	"fmt"

	"eventgate/internal/schema"
)

// AuthorizeApp resolves an app id and client-supplied secret to the App
// definition. The secret comparison is constant time so response timing
// leaks nothing about how much of a guessed secret matched.
func AuthorizeApp(s *schema.Schema, appID, secret string) (*schema.App, error) {
	app, ok := s.Apps[appID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownApp, appID)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(app.SecretKey)) != 1 {
		return nil, fmt.Errorf("%w for app %q", ErrInvalidSecret, appID)
	}
	return app, nil
}

// AuthorizeTable checks that the target table exists in the schema at all
// before checking the app's allow-set, so a client can distinguish a typo
// from a permission problem.
func AuthorizeTable(s *schema.Schema, app *schema.App, tableName string) (*schema.Table, error) {
	table, ok := s.Tables[tableName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, tableName)
	}
	if !app.AllowsTable(tableName) {
		return nil, fmt.Errorf("%w: app %q, table %q", ErrTableNotPermitted, app.AppID, tableName)
	}
	return table, nil
}

// Authorize is the full decision for one app/secret/table triple. It is a
// pure lookup over the read-only schema and safe to call from any number of
// concurrent requests.
func Authorize(s *schema.Schema, appID, secret, tableName string) (*schema.Table, error) {
	app, err := AuthorizeApp(s, appID, secret)
	if err != nil {
		return nil, err
	}
	return AuthorizeTable(s, app, tableName)
}
