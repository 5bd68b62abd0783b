package clients

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	ferrors "flowdown/errors"
)

// Scopes requested by the authenticated mode; everything is read-only
var Scopes = []string{
	drive.DriveReadonlyScope,
	docs.DocumentsReadonlyScope,
	sheets.SpreadsheetsReadonlyScope,
}

// ClientOptions selects how the API clients authenticate. A credentials file
// wins over an API key; with neither, application default credentials are used.
func ClientOptions(ctx context.Context, credentialsFile, apiKey string) ([]option.ClientOption, error) {
	switch {
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, ferrors.NewIOError(fmt.Sprintf("failed to read credentials %s", credentialsFile), err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
		if err != nil {
			return nil, ferrors.NewConfigError(fmt.Sprintf("invalid credentials %s", credentialsFile), err)
		}
		return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, creds.TokenSource))}, nil

	case apiKey != "":
		return []option.ClientOption{option.WithAPIKey(apiKey)}, nil

	default:
		client, err := google.DefaultClient(ctx, Scopes...)
		if err != nil {
			return nil, ferrors.NewConfigError("no credentials given and no application default credentials found", err)
		}
		return []option.ClientOption{option.WithHTTPClient(client)}, nil
	}
}
