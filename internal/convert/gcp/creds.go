package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// clientOptionsFromEnv mirrors the credential-resolution order every GCP
// client in this module uses: an inline JSON key takes priority over a path
// to a key file, and neither being set falls through to application default
// credentials.
func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if creds != "" {
			return []option.ClientOption{option.WithCredentialsFile(creds)}
		}
		return nil
	}
	return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
}
