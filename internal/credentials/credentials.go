// Package credentials materializes a cloud credential file from an
// environment-supplied JSON blob so downstream clients and exec'd servers can
// pick it up from disk. A missing credential is a soft condition: startup
// continues with a warning.
package credentials

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"inferd/internal/common/fsutil"
)

// DefaultPath is where the blob is written when supplied via environment.
const DefaultPath = "/tmp/gcp_creds.json"

// Materialize resolves the credential file path for this process.
//
// If blob is non-empty it is written verbatim to dest (mode 0600) and dest is
// returned; a write error is fatal. Otherwise, if existing names a path, that
// path is used as-is. If neither is set, a warning is logged and an empty
// path is returned with a nil error.
func Materialize(log zerolog.Logger, blob, existing, dest string) (string, error) {
	if dest == "" {
		dest = DefaultPath
	}
	if blob != "" {
		log.Info().Str("path", dest).Msg("configuring cloud credentials from env JSON")
		if err := os.WriteFile(dest, []byte(blob), 0o600); err != nil {
			return "", fmt.Errorf("write credentials file: %w", err)
		}
		return dest, nil
	}
	if existing != "" {
		if !fsutil.PathExists(existing) {
			log.Warn().Str("path", existing).Msg("credentials file path is set but does not exist")
		} else {
			log.Info().Str("path", existing).Msg("using existing credentials file")
		}
		return existing, nil
	}
	log.Warn().Msg("no cloud credentials provided; artifact store access may fail")
	return "", nil
}
