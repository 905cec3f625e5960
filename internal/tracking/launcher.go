// Package tracking validates the configuration for the model-registry
// tracking server and exec-replaces the process with it. Validation is
// fail-fast: the first missing value terminates startup, and error messages
// name only the offending variable.
package tracking

import (
	"fmt"
	"net/url"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog"

	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/internal/launch"
)

// Bind address for the tracking server: loopback only, fixed port.
const (
	BindHost = "127.0.0.1"
	BindPort = "5000"
)

// requiredVar pairs an environment variable name with its resolved value.
type requiredVar struct {
	name  string
	value string
}

func requiredVars(cfg config.Config) []requiredVar {
	return []requiredVar{
		{"POSTGRES_USER", cfg.PGUser},
		{"POSTGRES_PASSWORD", cfg.PGPassword},
		{"POSTGRES_HOST", cfg.PGHost},
		{"POSTGRES_PORT", cfg.PGPort},
		{"POSTGRES_DB", cfg.PGDatabase},
		{"ARTIFACT_ROOT", cfg.ArtifactRoot},
		{"GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile},
	}
}

// Validate checks the required values in order, first missing wins. After
// that, the credential file must exist on disk (distinct error).
func Validate(cfg config.Config) error {
	for _, v := range requiredVars(cfg) {
		if v.value == "" {
			return fmt.Errorf("required variable %s is not set", v.name)
		}
	}
	if !fsutil.PathExists(cfg.CredentialsFile) {
		return fmt.Errorf("credentials file %s does not exist", cfg.CredentialsFile)
	}
	return nil
}

// BackendURI builds the backend store connection string with TLS required,
// and runs it through pgconn so a malformed DSN fails before exec.
func BackendURI(cfg config.Config) (string, error) {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(cfg.PGUser, cfg.PGPassword),
		Host:     cfg.PGHost + ":" + cfg.PGPort,
		Path:     "/" + cfg.PGDatabase,
		RawQuery: "sslmode=require",
	}
	uri := u.String()
	if _, err := pgconn.ParseConfig(uri); err != nil {
		return "", fmt.Errorf("invalid backend store URI: %w", err)
	}
	return uri, nil
}

// Argv is the tracking server command line.
func Argv(backendURI, artifactRoot string) []string {
	return []string{
		"mlflow", "server",
		"--backend-store-uri", backendURI,
		"--default-artifact-root", artifactRoot,
		"--host", BindHost,
		"--port", BindPort,
	}
}

// Launch validates, builds the command, and exec-replaces the process.
// It returns only on error.
func Launch(log zerolog.Logger, cfg config.Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	uri, err := BackendURI(cfg)
	if err != nil {
		return err
	}
	log.Info().
		Str("host", cfg.PGHost).
		Str("database", cfg.PGDatabase).
		Str("artifact_root", cfg.ArtifactRoot).
		Msg("starting tracking server")
	return launch.Replace(Argv(uri, cfg.ArtifactRoot), nil)
}
