package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Env is the environment-provided configuration. CLI flags override it.
type Env struct {
	AppID         int64  `env:"GH_APP_ID"`
	AppInstallID  int64  `env:"GH_APP_INSTALL_ID"`
	PrivateKeyPEM string `env:"GH_PRIVATE_KEY_PEM"`
	RepoBaseURL   string `env:"GH_REPO_BASE_URL"`
	CheckRevision string `env:"GH_CHECK_REVISION"`
	CheckName     string `env:"GH_CHECK_NAME"`
	LocalRepoPath string `env:"GH_LOCAL_REPO_PATH"`
	SessionFile   string `env:"GH_CHECKS_SESSION_FILE"`
	DatabaseURL   string `env:"GH_CHECKS_DATABASE_URL"`
}

// LoadEnv reads Env from the process environment. A non-empty dotenvPath is
// consulted as a fallback: variables already set in the environment win over
// the file, and a missing file is not an error. The process environment is
// never modified.
func LoadEnv(ctx context.Context, dotenvPath string) (*Env, error) {
	l := envconfig.OsLookuper()
	if dotenvPath != "" {
		vars, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read dotenv file %s: %w", dotenvPath, err)
		}
		if len(vars) > 0 {
			l = envconfig.MultiLookuper(l, envconfig.MapLookuper(vars))
		}
	}
	return LoadEnvFrom(ctx, l)
}

// LoadEnvFrom reads Env through an explicit lookuper.
func LoadEnvFrom(ctx context.Context, l envconfig.Lookuper) (*Env, error) {
	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &env, nil
}
