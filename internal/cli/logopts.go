package cli

import (
	"context"
	"errors"

	"github.com/spf13/pflag"

	"github.com/lucasnoah/github-checks/internal/checks"
)

// logOptions are the flags shared by every command that parses a tool log.
type logOptions struct {
	format         string
	repoPath       string
	ignored        []string
	included       []string
	exceptIncluded bool
	verdictOnly    bool
}

func (o *logOptions) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.format, "log-format", "", "format of the tool output (see 'github-checks formats')")
	fs.StringVar(&o.repoPath, "local-repo-path", "", "local checkout the tool ran in (env GH_LOCAL_REPO_PATH)")
	fs.StringSliceVar(&o.ignored, "ignored-globs", nil, "gitignore-style patterns whose findings are ignored")
	fs.StringSliceVar(&o.included, "included-globs", nil, "patterns that are never ignored")
	fs.BoolVar(&o.exceptIncluded, "ignore-except-included", false, "ignore everything outside --included-globs")
	fs.BoolVar(&o.verdictOnly, "ignore-verdict-only", false, "keep ignored findings as annotations but exclude them from the conclusion")
}

func (o *logOptions) parse(ctx context.Context, logPath, root string) (*checks.Output, checks.Conclusion, error) {
	if o.format == "" {
		return nil, "", errors.New("--log-format is required when a log file is given")
	}
	p, err := checks.DefaultRegistry().Lookup(o.format)
	if err != nil {
		return nil, "", err
	}
	return p.Parse(ctx, logPath, checks.Options{
		RepoRoot:          root,
		IgnoredGlobs:      checks.ComputeIgnoredGlobs(o.ignored, o.included, o.exceptIncluded),
		IgnoreVerdictOnly: o.verdictOnly,
	})
}
