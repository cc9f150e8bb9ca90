package tasks

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/aretw0/sapling/pkg/ports"
	"github.com/aretw0/sapling/pkg/registry"
	"github.com/aretw0/sapling/pkg/schema"
)

// Built-in executor names.
const (
	ExecutorPackageInstall = "package-install"
	ExecutorPackageLink    = "package-link"
	ExecutorRepoInit       = "repo-init"
	ExecutorRunSchematic   = "run-schematic"
	ExecutorLintFix        = "lint-fix"
)

// CommandRunner runs an external command in a working directory. It exists
// so tests can capture invocations instead of shelling out.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, out)
	}
	return nil
}

// rooted is implemented by hosts with a real directory behind them.
// Shell-out executors need one; stores without a root reject these tasks.
type rooted interface {
	Root() string
}

func hostRoot(host ports.Host) (string, error) {
	r, ok := host.(rooted)
	if !ok {
		return "", fmt.Errorf("store has no filesystem root; shell tasks need one")
	}
	return r.Root(), nil
}

func stringOption(options map[string]any, key, fallback string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// RegisterBuiltins registers the built-in task executor factories. The
// run-schematic executor is registered separately by the engine, which owns
// the nested workflow invocation.
func RegisterBuiltins(reg *registry.Registry, runner CommandRunner) {
	reg.Register(ExecutorPackageInstall, Factory(func(options map[string]any) (Executor, error) {
		return func(ctx context.Context, options map[string]any, host ports.Host) error {
			root, err := hostRoot(host)
			if err != nil {
				return err
			}
			manager := stringOption(options, "manager", "npm")
			args := []string{"install"}
			if pkg := stringOption(options, "package", ""); pkg != "" {
				args = append(args, pkg)
			}
			if quiet, _ := options["quiet"].(bool); quiet {
				args = append(args, "--quiet")
			}
			return runner.Run(ctx, root, manager, args...)
		}, nil
	}), schema.Schema{
		"manager": {Type: schema.String(), Default: "npm"},
		"package": {Type: schema.String()},
		"quiet":   {Type: schema.Bool()},
	})

	reg.Register(ExecutorPackageLink, Factory(func(options map[string]any) (Executor, error) {
		return func(ctx context.Context, options map[string]any, host ports.Host) error {
			root, err := hostRoot(host)
			if err != nil {
				return err
			}
			pkg := stringOption(options, "package", "")
			if pkg == "" {
				return fmt.Errorf("package-link: %q option is required", "package")
			}
			manager := stringOption(options, "manager", "npm")
			return runner.Run(ctx, root, manager, "link", pkg)
		}, nil
	}), schema.Schema{
		"manager": {Type: schema.String(), Default: "npm"},
		"package": {Type: schema.String(), Required: true},
	})

	reg.Register(ExecutorRepoInit, Factory(func(options map[string]any) (Executor, error) {
		return func(ctx context.Context, options map[string]any, host ports.Host) error {
			root, err := hostRoot(host)
			if err != nil {
				return err
			}
			if err := runner.Run(ctx, root, "git", "init"); err != nil {
				return err
			}
			if skip, _ := options["skipCommit"].(bool); skip {
				return nil
			}
			if err := runner.Run(ctx, root, "git", "add", "-A"); err != nil {
				return err
			}
			message := stringOption(options, "message", "initial commit")
			return runner.Run(ctx, root, "git", "commit", "-m", message)
		}, nil
	}), schema.Schema{
		"message":    {Type: schema.String(), Default: "initial commit"},
		"skipCommit": {Type: schema.Bool()},
	})

	reg.Register(ExecutorLintFix, Factory(func(options map[string]any) (Executor, error) {
		return func(ctx context.Context, options map[string]any, host ports.Host) error {
			root, err := hostRoot(host)
			if err != nil {
				return err
			}
			command := stringOption(options, "command", "gofmt")
			args := []string{"-w", "."}
			if command != "gofmt" {
				args = nil
			}
			return runner.Run(ctx, root, command, args...)
		}, nil
	}), schema.Schema{
		"command": {Type: schema.String(), Default: "gofmt"},
	})
}
