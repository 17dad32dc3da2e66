package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// HelmRunner implements domain.DeploymentRunner by invoking the helm binary
// as a blocking subprocess. Every invocation is fully parameterized; the
// runner holds no per-store state and is safe for concurrent use.
//
// The timeout is a hardening addition: the behavior this replaces waited on
// the subprocess indefinitely.
type HelmRunner struct {
	binary   string
	chartDir string
	env      string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewHelmRunner(binary, chartDir, env string, timeout time.Duration, logger *zap.Logger) *HelmRunner {
	return &HelmRunner{
		binary:   binary,
		chartDir: chartDir,
		env:      env,
		timeout:  timeout,
		logger:   logger,
	}
}

// ChartFor returns the chart path for an engine, e.g. charts/woocommerce.
func (r *HelmRunner) ChartFor(engine domain.Engine) string {
	return filepath.Join(r.chartDir, string(engine))
}

// ValuesFilesFor returns the base and environment values files for a chart.
func (r *HelmRunner) ValuesFilesFor(chart string) []string {
	return []string{
		filepath.Join(chart, "values.yaml"),
		filepath.Join(chart, fmt.Sprintf("values-%s.yaml", r.env)),
	}
}

// Run executes one helm invocation and blocks until the process exits or the
// timeout fires. A non-zero exit is returned in the result, not as an error;
// errors are reserved for failures to run the process at all.
func (r *HelmRunner) Run(ctx context.Context, req domain.RunRequest) (*domain.RunResult, error) {
	args, cleanup, err := r.buildArgs(req)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("running helm",
		zap.String("command", string(req.Command)),
		zap.String("release", req.Release),
		zap.String("namespace", req.Namespace))

	runErr := cmd.Run()
	result := &domain.RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("helm %s for release %q timed out after %s", req.Command, req.Release, r.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("run helm %s: %w", req.Command, runErr)
	}

	if result.Stderr != "" {
		r.logger.Warn("helm stderr on successful exit",
			zap.String("release", req.Release),
			zap.String("stderr", strings.TrimSpace(result.Stderr)))
	}
	return result, nil
}

// buildArgs assembles the helm argv. Value overrides are rendered to a
// temporary values file passed last so they win over the chart defaults;
// cleanup removes it after the run.
func (r *HelmRunner) buildArgs(req domain.RunRequest) ([]string, func(), error) {
	cleanup := func() {}

	switch req.Command {
	case domain.CommandInstall:
		chart := r.ChartFor(req.Engine)
		args := []string{"install", req.Release, chart, "--namespace", req.Namespace}
		for _, f := range r.ValuesFilesFor(chart) {
			args = append(args, "-f", f)
		}
		if len(req.ValueOverrides) > 0 {
			path, err := writeOverridesFile(req.Release, req.ValueOverrides)
			if err != nil {
				return nil, cleanup, err
			}
			cleanup = func() { _ = os.Remove(path) }
			args = append(args, "-f", path)
		}
		return args, cleanup, nil

	case domain.CommandUninstall:
		return []string{"uninstall", req.Release, "--namespace", req.Namespace}, cleanup, nil

	default:
		return nil, cleanup, fmt.Errorf("unsupported helm command %q", req.Command)
	}
}

// writeOverridesFile renders dotted override keys ("ingress.host") into a
// nested YAML document and writes it to a temp file.
func writeOverridesFile(release string, overrides map[string]string) (string, error) {
	doc := make(map[string]any)
	for key, value := range overrides {
		node := doc
		parts := strings.Split(key, ".")
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("render value overrides: %w", err)
	}

	f, err := os.CreateTemp("", fmt.Sprintf("shopkube-%s-values-*.yaml", release))
	if err != nil {
		return "", fmt.Errorf("create overrides file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write overrides file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close overrides file: %w", err)
	}
	return f.Name(), nil
}
