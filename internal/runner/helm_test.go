package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func testRunner(binary string) *HelmRunner {
	logger, _ := zap.NewDevelopment()
	return NewHelmRunner(binary, "charts", "local", 30*time.Second, logger)
}

func TestChartLayout(t *testing.T) {
	r := testRunner("helm")

	chart := r.ChartFor(domain.EngineWooCommerce)
	if chart != filepath.Join("charts", "woocommerce") {
		t.Errorf("chart = %q", chart)
	}

	files := r.ValuesFilesFor(chart)
	if len(files) != 2 {
		t.Fatalf("values files = %v", files)
	}
	if !strings.HasSuffix(files[0], "values.yaml") || !strings.HasSuffix(files[1], "values-local.yaml") {
		t.Errorf("values files = %v", files)
	}
}

func TestBuildArgsInstall(t *testing.T) {
	r := testRunner("helm")

	args, cleanup, err := r.buildArgs(domain.RunRequest{
		Command:   domain.CommandInstall,
		Release:   "myshop",
		Namespace: "store-myshop",
		Engine:    domain.EngineWooCommerce,
		ValueOverrides: map[string]string{
			"ingress.host": "myshop.local",
		},
	})
	if err != nil {
		t.Fatalf("buildArgs: %v", err)
	}
	defer cleanup()

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"install myshop",
		"--namespace store-myshop",
		filepath.Join("charts", "woocommerce"),
		"values-local.yaml",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	// The rendered overrides file is passed last so it wins.
	overridesPath := args[len(args)-1]
	data, err := os.ReadFile(overridesPath)
	if err != nil {
		t.Fatalf("read overrides file: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("overrides not valid yaml: %v", err)
	}
	ingress, _ := doc["ingress"].(map[string]any)
	if ingress["host"] != "myshop.local" {
		t.Errorf("overrides = %v", doc)
	}

	cleanup()
	if _, err := os.Stat(overridesPath); !os.IsNotExist(err) {
		t.Errorf("cleanup should remove the overrides file")
	}
}

func TestBuildArgsUninstall(t *testing.T) {
	r := testRunner("helm")

	args, cleanup, err := r.buildArgs(domain.RunRequest{
		Command:   domain.CommandUninstall,
		Release:   "myshop",
		Namespace: "store-myshop",
	})
	if err != nil {
		t.Fatalf("buildArgs: %v", err)
	}
	defer cleanup()

	want := []string{"uninstall", "myshop", "--namespace", "store-myshop"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args = %v, want %v", args, want)
		}
	}
}

func TestBuildArgsUnsupportedCommand(t *testing.T) {
	r := testRunner("helm")
	if _, _, err := r.buildArgs(domain.RunRequest{Command: "upgrade"}); err == nil {
		t.Fatal("expected error for unsupported command")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	r := testRunner("echo")

	res, err := r.Run(context.Background(), domain.RunRequest{
		Command:   domain.CommandUninstall,
		Release:   "myshop",
		Namespace: "store-myshop",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "uninstall myshop") {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRunNonZeroExitIsResultNotError(t *testing.T) {
	r := testRunner("false")

	res, err := r.Run(context.Background(), domain.RunRequest{
		Command:   domain.CommandUninstall,
		Release:   "myshop",
		Namespace: "store-myshop",
	})
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if res.ExitCode == 0 {
		t.Errorf("exit code = %d, want non-zero", res.ExitCode)
	}
}

func TestRunMissingBinary(t *testing.T) {
	r := testRunner("definitely-not-a-real-binary")

	if _, err := r.Run(context.Background(), domain.RunRequest{
		Command:   domain.CommandUninstall,
		Release:   "myshop",
		Namespace: "store-myshop",
	}); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
