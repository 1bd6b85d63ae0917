//go:build e2e

package e2e_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	getverBinary string
	registryURL  string
)

// crates is the registry content every script sees.
var crates = map[string]string{
	"serde":      "1.0.200",
	"tokio":      "1.38.0",
	"rand":       "0.8.5",
	"serde_json": "1.0.117",
}

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "getver-e2e-*")
	if err != nil {
		panic(err)
	}

	getverBinary = filepath.Join(tmpDir, "getver")

	//nolint:gosec // Building binary with static arguments, not user input
	cmd := exec.Command("go", "build", "-o", getverBinary, "./cmd/getver")
	cmd.Dir = ".."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic("failed to build getver binary: " + err.Error())
	}

	srv := httptest.NewServer(http.HandlerFunc(serveCrate))
	registryURL = srv.URL

	exitCode := m.Run()

	srv.Close()
	_ = os.RemoveAll(tmpDir)

	os.Exit(exitCode)
}

func serveCrate(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutPrefix(r.URL.Path, "/api/v1/crates/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if name == "broken" {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	version, ok := crates[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"detail":"Not Found"}]}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"crate":{"name":"`+name+`","max_version":"`+version+`"}}`)
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupE2E,
	})
}

func setupE2E(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("REGISTRY", registryURL)

	binDir := filepath.Dir(getverBinary)
	currentPath := env.Getenv("PATH")
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+currentPath)

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))

	return nil
}
