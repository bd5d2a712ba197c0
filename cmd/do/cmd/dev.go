package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the API under air, reloading on Go and migration changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8090", "port the API listens on")
	return cmd
}

func runDev(port string) error {
	airPath, err := exec.LookPath("air")
	if err != nil {
		fmt.Println("Missing binary: air")
		fmt.Println("Install with:")
		fmt.Println("  go install github.com/air-verse/air@latest")
		return fmt.Errorf("air not found")
	}

	fmt.Println("Building bin/do...")
	build := exec.Command("go", "build", "-o", "bin/do", "./cmd/do")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		return fmt.Errorf("failed to build do: %w", err)
	}

	// The default sqlite database lives in ./data.
	if err := os.MkdirAll("data", 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	dotenv, err := godotenv.Read()
	if err != nil {
		dotenv = map[string]string{}
	}

	return syscall.Exec(airPath, airArgs(), devEnv(os.Environ(), dotenv, port))
}

// airArgs rebuilds cmd/server on any .go or .sql change. Migrations are
// embedded, so editing one restarts the server and applies it.
func airArgs() []string {
	return []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "go build -o ./tmp/main ./cmd/server",
		"-build.bin", "./tmp/main",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,tmp,data,_examples",
		"-build.exclude_regex", "_test.go$",
		"-build.include_dir", "cmd,internal",
		"-build.include_ext", "go,sql",
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
	}
}

// devEnv fills in what the server requires to boot locally. Values from the
// environment or .env win over these defaults.
func devEnv(environ []string, dotenv map[string]string, port string) []string {
	set := make(map[string]bool, len(environ)+len(dotenv))
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		set[key] = true
	}
	for key := range dotenv {
		set[key] = true
	}

	// The flag always decides the port.
	env := slices.DeleteFunc(slices.Clone(environ), func(kv string) bool {
		return strings.HasPrefix(kv, "PORT=")
	})
	defaults := [][2]string{
		{"APP_ENV", "development"},
		{"APP_URL", "http://localhost:" + port},
		{"JWT_SECRET", "dev-only-secret"},
	}
	for _, d := range defaults {
		if !set[d[0]] {
			env = append(env, d[0]+"="+d[1])
		}
	}

	return append(env, "PORT="+port)
}
