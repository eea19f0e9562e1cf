package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"
)

const (
	apiKeyFileName = "api_key"
	keyringService = "rimecast"
	keyringUser    = "open-meteo"

	// apiKeyEnvVar overrides both the keychain and the file.
	apiKeyEnvVar = "RIMECAST_API_KEY"
)

var (
	stdin io.Reader = os.Stdin

	clearFlag = &cli.BoolFlag{
		Name:  "clear",
		Usage: "Remove the stored API key",
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the Open-Meteo commercial API key in the OS keychain",
		Action:          cmdAuth,
		Flags: []cli.Flag{
			clearFlag,
		},
	}
)

func cmdAuth(_ context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)

	if cmd.Bool(clearFlag.Name) {
		if err := deleteAPIKey(app.HomeDir); err != nil {
			return fmt.Errorf("removing API key: %w", err)
		}
		fmt.Fprintln(stdout, "API key removed")
		return nil
	}

	fmt.Fprint(stdout, "Open-Meteo API key: ")
	key, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading user input: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key required")
	}

	if err := saveAPIKey(app.HomeDir, key); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}

	fmt.Fprintln(stdout, "API key saved")
	return nil
}

func saveAPIKey(dir, key string) error {
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return os.WriteFile(apiKeyPath(dir), []byte(key), 0600)
	}

	// the keychain copy supersedes any file copy
	os.Remove(apiKeyPath(dir))
	return nil
}

// getAPIKey returns the stored API key or an empty string when there is none,
// in which case the free endpoint is used.
func getAPIKey(dir string) string {
	if key := strings.TrimSpace(os.Getenv(apiKeyEnvVar)); key != "" {
		return key
	}

	key, err := keyring.Get(keyringService, keyringUser)
	if err == nil && key != "" {
		return key
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain unavailable", "error", err)
	}

	b, err := os.ReadFile(apiKeyPath(dir))
	if err != nil {
		return ""
	}
	key = strings.TrimSpace(string(b))

	if key != "" {
		if err := keyring.Set(keyringService, keyringUser, key); err == nil {
			slog.Info("migrated API key from file to OS keychain")
			os.Remove(apiKeyPath(dir))
		}
	}
	return key
}

func deleteAPIKey(dir string) error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain unavailable", "error", err)
	}
	if err := os.Remove(apiKeyPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func apiKeyPath(dir string) string {
	return filepath.Join(dir, apiKeyFileName)
}
