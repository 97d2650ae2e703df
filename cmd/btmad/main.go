package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"btmad/internal/app"
	"btmad/internal/auth"
	"btmad/internal/config"
	"btmad/internal/mad"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a MadApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddRecipe", "Login").
func newApp(operation string) (*app.MadApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewMadApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// startApp creates a MadApp and loads the stored data.
func startApp(ctx context.Context, operation string) (*app.MadApp, error) {
	a, err := newApp(operation)
	if err != nil {
		return nil, err
	}
	if _, err := a.Start(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("loading data: %w", err)
	}
	return a, nil
}

// saved turns a failed write-through into a notice. The change is kept in
// memory for this run only.
func saved(err error) error {
	if errors.Is(err, mad.ErrSave) {
		fmt.Fprintf(os.Stderr, "warning: change applied but not saved: %v\n", err)
		return nil
	}
	return err
}

var rootCmd = &cobra.Command{
	Use:          "btmad",
	Short:        "Shared recipe collection",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		cfg.Local.Path = defaults["local_path"]
		cfg.Store.Type = defaults["store"]
		if cmd.Flags().Changed("store") {
			cfg.Store.Type, _ = cmd.Flags().GetString("store")
		}
		cfg.Store.FSRoot, _ = cmd.Flags().GetString("fs-root")
		cfg.Store.S3Bucket, _ = cmd.Flags().GetString("s3-bucket")

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Store:    %s\n", cfg.Store.Type)
		if cfg.Store.Type == "drive" {
			fmt.Println("Next: btmad config credentials && btmad login")
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Local DB:   %s\n", cfg.Local.Path)
		fmt.Printf("Store:      %s\n", cfg.Store.Type)
		if cfg.Store.DocumentName != "" {
			fmt.Printf("Document:   %s\n", cfg.Store.DocumentName)
		}
		switch cfg.Store.Type {
		case "s3":
			fmt.Printf("S3 Bucket:  %s\n", cfg.Store.S3Bucket)
			fmt.Printf("S3 Prefix:  %s\n", cfg.Store.S3Prefix)
		case "filesystem":
			fmt.Printf("FS Root:    %s\n", cfg.Store.FSRoot)
		}
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)

		a, err := app.NewMadApp(cfg, "ListConfig")
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		creds, err := a.Credentials()
		if err != nil && !errors.Is(err, mad.ErrNotConfigured) {
			return err
		}
		fmt.Printf("API Key:    %s\n", mask(creds.APIKey))
		fmt.Printf("Client ID:  %s\n", mask(creds.ClientID))
		if cfg.Store.Type == "drive" && creds.Configured() {
			status, err := a.SessionStatus(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Session:    %s\n", status)
		}
		return nil
	},
}

var configCredentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Store the API key and OAuth client locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetCredentials")
		if err != nil {
			return err
		}
		defer a.Close()

		if remove, _ := cmd.Flags().GetBool("clear"); remove {
			if err := a.ClearCredentials(); err != nil {
				return err
			}
			fmt.Println("Credentials removed.")
			return nil
		}

		in := bufio.NewReader(os.Stdin)
		var c auth.Credentials
		if c.APIKey, err = readSecret(in, "API key: "); err != nil {
			return err
		}
		if c.ClientID, err = readLine(in, "Client ID: "); err != nil {
			return err
		}
		if c.ClientSecret, err = readSecret(in, "Client secret (optional): "); err != nil {
			return err
		}
		if !c.Configured() {
			return fmt.Errorf("API key and client ID are required")
		}

		if err := a.SetCredentials(c); err != nil {
			return fmt.Errorf("storing credentials: %w", err)
		}
		fmt.Println("Credentials stored.")
		return nil
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear stored credentials and local data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Reset")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Reset(); err != nil {
			return err
		}
		fmt.Println("Local storage cleared.")

		if removeConfig, _ := cmd.Flags().GetBool("config"); removeConfig {
			defaults, err := app.GetDefaults()
			if err != nil {
				return fmt.Errorf("getting defaults: %w", err)
			}
			if err := config.Remove(defaults["config_path"]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", defaults["config_path"])
		}
		return nil
	},
}

// login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Login")
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.Login(cmd.Context(), func(verificationURL, userCode string) {
			fmt.Printf("Visit %s and enter code %s\n", verificationURL, userCode)
			fmt.Println("Waiting for approval...")
		})
		if err != nil {
			return fmt.Errorf("sign-in failed, check credentials: %w", err)
		}
		fmt.Println("Signed in.")
		return nil
	},
}

// logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and revoke the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("sign-out: %w", err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}

func readLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads without echo when stdin is a terminal.
func readSecret(in *bufio.Reader, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(in, prompt)
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func mask(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 4:
		return "****"
	default:
		return s[:4] + strings.Repeat("*", len(s)-4)
	}
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("store", "", "Store type: local, memory, drive, s3 or filesystem (default $BTMAD_STORE, else local)")
	configInitCmd.Flags().String("fs-root", "", "Directory for the filesystem store")
	configInitCmd.Flags().String("s3-bucket", "", "Bucket for the s3 store")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCredentialsCmd)
	configCredentialsCmd.Flags().Bool("clear", false, "Remove stored credentials")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("config", false, "Also remove the config file")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	addDataCommands()
}
