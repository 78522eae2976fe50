package commands

import (
	"context"
	"fmt"
	"os"

	"ao3kit/lib/ao3"
	"ao3kit/lib/configutil"
	"ao3kit/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ao3",
	Short: "ao3 is a CLI for browsing and searching the Archive of Our Own.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var loginFlag *bool

func init() {
	loginFlag = rootCmd.PersistentFlags().Bool("login", false, "Log in with the credentials from ao3.json5 before running the command.")
}

// createClient builds the shared client, logging in first when --login
// is set. Credentials come from ao3.json5 (plus ao3.local.json5).
func createClient(ctx context.Context) *ao3.Client {
	client, err := ao3.NewClient(ao3.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}

	if *loginFlag {
		cfg, err := configutil.ReadConfig[Config]("ao3.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
			serviceutil.Fatal("failed to log in", err)
		}
	}

	return client
}
