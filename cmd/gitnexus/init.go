package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitnexus/gitnexus/internal/daemon/config"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var githubToken string
	var geminiKey string
	var dataDir string
	var httpAddr string
	var httpToken string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the GitNexus config file",
		Run: func(cmd *cobra.Command, args []string) {
			if cfg, err := config.Load(config.DefaultConfigPath); err == nil {
				fmt.Println("GitNexus already initialized")
				fmt.Printf("Config Path: %s\n", green(cfg.Path))
				fmt.Printf("Data Dir:    %s\n", cyan(cfg.DataDir))
				fmt.Printf("HTTP Addr:   %s\n", cyan(cfg.HTTPAddr))
				os.Exit(0)
			}

			if githubToken == "" {
				fmt.Printf("%s: %s\n", red("ERROR"), "github token is required")
				os.Exit(1)
			}

			cfg := &config.Config{
				DataDir:      dataDir,
				GithubToken:  githubToken,
				GeminiAPIKey: geminiKey,
				HTTPAddr:     httpAddr,
				HTTPToken:    httpToken,
			}

			if err := cfg.Save(config.DefaultConfigPath); err != nil {
				fmt.Printf("%s: %s\n", red("ERROR"), err)
				os.Exit(1)
			}

			fmt.Println("GitNexus initialized")
			fmt.Printf("Config Path: %s\n", green(config.DefaultConfigPath))
			fmt.Printf("Data Dir:    %s\n", cyan(cfg.DataDir))
			fmt.Printf("HTTP Addr:   %s\n", cyan(cfg.HTTPAddr))
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&githubToken, "token", "t", "", "GitHub personal access token")
	cmd.Flags().StringVarP(&geminiKey, "gemini-key", "g", "", "Gemini API key (optional, enables chat)")
	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", config.DefaultDataDir, "data directory")
	cmd.Flags().StringVarP(&httpAddr, "addr", "a", config.DefaultHTTPAddr, "control plane bind address")
	cmd.Flags().StringVar(&httpToken, "http-token", "", "control plane auth token (optional)")

	return cmd
}
