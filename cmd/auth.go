package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/paperctl/paperless"
)

var (
	loginUsername string
	loginPassword string
	loginCode     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange username and password for an API token",
	Long: `Exchange username and password for an API token and print it. Store the
token in the config file or in PAPERLESS_TOKEN. The password is read from
standard input when --password is not given.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the API token",
}

var tokenRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Replace the API token of the current user",
	Long: `Replace the API token of the current user and print the new one. The old
token stops working immediately.`,
	Args: cobra.NoArgs,
	RunE: runTokenRegenerate,
}

func init() {
	rootCmd.AddCommand(loginCmd, tokenCmd)
	tokenCmd.AddCommand(tokenRegenerateCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password")
	loginCmd.Flags().StringVar(&loginCode, "code", "", "one-time code when MFA is enabled")
	_ = loginCmd.MarkFlagRequired("username")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			return errors.New("no password given")
		}
		password = strings.TrimRight(scanner.Text(), "\r\n")
	}

	resp, err := client.Auth.Login(cmd.Context(), paperless.TokenRequest{
		Username: loginUsername,
		Password: password,
		Code:     loginCode,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
	return nil
}

func runTokenRegenerate(cmd *cobra.Command, args []string) error {
	token, err := client.Auth.RegenerateProfileToken(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to regenerate token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
