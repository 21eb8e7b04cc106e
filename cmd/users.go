package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/paperctl/paperless"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Inspect users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersGet,
}

var usersDeactivateTOTPCmd = &cobra.Command{
	Use:   "deactivate-totp <id>",
	Short: "Remove the second factor of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDeactivateTOTP,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersGetCmd, usersDeactivateTOTPCmd)
}

var userHeaders = []string{"ID", "Username", "Name", "Email", "Active", "Superuser", "MFA"}

func userRow(u paperless.User) []string {
	return []string{
		strconv.Itoa(u.ID),
		u.Username,
		u.GetDisplayName(),
		orDash(u.Email),
		strconv.FormatBool(u.IsActive),
		strconv.FormatBool(u.IsSuperuser),
		strconv.FormatBool(u.IsMFAEnabled),
	}
}

func runUsersList(cmd *cobra.Command, args []string) error {
	users, err := client.Users.ListAll(cmd.Context(), nil)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	return renderItems(cmd, users, userHeaders, userRow)
}

func runUsersGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	user, err := client.Users.Retrieve(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return renderItems(cmd, []paperless.User{*user}, userHeaders, userRow)
}

func runUsersDeactivateTOTP(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ok, err := client.Users.DeactivateTOTP(cmd.Context(), id, nil)
	if err != nil {
		return fmt.Errorf("failed to deactivate TOTP for user %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("user %d has no TOTP authenticator", id)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ TOTP deactivated for user %d\n", id)
	return nil
}
