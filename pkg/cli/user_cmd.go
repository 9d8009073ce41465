package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage application users",
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserGrantRoleCmd())
	return cmd
}

type userOutput struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserCreateCmd() *cobra.Command {
	var req domain.CreateUserRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.users.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := userOutput{
				ID: u.ID, Username: u.Username, Email: u.Email,
				DisplayName: u.DisplayName, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt,
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), out)
			}
			return printTable(cmd.OutOrStdout(),
				[]string{"ID", "USERNAME", "DISPLAY NAME", "ADMIN"},
				[][]string{{out.ID, out.Username, out.DisplayName, strconv.FormatBool(out.IsAdmin)}})
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "Unique login name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "Name shown next to the user's queries")
	cmd.Flags().BoolVar(&req.IsAdmin, "admin", false, "Grant every permission")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newUserGrantRoleCmd() *cobra.Command {
	var username, role string
	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Bind a role to a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.users.GrantRole(cmd.Context(), username, role); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"user": username, "role": role})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "granted role %s to %s\n", role, username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Username (required)")
	cmd.Flags().StringVar(&role, "role", "", "Role name (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
