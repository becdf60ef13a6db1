package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/fivetwenty-io/blocks-sdk/pkg/identity"
	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
	"github.com/spf13/cobra"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage users of the identity block",
	}

	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersGetCommand())

	return cmd
}

func newUsersListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := identityService()
			if err != nil {
				return err
			}
			defer cleanup()

			if flags.all {
				users, err := service.ListAllUsers(cmd.Context(), flags.params(), flags.fetchAllOptions())
				if err != nil {
					return fmt.Errorf("failed to list users: %w", err)
				}

				return render(cmd, users, func(out io.Writer) error {
					return renderUsersTable(out, users)
				})
			}

			page, err := service.ListUsers(cmd.Context(), flags.params())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			return render(cmd, page, func(out io.Writer) error {
				if err := renderUsersTable(out, page.Data); err != nil {
					return err
				}

				if len(page.Data) > 0 {
					pageFooter(out, page.Meta)
				}

				return nil
			})
		},
	}

	flags.bind(cmd)

	return cmd
}

func newUsersGetCommand() *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := identityService()
			if err != nil {
				return err
			}
			defer cleanup()

			var params *blocks.QueryParams
			if len(include) > 0 {
				params = blocks.NewQueryParams().WithInclude(include...)
			}

			user, err := service.GetUser(cmd.Context(), args[0], params)
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			return render(cmd, user, func(out io.Writer) error {
				return renderUserDetails(out, user)
			})
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", []string{"role"}, "relationships to include")
	addJQFlag(cmd)

	return cmd
}

func identityService() (*identity.Service, func(), error) {
	client, cleanup, err := newBlocksClient(loadConfig())
	if err != nil {
		return nil, nil, err
	}

	service, err := client.Identity()
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	return service, cleanup, nil
}

func renderUsersTable(out io.Writer, users []identity.User) error {
	if len(users) == 0 {
		_, _ = fmt.Fprintln(out, "No users found")

		return nil
	}

	table := newTable(out, "ID", "Email", "Name", "Status", "Role")

	for _, user := range users {
		_ = table.Append([]string{user.ID, user.Email, user.FullName(), string(user.Status), relatedName(user.Role)})
	}

	return renderTable(table)
}

func renderUserDetails(out io.Writer, user *identity.User) error {
	table := newTable(out, "Property", "Value")

	_ = table.Append([]string{"ID", user.ID})
	_ = table.Append([]string{"Email", user.Email})
	_ = table.Append([]string{"Username", user.Username})
	_ = table.Append([]string{"Name", user.FullName()})
	_ = table.Append([]string{"Status", string(user.Status)})
	_ = table.Append([]string{"Email Verified", fmt.Sprint(user.EmailVerified)})
	_ = table.Append([]string{"Role", relatedName(user.Role)})

	if groups, ok := user.Groups.Get(); ok {
		names := make([]string, 0, len(groups))
		for _, group := range groups {
			names = append(names, group.Name)
		}

		_ = table.Append([]string{"Groups", strings.Join(names, ", ")})
	}

	if user.CreatedAt != nil {
		_ = table.Append([]string{"Created", user.CreatedAt.Format("2006-01-02 15:04:05")})
	}

	if user.LastLoginAt != nil {
		_ = table.Append([]string{"Last Login", user.LastLoginAt.Format("2006-01-02 15:04:05")})
	}

	return renderTable(table)
}

func relatedName(role jsonapi.Related[identity.Role]) string {
	switch role.State() {
	case jsonapi.RelationResolved:
		return role.Value().Name
	case jsonapi.RelationNull:
		return "none"
	case jsonapi.RelationMissing:
		return NotAvailable
	default:
		return ""
	}
}
