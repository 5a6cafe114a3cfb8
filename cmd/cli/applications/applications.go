package applications

import (
	"fmt"
	"net/url"

	"github.com/crucial707/applog/cmd/cli/client"
	"github.com/crucial707/applog/cmd/cli/output"
	"github.com/crucial707/applog/cmd/cli/root"
	"github.com/crucial707/applog/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Applications
// ==========================
func InitApplications(rootCmd *cobra.Command) {
	applicationsCmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Manage log-producing applications",
	}

	applicationsCmd.AddCommand(
		listApplicationsCmd(),
		createApplicationCmd(),
		deleteApplicationCmd(),
	)

	rootCmd.AddCommand(applicationsCmd)
}

func listApplicationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Applications []models.Application `json:"applications"`
			}
			if err := client.Do(client.Request{Method: "GET", Path: "/list-applications", Auth: true}, &out); err != nil {
				return err
			}
			if root.JSONOutput {
				return output.PrintJSON(out.Applications)
			}

			rows := make([][]interface{}, 0, len(out.Applications))
			for _, a := range out.Applications {
				rows = append(rows, []interface{}{a.Name, a.Organisation, a.DictionaryName, a.Secret})
			}
			output.RenderTable([]string{"Name", "Organisation", "Dictionary", "Secret"}, rows)
			return nil
		},
	}
}

func createApplicationCmd() *cobra.Command {
	var name, organisation, dictionary, owner string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an application and print its secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			payload := map[string]string{
				"applicationName":  name,
				"organisationName": organisation,
				"dictionaryName":   dictionary,
				"userName":         owner,
			}
			var app models.Application
			if err := client.Do(client.Request{Method: "POST", Path: "/create-application", Body: payload, Auth: true}, &app); err != nil {
				return err
			}
			if root.JSONOutput {
				return output.PrintJSON(app)
			}
			fmt.Printf("Application %s created.\nSecret: %s\n", app.Name, app.Secret)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "application name")
	cmd.Flags().StringVar(&organisation, "organisation", "", "organisation (defaults to the owner's)")
	cmd.Flags().StringVar(&dictionary, "dictionary", "", "default dictionary for writes")
	cmd.Flags().StringVar(&owner, "owner", "", "owning username (admin/owner only)")

	return cmd
}

func deleteApplicationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Do(client.Request{Method: "DELETE", Path: "/delete-application/" + url.PathEscape(args[0]), Auth: true}, nil); err != nil {
				return err
			}
			fmt.Println("Application deleted")
			return nil
		},
	}
}
