package dictionaries

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/crucial707/applog/cmd/cli/client"
	"github.com/crucial707/applog/cmd/cli/output"
	"github.com/crucial707/applog/cmd/cli/root"
	"github.com/crucial707/applog/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Dictionaries
// ==========================
func InitDictionaries(rootCmd *cobra.Command) {
	dictionariesCmd := &cobra.Command{
		Use:     "dictionaries",
		Aliases: []string{"dict"},
		Short:   "Manage dictionaries of permitted log types",
	}

	dictionariesCmd.AddCommand(
		listDictionariesCmd(),
		showDictionaryCmd(),
		createDictionaryCmd(),
		deleteDictionaryCmd(),
	)

	rootCmd.AddCommand(dictionariesCmd)
}

// ==========================
// LIST
// ==========================
func listDictionariesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dictionaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Dictionaries []models.Dictionary `json:"dictionaries"`
			}
			if err := client.Do(client.Request{Method: "GET", Path: "/list-dictionaries", Auth: true}, &out); err != nil {
				return err
			}
			if root.JSONOutput {
				return output.PrintJSON(out.Dictionaries)
			}

			rows := make([][]interface{}, 0, len(out.Dictionaries))
			for _, d := range out.Dictionaries {
				rows = append(rows, []interface{}{d.Name, strings.Join(d.Data.Types(), ", "), d.UpdatedOn.Format("2006-01-02 15:04")})
			}
			output.RenderTable([]string{"Name", "Types", "Updated"}, rows)
			return nil
		},
	}
}

// ==========================
// SHOW
// ==========================
func showDictionaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a dictionary's types and fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d models.Dictionary
			if err := client.Do(client.Request{Method: "GET", Path: "/dictionary/" + url.PathEscape(args[0]), Auth: true}, &d); err != nil {
				return err
			}
			if root.JSONOutput {
				return output.PrintJSON(d)
			}

			rows := make([][]interface{}, 0, len(d.Data))
			for _, typ := range d.Data.Types() {
				rows = append(rows, []interface{}{typ, strings.Join(d.Data[typ], ", ")})
			}
			output.RenderTable([]string{"Type", "Fields"}, rows)
			return nil
		},
	}
}

// ==========================
// CREATE
// ==========================
func createDictionaryCmd() *cobra.Command {
	var name string
	var types []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a dictionary from a list of types",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || len(types) == 0 {
				return fmt.Errorf("--name and --types are required")
			}
			var d models.Dictionary
			payload := map[string]interface{}{"name": name, "actions": types}
			if err := client.Do(client.Request{Method: "POST", Path: "/create-dictionary", Body: payload, Auth: true}, &d); err != nil {
				return err
			}
			fmt.Printf("Dictionary %s created with types: %s\n", d.Name, strings.Join(d.Data.Types(), ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "dictionary name")
	cmd.Flags().StringSliceVar(&types, "types", nil, "comma-separated permitted types")

	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteDictionaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a dictionary (logs are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Do(client.Request{Method: "DELETE", Path: "/delete-dictionary/" + url.PathEscape(args[0]), Auth: true}, nil); err != nil {
				return err
			}
			fmt.Println("Dictionary deleted")
			return nil
		},
	}
}
