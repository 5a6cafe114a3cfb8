package logs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"

	"github.com/crucial707/applog/cmd/cli/client"
	"github.com/crucial707/applog/cmd/cli/output"
	"github.com/crucial707/applog/cmd/cli/root"
	"github.com/crucial707/applog/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Logs
// ==========================
func InitLogs(rootCmd *cobra.Command) {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Write and read log entries",
	}

	logsCmd.AddCommand(writeLogsCmd(), readLogsCmd())

	rootCmd.AddCommand(logsCmd)
}

// ==========================
// WRITE
// ==========================
func writeLogsCmd() *cobra.Command {
	var secret, dict, path, data string

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a JSON object of {type: data} with an application secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("APPLOG_APP_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or APPLOG_APP_SECRET is required")
			}
			if !json.Valid([]byte(data)) {
				return fmt.Errorf("--data must be valid JSON")
			}

			q := url.Values{}
			if dict != "" {
				q.Set("name", dict)
			}
			if path != "" {
				q.Set("path", path)
			}
			endpoint := "/write"
			if len(q) > 0 {
				endpoint += "?" + q.Encode()
			}

			var stored []models.LogEntry
			err := client.Do(client.Request{
				Method: "POST",
				Path:   endpoint,
				Body:   json.RawMessage(data),
				Header: map[string]string{"X-Application-Secret": secret},
			}, &stored)
			if err != nil {
				return err
			}
			if root.JSONOutput {
				return output.PrintJSON(stored)
			}
			fmt.Printf("%d log entries written\n", len(stored))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "application secret (or APPLOG_APP_SECRET)")
	cmd.Flags().StringVar(&dict, "dict", "", "dictionary name (defaults to the application's)")
	cmd.Flags().StringVar(&path, "path", "", "path the entries relate to")
	cmd.Flags().StringVar(&data, "data", "", `JSON object, e.g. '{"login":{"user":"bob"}}'`)

	return cmd
}

// ==========================
// READ
// ==========================
func readLogsCmd() *cobra.Command {
	var dict, typ, application string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"logs": {"all"}}
			if dict != "" {
				q.Set("name", dict)
			}
			if typ != "" {
				q.Set("sort", typ)
			}
			if application != "" {
				q.Set("application", application)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			req := client.Request{Method: "GET", Path: "/read?" + q.Encode(), Auth: true}

			if dict != "" {
				var grouped map[string][]json.RawMessage
				if err := client.Do(req, &grouped); err != nil {
					return err
				}
				if root.JSONOutput {
					return output.PrintJSON(grouped)
				}
				renderGrouped(grouped)
				return nil
			}

			var entries []models.LogEntry
			if err := client.Do(req, &entries); err != nil {
				return err
			}
			if root.JSONOutput {
				return output.PrintJSON(entries)
			}
			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{e.ID, e.DictName, e.Type, e.ApplicationName, e.Timestamp.Format("2006-01-02 15:04:05"), string(e.Data)})
			}
			output.RenderTable([]string{"ID", "Dictionary", "Type", "Application", "Timestamp", "Data"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&dict, "dict", "", "group by type within this dictionary")
	cmd.Flags().StringVar(&typ, "type", "", "only this type")
	cmd.Flags().StringVar(&application, "application", "", "only this application")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (server default 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

func renderGrouped(grouped map[string][]json.RawMessage) {
	types := make([]string, 0, len(grouped))
	for t := range grouped {
		types = append(types, t)
	}
	sort.Strings(types)

	var rows [][]interface{}
	for _, t := range types {
		for _, d := range grouped[t] {
			rows = append(rows, []interface{}{t, string(d)})
		}
	}
	output.RenderTable([]string{"Type", "Data"}, rows)
}
