package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewAuditCommand constructs the `audit` command group and subcommands.
func NewAuditCommand(baseURL BaseURLFunc) *cobra.Command {
	auditCmd := &cobra.Command{Use: "audit", Short: "Audit trail operations"}
	auditCmd.AddCommand(
		newAuditLogCommand(baseURL),
		newAuditListCommand(baseURL),
		newAuditExportCommand(baseURL),
	)
	return auditCmd
}

func newAuditLogCommand(baseURL BaseURLFunc) *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Record an audit event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			action, _ := cmd.Flags().GetString("action")
			resource, _ := cmd.Flags().GetString("resource")
			risk, _ := cmd.Flags().GetString("risk")
			details, _ := cmd.Flags().GetString("details")
			req := map[string]any{
				"user_id":  user,
				"action":   action,
				"resource": resource,
				"risk":     risk,
			}
			if details != "" {
				var d map[string]interface{}
				if err := json.Unmarshal([]byte(details), &d); err != nil {
					return fmt.Errorf("--details must be a JSON object: %w", err)
				}
				req["details"] = d
			}
			b, _ := json.Marshal(req)
			resp, err := http.Post(baseURL()+"/v1/audit/log", "application/json", bytes.NewReader(b))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)
			if resp.StatusCode != http.StatusAccepted {
				return fmt.Errorf("audit log failed: %s", resp.Status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "recorded")
			return nil
		},
	}
	logCmd.Flags().String("user", "", "Acting user id")
	logCmd.Flags().String("action", "", "Action name, e.g. record.read")
	logCmd.Flags().String("resource", "", "Resource identifier")
	logCmd.Flags().String("risk", "low", "Risk level: low|medium|high")
	logCmd.Flags().String("details", "", "Extra details as a JSON object")
	return logCmd
}

// auditQueryValues maps shared list/export flags onto URL query parameters.
// Time bounds accept epoch ms or RFC3339.
func auditQueryValues(cmd *cobra.Command) (url.Values, error) {
	v := url.Values{}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		v.Set("user_id", user)
	}
	if filter, _ := cmd.Flags().GetString("filter"); filter != "" {
		v.Set("filter", filter)
	}
	for _, bound := range []struct{ flag, param string }{{"start", "start_ms"}, {"end", "end_ms"}} {
		raw, _ := cmd.Flags().GetString(bound.flag)
		if raw == "" {
			continue
		}
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			v.Set(bound.param, strconv.FormatInt(ms, 10))
		} else if t, err := time.Parse(time.RFC3339, raw); err == nil {
			v.Set(bound.param, strconv.FormatInt(t.UnixMilli(), 10))
		} else {
			return nil, fmt.Errorf("invalid --%s; expected ms or RFC3339", bound.flag)
		}
	}
	return v, nil
}

func newAuditListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := auditQueryValues(cmd)
			if err != nil {
				return err
			}
			resp, err := http.Get(baseURL() + "/v1/audit/logs?" + v.Encode())
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("audit list failed: %s %s", resp.Status, string(out))
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	addAuditQueryFlags(listCmd)
	return listCmd
}

func newAuditExportCommand(baseURL BaseURLFunc) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export audit entries as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := auditQueryValues(cmd)
			if err != nil {
				return err
			}
			resp, err := http.Get(baseURL() + "/v1/audit/export?" + v.Encode())
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("audit export failed: %s %s", resp.Status, string(out))
			}
			if path, _ := cmd.Flags().GetString("out"); path != "" {
				if err := os.WriteFile(path, out, 0644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	addAuditQueryFlags(exportCmd)
	exportCmd.Flags().String("out", "", "Write the export to a file instead of stdout")
	return exportCmd
}

func addAuditQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "Filter by user id")
	cmd.Flags().String("start", "", "Inclusive lower time bound (ms or RFC3339)")
	cmd.Flags().String("end", "", "Inclusive upper time bound (ms or RFC3339)")
	cmd.Flags().String("filter", "", "CEL expression over user, action, resource, risk, ts_ms, details")
}
