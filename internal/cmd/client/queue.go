// Package client contains Cobra CLI commands for Lifebook.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Offline write queue operations"}
	queueCmd.AddCommand(
		newQueueAddCommand(baseURL),
		newQueuePendingCommand(baseURL),
		newQueueFlushCommand(baseURL),
	)
	return queueCmd
}

func newQueueAddCommand(baseURL BaseURLFunc) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Enqueue a mutation for later sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			record, _ := cmd.Flags().GetString("record")
			body, _ := cmd.Flags().GetString("body")
			req := map[string]any{"kind": kind, "record": record}
			if body != "" {
				if !json.Valid([]byte(body)) {
					return fmt.Errorf("--body must be valid JSON")
				}
				req["body"] = json.RawMessage(body)
			}
			b, _ := json.Marshal(req)
			resp, err := http.Post(baseURL()+"/v1/queue/enqueue", "application/json", bytes.NewReader(b))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusAccepted {
				return fmt.Errorf("enqueue failed: %s %s", resp.Status, string(out))
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	addCmd.Flags().String("kind", "", "Mutation kind: create|update|delete")
	addCmd.Flags().String("record", "", "Record identifier")
	addCmd.Flags().String("body", "", "Mutation body as JSON")
	_ = addCmd.MarkFlagRequired("kind")
	return addCmd
}

func newQueuePendingCommand(baseURL BaseURLFunc) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Show mutations awaiting sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, _ := cmd.Flags().GetBool("items")
			url := baseURL() + "/v1/queue/pending"
			if items {
				url += "?items=true"
			}
			resp, err := http.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("pending failed: %s %s", resp.Status, string(out))
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	pendingCmd.Flags().Bool("items", false, "Include the pending mutations, not just the count")
	return pendingCmd
}

func newQueueFlushCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Trigger a sync flush now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := http.Post(baseURL()+"/v1/queue/flush", "application/json", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			switch resp.StatusCode {
			case http.StatusOK:
				fmt.Fprint(cmd.OutOrStdout(), string(out))
				return nil
			case http.StatusConflict:
				return fmt.Errorf("flush unavailable: offline or already in progress")
			default:
				return fmt.Errorf("flush failed: %s %s", resp.Status, string(out))
			}
		},
	}
}
