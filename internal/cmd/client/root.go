package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the Lifebook client.
// It registers the queue and audit command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "lifebook",
		Short: "Lifebook client commands",
	}
	root.AddCommand(NewQueueCommand(baseURL))
	root.AddCommand(NewAuditCommand(baseURL))
	return root
}
