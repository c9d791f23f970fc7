package main

import (
	"encoding/json"
	"fmt"

	"timer-sync-server/internal/config"
	"timer-sync-server/internal/repository"
	"timer-sync-server/internal/service"

	"github.com/spf13/cobra"
)

type inspectResult struct {
	Backend   string          `json:"backend"`
	Empty     bool            `json:"empty"`
	Richness  int             `json:"richness"`
	UpdatedAt int64           `json:"updatedAt"`
	Digest    string          `json:"digest,omitempty"`
	Document  json.RawMessage `json:"document,omitempty"`
}

func newInspectCommand() *cobra.Command {
	var showDocument bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the stored document's richness and timestamp",
		Long: `Reads the configured store without starting the server and prints what a
sync request would be compared against. A missing or unreadable document
is reported as empty, exactly as the server treats it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeCfg, err := config.LoadStore()
			if err != nil {
				return err
			}

			repo, closeRepo, err := repository.Open(cmd.Context(), *storeCfg)
			if err != nil {
				return fmt.Errorf("failed to open %s store: %w", storeCfg.Backend, err)
			}
			defer closeRepo()

			doc, err := repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			res := inspectResult{Backend: storeCfg.Backend, Empty: doc == nil}
			if doc != nil {
				res.Richness = service.Richness(doc)
				res.UpdatedAt = doc.UpdatedAt()
				res.Digest = doc.Digest()
				if showDocument {
					res.Document = doc.Raw()
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().BoolVar(&showDocument, "document", false, "include the full stored document")
	return cmd
}
