package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/apicurio-sync/internal/config"
	"github.com/bianoble/apicurio-sync/internal/engine"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

var initForce bool

// initTemplate is the default apicurio-sync.yaml scaffold. Every entry is
// commented out so the first lockfile pass never reaches a registry.
const initTemplate = `# apicurio-sync configuration
# Docs: https://github.com/bianoble/apicurio-sync

# Registry used when no context is selected and APICURIO_SYNC_REGISTRY_URL
# is unset.
# registry: https://registry.example.com

# Artifacts to download. Without a version the latest one is resolved once
# and pinned in apicurio-sync.lock; 'apicurio-sync update' moves it forward.
pull:
  # - group: com.example.orders
  #   artifact: order-created
  #   path: schemas/order-created.avsc
  #   version: "3"              # optional

# Local files to upload. The artifact is created, or updated when the content
# changed.
push:
  # - group: com.example.orders
  #   artifact: order-api
  #   path: api/orders.yaml
  #   type: OPENAPI             # AVRO, PROTOBUF, JSON, KCONNECT, OPENAPI,
  #                             # ASYNCAPI, GRAPHQL, WSDL, XSD
  #   name: Orders API          # optional metadata
  #   description: Public order endpoints
  #   labels: [orders]
  #   properties:
  #     owner: team-orders
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter apicurio-sync.yaml and its lockfile",
	Long: `Creates the config file (apicurio-sync.yaml in the working directory unless
--config-file says otherwise) from a commented template, then writes the
matching lockfile.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		if err := config.WriteFile(s.ConfigPath, []byte(initTemplate), initForce); err != nil {
			return err
		}
		cfg, err := loadConfig(s)
		if err != nil {
			return err
		}

		eng := &engine.UpdateEngine{Provider: registry.Noop{}}
		result, err := eng.LoadOrCreate(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %s\n", s.ConfigPath)
		fmt.Fprintf(out, "Created %s\n", result.Path)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Select a registry: 'apicurio-sync context set <name> --url <url> --current'")
		fmt.Fprintln(out, "  2. Add pull and push entries to the config")
		fmt.Fprintln(out, "  3. Run 'apicurio-sync sync'")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
