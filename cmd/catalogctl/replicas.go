package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/strataflow/catalog/persist"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Administer a catalog persistence store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("store", "", "Path to the persistence store root (required)")
	root.PersistentFlags().Bool("json", false, "Emit JSON instead of a table")
	root.AddCommand(newReplicasCmd())
	return root
}

func newReplicasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replicas",
		Short: "Manage persisted replicas",
	}
	cmd.AddCommand(
		newReplicasListCmd(),
		newReplicasShowCmd(),
		newReplicasSweepCmd(),
		newReplicasRmCmd(),
	)
	return cmd
}

func storeFromCmd(cmd *cobra.Command) (*persist.FileStore, error) {
	root, _ := cmd.Flags().GetString("store")
	if root == "" {
		return nil, fmt.Errorf("--store is required")
	}
	return persist.NewFileStore(root)
}

func jsonOutput(cmd *cobra.Command) bool {
	j, _ := cmd.Flags().GetBool("json")
	return j
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newReplicasListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all persisted replicas",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}

			infos := make([]persist.Info, 0)
			for _, token := range store.Tokens() {
				info, err := store.Stat(token)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}

			if jsonOutput(cmd) {
				return printJSON(infos)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOKEN\tNAME\tDRIVER\tTTL\tAGE\tSIZE")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					info.Token, info.Name, info.Driver, info.TTL,
					time.Since(info.Timestamp).Round(time.Second), info.Size)
			}
			return w.Flush()
		},
	}
}

func newReplicasShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <token>",
		Short: "Show a persisted replica's record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}

			info, err := store.Stat(args[0])
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(info)
			}

			fmt.Printf("ID:        %s\n", info.ID)
			fmt.Printf("Token:     %s\n", info.Token)
			fmt.Printf("Name:      %s\n", info.Name)
			fmt.Printf("Container: %s\n", info.Container)
			fmt.Printf("Driver:    %s\n", info.Driver)
			fmt.Printf("TTL:       %s\n", info.TTL)
			fmt.Printf("Timestamp: %s\n", info.Timestamp.Format(time.RFC3339))
			fmt.Printf("Size:      %d\n", info.Size)
			return nil
		},
	}
}

func newReplicasSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Apply the staleness policy once, refreshing selected replicas",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}

			refreshed, err := store.Sweep(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(map[string]int{"refreshed": refreshed})
			}
			fmt.Printf("refreshed %d replica(s)\n", refreshed)
			return nil
		},
	}
}

func newReplicasRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <token>",
		Short: "Remove a persisted replica",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromCmd(cmd)
			if err != nil {
				return err
			}
			return store.Remove(context.Background(), args[0])
		},
	}
}
