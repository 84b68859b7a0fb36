package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/storage/backend"
)

var (
	backendCmd = &cobra.Command{
		Use:   "backend",
		Short: "File storage backend commands",
	}

	backendListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered adapters and configured backends",
		Aliases: []string{"ls", "l"},
		PreRunE: loadConfig,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Registered adapters:")

			for _, a := range backend.RegisteredAdapters() {
				fmt.Fprintln(out, "   - "+string(a))
			}

			finder := configs.GetConfig().Finder

			fmt.Fprintln(out, "Configured backends:")

			for _, b := range finder.Backends {
				fmt.Fprintf(out, "   - %s (%s) %s\n", b.Name, b.Adapter, describeBackend(b))
			}

			fmt.Fprintln(out, "Resource types:")

			for _, rt := range finder.ResourceTypes {
				fmt.Fprintf(out, "   - %s -> %s:%s\n", rt.Name, rt.Backend, rt.Directory)
			}
		},
	}
)

func describeBackend(b configs.BackendConfig) string {
	switch b.Adapter {
	case configs.AdapterLocal:
		return b.Root
	case configs.AdapterS3:
		return "bucket=" + b.Bucket
	default:
		return ""
	}
}

// registerBackendCommands 注册文件后端相关命令.
func registerBackendCommands() {
	rootCmd.AddCommand(backendCmd)
	backendCmd.AddCommand(backendListCmd)
}
