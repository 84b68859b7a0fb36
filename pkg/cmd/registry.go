package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filedock/pkg/internal/storage/db"
	"github.com/yeisme/filedock/pkg/internal/storage/kv"
	"github.com/yeisme/filedock/pkg/internal/storage/mq"
)

// listCommand 打印某类已注册的驱动类型.
func listCommand[T ~string](title string, types func() []T) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "list all registered " + title + " types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s types:\n", title)

			for _, t := range types() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}
}

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store (connector cache) commands",
		Aliases: []string{"keyvalue"},
	}

	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue (upload events) commands",
		Aliases: []string{"messagequeue"},
	}

	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Upload journal database commands",
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(listCommand("kv", kv.GetRegisteredKVTypes))
}

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(listCommand("mq", mq.RegisteredTypes))
}

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(listCommand("database", db.GetRegisteredDBTypes))
}
