package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vulneye",
	Short: "VulnEye CLI - a SecurityCenter alert management tool",
	Long: `VulnEye CLI is a command-line tool for managing alerts on a
SecurityCenter vulnerability management platform. It can list, create,
update, execute and delete alerts, and watch for new ones.`,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests to stderr")

	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newAlertCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
