// route-cli прогоняет политику доступа без запуска сервера: удобно проверять,
// куда попадёт пользователь с данной cookie.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "route-cli",
		Short:         "Отладка решений политики доступа BookIt",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newClassifyCmd(), newCheckCmd(), newEncodeCmd(), newGenSecretCmd())
	return root
}
