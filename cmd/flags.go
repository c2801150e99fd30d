package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// The flag* helpers look up flags registered in the commands' init
// functions. A lookup can only fail when the flag was never defined,
// which is a wiring bug, so they panic rather than return an error.

func flagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("--%s is not a registered bool flag: %v", name, err))
	}
	return v
}

func flagInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("--%s is not a registered int flag: %v", name, err))
	}
	return v
}

func flagString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("--%s is not a registered string flag: %v", name, err))
	}
	return v
}

func flagFloat64(cmd *cobra.Command, name string) float64 {
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("--%s is not a registered float flag: %v", name, err))
	}
	return v
}

func flagStringSlice(cmd *cobra.Command, name string) []string {
	v, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("--%s is not a registered string slice flag: %v", name, err))
	}
	return v
}
