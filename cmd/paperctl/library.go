package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	libraryCmd := &cobra.Command{Use: "library", Short: "Personal library operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/library", apiFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	libraryCmd.AddCommand(listCmd)

	saveCmd := &cobra.Command{
		Use:   "save PAPER_ID",
		Short: "Save a paper to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := doPostJSON(fmt.Sprintf("%s/api/library/%s/save", apiFlag, args[0]), nil)
			return err
		},
	}
	libraryCmd.AddCommand(saveCmd)

	removeCmd := &cobra.Command{
		Use:   "remove PAPER_ID",
		Short: "Remove a paper from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := doPostJSON(fmt.Sprintf("%s/api/library/%s/remove", apiFlag, args[0]), nil)
			return err
		},
	}
	libraryCmd.AddCommand(removeCmd)

	rootCmd.AddCommand(libraryCmd)
}
