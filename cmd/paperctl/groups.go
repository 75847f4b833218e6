package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	groupsCmd := &cobra.Command{Use: "groups", Short: "Group operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List groups you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/groups", apiFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	groupsCmd.AddCommand(listCmd)

	var name string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/groups", apiFlag), map[string]string{"name": name})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Group name (required)")
	_ = createCmd.MarkFlagRequired("name")
	groupsCmd.AddCommand(createCmd)

	joinCmd := &cobra.Command{
		Use:   "join GROUP_ID",
		Short: "Join a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := doPostJSON(fmt.Sprintf("%s/api/groups/%s/join", apiFlag, args[0]), nil)
			return err
		},
	}
	groupsCmd.AddCommand(joinCmd)

	leaveCmd := &cobra.Command{
		Use:   "leave GROUP_ID",
		Short: "Leave a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := doPostJSON(fmt.Sprintf("%s/api/groups/%s/leave", apiFlag, args[0]), nil)
			return err
		},
	}
	groupsCmd.AddCommand(leaveCmd)

	addCmd := &cobra.Command{
		Use:   "add-paper GROUP_ID PAPER_ID",
		Short: "Add a paper to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := doPostJSON(fmt.Sprintf("%s/api/groups/%s/papers/%s", apiFlag, args[0], args[1]), nil)
			return err
		},
	}
	groupsCmd.AddCommand(addCmd)

	removeCmd := &cobra.Command{
		Use:   "remove-paper GROUP_ID PAPER_ID",
		Short: "Remove a paper from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doDelete(fmt.Sprintf("%s/api/groups/%s/papers/%s", apiFlag, args[0], args[1]))
		},
	}
	groupsCmd.AddCommand(removeCmd)

	rootCmd.AddCommand(groupsCmd)
}
