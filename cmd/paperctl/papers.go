package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	papersCmd := &cobra.Command{Use: "papers", Short: "Paper listing and lookup"}

	// list
	var query, author, sort, age, categories, group string
	var page int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if query != "" {
				q.Set("q", query)
			}
			if author != "" {
				q.Set("author", author)
			}
			if sort != "" {
				q.Set("sort", sort)
			}
			if age != "" {
				q.Set("age", age)
			}
			if categories != "" {
				q.Set("categories", categories)
			}
			if group != "" {
				q.Set("group", group)
			}
			if page > 0 {
				q.Set("page_num", fmt.Sprintf("%d", page))
			}
			u := fmt.Sprintf("%s/api/papers", apiFlag)
			if enc := q.Encode(); enc != "" {
				u += "?" + enc
			}
			data, err := doGet(u)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&query, "query", "q", "", "Free-text search query")
	listCmd.Flags().StringVar(&author, "author", "", "Exact author name filter")
	listCmd.Flags().StringVar(&sort, "sort", "", "Sort order (date, tweets, bookmarks, score)")
	listCmd.Flags().StringVar(&age, "age", "", "Publication window (day, 3days, week, month, year, all)")
	listCmd.Flags().StringVar(&categories, "categories", "", "';'-separated category filter")
	listCmd.Flags().StringVar(&group, "group", "", "Restrict to papers in a group")
	listCmd.Flags().IntVarP(&page, "page", "p", 0, "Page number")
	papersCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get PAPER_ID",
		Short: "Get a paper by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/papers/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	papersCmd.AddCommand(getCmd)

	// comments
	commentsCmd := &cobra.Command{
		Use:   "comments PAPER_ID",
		Short: "List comments on a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/papers/%s/comments", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	papersCmd.AddCommand(commentsCmd)

	// comment
	var text, visibility string
	commentCmd := &cobra.Command{
		Use:   "comment PAPER_ID",
		Short: "Post a general comment on a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return fmt.Errorf("--text required")
			}
			payload := map[string]interface{}{
				"text":       text,
				"is_general": true,
				"visibility": map[string]string{"type": visibility},
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/papers/%s/comments", apiFlag, args[0]), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	commentCmd.Flags().StringVarP(&text, "text", "t", "", "Comment text (required)")
	commentCmd.Flags().StringVar(&visibility, "visibility", "public", "Visibility (public, private, anonymous)")
	_ = commentCmd.MarkFlagRequired("text")
	papersCmd.AddCommand(commentCmd)

	rootCmd.AddCommand(papersCmd)
}
