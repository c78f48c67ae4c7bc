package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	title   string
	content string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		notes, err := newClient().List(ctx)
		if err != nil {
			fatal("Error listing notes", err)
		}
		printJSON(notes)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a single note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		note, err := newClient().Get(ctx, args[0])
		if err != nil {
			fatal("Error getting note", err)
		}
		printJSON(note)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		note, err := newClient().Create(ctx, title, content)
		if err != nil {
			fatal("Error creating note", err)
		}
		printJSON(note)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Replace title and content of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		note, err := newClient().Update(ctx, args[0], title, content)
		if err != nil {
			fatal("Error updating note", err)
		}
		printJSON(note)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := newClient().Delete(ctx, args[0]); err != nil {
			fatal("Error deleting note", err)
		}
		fmt.Printf("Note deleted: %s\n", args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVarP(&title, "title", "t", "", "Note title")
		c.Flags().StringVarP(&content, "content", "c", "", "Note content")
		_ = c.MarkFlagRequired("title")
		_ = c.MarkFlagRequired("content")
	}
	rootCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd)
}
