package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Manage in-app notifications",
}

var notifyAddCmd = &cobra.Command{
	Use:   "add <title> [message...]",
	Short: "Create a notification",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		title := args[0]
		message := strings.Join(args[1:], " ")

		n, err := env.notifications.Notify(cmd.Context(), title, message)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(n)
			return nil
		}
		fmt.Printf("Created %s\n", n.ID)
		return nil
	},
}

var notifyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		unreadOnly, _ := cmd.Flags().GetBool("unread")
		items := env.notifications.All()
		if unreadOnly {
			filtered := items[:0:0]
			for _, n := range items {
				if !n.Read {
					filtered = append(filtered, n)
				}
			}
			items = filtered
		}

		if jsonOutput {
			printJSON(map[string]any{
				"notifications": items,
				"unread_count":  env.notifications.UnreadCount(),
			})
			return nil
		}
		printNotificationTable(items, env.notifications.UnreadCount())
		return nil
	},
}

var notifyReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		n, err := env.notifications.MarkRead(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(n)
			return nil
		}
		fmt.Printf("Marked %s read\n", n.ID)
		return nil
	},
}

var notifyReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.notifications.MarkAllRead(cmd.Context()); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Println("All notifications marked read")
		}
		return nil
	},
}

func init() {
	notifyListCmd.Flags().Bool("unread", false, "show only unread notifications")

	notifyCmd.AddCommand(notifyAddCmd)
	notifyCmd.AddCommand(notifyListCmd)
	notifyCmd.AddCommand(notifyReadCmd)
	notifyCmd.AddCommand(notifyReadAllCmd)
}
