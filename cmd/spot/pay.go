package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brocode/spot/internal/ui"
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Manage payment statuses for the upcoming spot",
}

var payListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show who has paid",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		// Make sure every roster member has a status row before rendering.
		for _, m := range env.profile.Members() {
			if err := env.payments.EnsureMember(cmd.Context(), m.ID); err != nil {
				return err
			}
		}

		if jsonOutput {
			printJSON(map[string]any{
				"payments":   env.payments.Statuses(),
				"completion": env.payments.Completion(),
			})
			return nil
		}
		printPaymentTable(env.payments.Statuses(), env.profile.Members(), env.payments.Completion())
		return nil
	},
}

var paySetCmd = &cobra.Command{
	Use:   "set <memberId>",
	Short: "Record a member's payment (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		// Authorization happens here, before the store sees the intent.
		actor := env.profile.MemberID
		if !env.profile.IsAdmin(actor) {
			return fmt.Errorf("member %q is not an admin", actor)
		}

		memberID := args[0]
		unpaid, _ := cmd.Flags().GetBool("unpaid")

		if err := env.payments.EnsureMember(cmd.Context(), memberID); err != nil {
			return err
		}
		status, err := env.payments.SetPaid(cmd.Context(), memberID, !unpaid)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(status)
			return nil
		}
		state := "paid"
		if !status.Paid {
			state = "unpaid"
		}
		fmt.Printf("Marked %s %s\n", memberID, state)
		return nil
	},
}

var payQRCmd = &cobra.Command{
	Use:   "qr",
	Short: "Print the UPI payment link for this member's share",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		spot := env.profile.Spot
		if spot.PayeeVPA == "" {
			return fmt.Errorf("no payee VPA configured in the profile")
		}
		members := env.profile.Members()
		if len(members) == 0 {
			return fmt.Errorf("roster is empty, cannot split the budget")
		}
		share := spot.Budget / float64(len(members))

		link := upiLink(spot.PayeeVPA, spot.PayeeName, spot.Title, share)

		if jsonOutput {
			printJSON(map[string]any{"link": link, "amount": share})
			return nil
		}
		fmt.Printf("Your share for %s: %s\n", spot.Title, ui.RenderAccent(fmt.Sprintf("%.2f", share)))
		fmt.Println(link)
		return nil
	},
}

// upiLink builds a upi://pay deep link that payment apps open directly.
func upiLink(vpa, name, note string, amount float64) string {
	q := url.Values{}
	q.Set("pa", vpa)
	if name != "" {
		q.Set("pn", name)
	}
	if note != "" {
		q.Set("tn", note)
	}
	q.Set("am", strconv.FormatFloat(amount, 'f', 2, 64))
	q.Set("cu", "INR")
	return "upi://pay?" + q.Encode()
}

func init() {
	paySetCmd.Flags().Bool("unpaid", false, "mark the member unpaid instead")

	payCmd.AddCommand(payListCmd)
	payCmd.AddCommand(paySetCmd)
	payCmd.AddCommand(payQRCmd)
}
