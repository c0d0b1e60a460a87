package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brocode/spot/internal/model"
	"github.com/brocode/spot/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printNotificationTable(items []model.Notification, unread int) {
	if len(items) == 0 {
		fmt.Println("No notifications.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tTITLE\tMESSAGE")
	for _, n := range items {
		title := n.Title
		if !n.Read {
			title = ui.RenderAccent(title)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			ui.RenderMuted(n.ID),
			ui.RenderMuted(n.Timestamp.Local().Format("2006-01-02 15:04")),
			title,
			n.Message,
		)
	}
	w.Flush()
	fmt.Printf("\n%d unread\n", unread)
}

func printPaymentTable(items []model.PaymentStatus, members []model.Member, completion float64) {
	if len(items) == 0 {
		fmt.Println("No payment statuses.")
		return
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tNAME\tSTATUS")
	for _, p := range items {
		status := ui.RenderUnpaid("unpaid")
		if p.Paid {
			status = ui.RenderPaid("paid")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", ui.RenderMuted(p.MemberID), names[p.MemberID], status)
	}
	w.Flush()
	fmt.Printf("\n%.0f%% settled\n", completion*100)
}
