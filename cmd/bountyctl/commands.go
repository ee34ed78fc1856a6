package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/bountyboard/bounty-backend/readmodel"
	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the wallet and print the active account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, done, snap, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		fmt.Fprintf(cmd.OutOrStdout(), "%s on chain %d\n", snap.Address, snap.ChainID)
		return nil
	},
}

var bountiesCmd = &cobra.Command{
	Use:   "bounties",
	Short: "List bounties",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := rt.store.ListBounties(cmd.Context())
		if err != nil {
			return err
		}
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		status, _ := cmd.Flags().GetString("status")
		q := readmodel.Query{Search: search, Sort: readmodel.SortOrder(sort), Status: status}
		return printBounties(cmd.OutOrStdout(), q.Apply(list))
	},
}

var bountyCmd = &cobra.Command{
	Use:   "bounty <id>",
	Short: "Show a bounty with its submissions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		viewer, _ := cmd.Flags().GetString("viewer")
		var b *types.Bounty
		if viewer != "" {
			b, err = rt.store.BountyDetailsFor(cmd.Context(), id, viewer)
		} else {
			b, err = rt.store.BountyDetails(cmd.Context(), id)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a bounty, escrowing the reward",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		deadlineStr, _ := flags.GetString("deadline")
		deadline, err := parseDeadline(deadlineStr, time.Now())
		if err != nil {
			return err
		}
		draft := BountyDraft{Deadline: deadline}
		draft.Title, _ = flags.GetString("title")
		draft.Description, _ = flags.GetString("description")
		draft.Requirements, _ = flags.GetString("requirements")
		draft.Reward, _ = flags.GetString("reward")

		ctx, done, _, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		id, receipt, err := rt.client.CreateBounty(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bounty %d created in %s\n", id, receipt.TxHash.Hex())
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <bounty-id>",
	Short: "Cancel an active bounty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, done, _, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		receipt, err := rt.client.CancelBounty(ctx, id)
		return printReceipt(cmd.OutOrStdout(), "cancelled", receipt, err)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <bounty-id> <proof-hash>",
	Short: "Submit a proof for a bounty",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, done, _, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		index, receipt, err := rt.client.SubmitProof(ctx, id, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "submission %d recorded in %s\n", index, receipt.TxHash.Hex())
		return nil
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <bounty-id> <submission-index> <approve|reject>",
	Short: "Approve or reject a submission",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		index, err := parseID(args[1])
		if err != nil {
			return err
		}
		var approve bool
		switch strings.ToLower(args[2]) {
		case "approve", "yes":
			approve = true
		case "reject", "no":
		default:
			return fmt.Errorf("vote must be approve or reject, got %q", args[2])
		}
		ctx, done, snap, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		receipt, err := rt.client.Vote(ctx, snap.Address, id, index, approve)
		return printReceipt(cmd.OutOrStdout(), "vote recorded", receipt, err)
	},
}

var setRewardCmd = &cobra.Command{
	Use:   "set-reward <bounty-id> <submission-index> <amount>",
	Short: "Set the reward of an approved submission after the deadline",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		index, err := parseID(args[1])
		if err != nil {
			return err
		}
		ctx, done, _, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		receipt, err := rt.client.SetReward(ctx, id, index, args[2])
		return printReceipt(cmd.OutOrStdout(), "reward set", receipt, err)
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <bounty-id>",
	Short: "Complete a bounty and release the rewards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, done, _, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		receipt, err := rt.client.CompleteBounty(ctx, id)
		return printReceipt(cmd.OutOrStdout(), "completed", receipt, err)
	},
}

func init() {
	bountiesCmd.Flags().String("search", "", "Match title or description")
	bountiesCmd.Flags().String("sort", string(readmodel.SortNewest), "newest, deadline or reward")
	bountiesCmd.Flags().String("status", readmodel.FilterAll, "all, open, expired, active, completed or cancelled")

	bountyCmd.Flags().String("viewer", "", "Address whose votes are reported")

	createCmd.Flags().String("title", "", "Bounty title")
	createCmd.Flags().String("description", "", "Bounty description")
	createCmd.Flags().String("requirements", "", "Proof requirements")
	createCmd.Flags().String("reward", "", "Reward in the native currency, e.g. 0.5")
	createCmd.Flags().String("deadline", "168h", "Deadline as YYYY-MM-DD or a duration from now")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("reward")

	rootCmd.AddCommand(connectCmd, bountiesCmd, bountyCmd, createCmd, cancelCmd, submitCmd, voteCmd, setRewardCmd, completeCmd)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseDeadline accepts a calendar date, taken as the end of that day, or a duration from now.
func parseDeadline(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseInLocation(utils.DateLayout, s, now.Location()); err == nil {
		return d.AddDate(0, 0, 1).Add(-time.Second), nil
	}
	if dur, err := time.ParseDuration(s); err == nil {
		return now.Add(dur), nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q, use YYYY-MM-DD or a duration like 72h", s)
}

func printBounties(w io.Writer, list []*types.Bounty) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tREWARD\tDEADLINE\tSTATUS\tSUBMISSIONS")
	for _, b := range list {
		status := b.StatusText
		if status == "" {
			status = b.Status.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", b.ID, b.Title, b.RewardFormatted,
			b.DeadlineTime().Format(time.RFC3339), status, b.SubmissionCount)
	}
	return tw.Flush()
}

func printReceipt(w io.Writer, what string, receipt *gethtypes.Receipt, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s in %s (block %s)\n", what, receipt.TxHash.Hex(), receipt.BlockNumber)
	return nil
}
