package main

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/crates/internal/formatter"
)

// SkipList prints the skip set, oldest entry first.
func (r *Runner) SkipList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.DB().Close()

	entries, err := store.ListSkips()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return r.writePlain("Skip set is empty.\n")
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{strconv.FormatInt(e.ReleaseID, 10), e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Reason}
	}
	return r.writePlain("%s\n", formatter.RenderTable(
		[]string{"Release", "Added", "Reason"}, rows,
		[]formatter.Alignment{formatter.AlignRight},
	))
}

// SkipAdd excludes a release from future runs.
func (r *Runner) SkipAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.DB().Close()

	if err := store.MarkSkipped(id, cmd.String("reason")); err != nil {
		return err
	}
	r.logger.Info("release skipped", "release_id", id, "reason", cmd.String("reason"))
	return r.writePlain("✓ Release %d added to the skip set\n", id)
}

// SkipClear removes a release from the skip set so the next reset run fetches it again.
func (r *Runner) SkipClear(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.DB().Close()

	if err := store.ClearSkip(id); err != nil {
		return err
	}
	r.logger.Info("skip entry cleared", "release_id", id)
	return r.writePlain("✓ Release %d cleared from the skip set\n", id)
}
