/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Seednode/hostroulette/roulette"
	"github.com/Seednode/hostroulette/storage"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRosterCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Print the saved roster and the recent hosts.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			store := openStore(cfg)
			defer store.Close()

			roster, recent, available := roulette.Load(store, sessionLogger(cfg))
			if !available {
				return roulette.ErrStorageUnavailable
			}

			printRoster(cmd.OutOrStdout(), roster, recent)

			return nil
		},
	}
}

func newPickCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Pick the next host without the wheel and save the result.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			store := openStore(cfg)
			defer store.Close()

			state, err := pickHost(cmd.Context(), cfg, store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", color.Bold.Sprint("Next host:"), color.Green.Sprint(state.Winner))
			if state.StorageWarning {
				fmt.Fprintln(out, color.Yellow.Sprint(roulette.ErrStorageUnavailable.Error()))
			}

			return nil
		},
	}
}

// immediateClock fires callbacks right away; the terminal has no wheel to
// wait for.
type immediateClock struct{}

type firedTimer struct{}

func (firedTimer) Stop() bool { return false }

func (immediateClock) AfterFunc(_ time.Duration, f func()) roulette.Timer {
	go f()
	return firedTimer{}
}

// pickHost runs one full round against store and returns the final state.
// Writes are flushed before it returns.
func pickHost(ctx context.Context, cfg *Config, store storage.Store) (roulette.State, error) {
	session, err := newSession(cfg, store, immediateClock{})
	if err != nil {
		return roulette.State{}, err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer func() {
		stop()
		<-session.Done()
	}()

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	go session.Run(runCtx)

	started, err := session.Dispatch(ctx, roulette.Start{})
	if err != nil {
		return roulette.State{}, err
	}

	for e := range events {
		if e.Kind != roulette.EventState || e.State.Round != started.Round {
			continue
		}

		switch e.State.Phase {
		case roulette.PhaseResultShown:
			return e.State, nil
		case roulette.PhaseSetup:
			return e.State, fmt.Errorf("%w: %s", roulette.ErrInvalidWinner, e.State.Error)
		}
	}

	return roulette.State{}, roulette.ErrSessionClosed
}

func printRoster(w io.Writer, roster roulette.Roster, recent roulette.RecencyWindow) {
	if len(roster) == 0 {
		fmt.Fprintln(w, color.Gray.Sprint("No participants yet. Open the wheel and add some names."))
		return
	}

	eligible := make(map[string]bool)
	for _, p := range roulette.Eligible(roster, recent) {
		eligible[p.Name] = true
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Name", "Status", "Recent"})
	table.SetAutoWrapText(false)

	for i, p := range roster {
		status := color.Green.Sprint("available")
		switch {
		case p.IsAbsent:
			status = color.Gray.Sprint("absent")
		case !eligible[p.Name]:
			status = color.Yellow.Sprint("resting")
		}

		var rank string
		switch recent.Rank(p.Name) {
		case 1:
			rank = "last host"
		case 2:
			rank = "host before last"
		}

		table.Append([]string{strconv.Itoa(i + 1), p.Name, status, rank})
	}

	table.SetFooter([]string{"", fmt.Sprintf("%d total", len(roster)), fmt.Sprintf("%d available", len(eligible)), ""})
	table.Render()
}
