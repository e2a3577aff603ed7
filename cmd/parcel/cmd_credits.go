// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/report"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// resolveAccountArg picks the account from the positional argument,
// the command flag default, or PARCEL_ACCOUNT, then normalizes it.
func resolveAccountArg(args []string) string {
	raw := getAccount("")
	if len(args) > 0 {
		raw = args[0]
	}
	if raw == "" {
		fmt.Fprintln(os.Stderr, "No account given. Pass one as an argument or set PARCEL_ACCOUNT.")
		os.Exit(1)
	}
	account, err := validation.SanitizeAccount(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid account: %v\n", err)
		os.Exit(1)
	}
	return account
}

// runCreditsCommand shows an account's balance.
//
// # Description
//
// Fetches the balance, and with --history the most recent ledger
// entries: topups, report charges, and refunds.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Optional account name
//
// # Outputs
//
// Prints the balance and any requested history rows.
//
// # Limitations
//
//   - Exits with code 1 on server errors
func runCreditsCommand(cmd *cobra.Command, args []string) {
	account := resolveAccountArg(args)

	path := "/v1/credits?account=" + url.QueryEscape(account)
	if creditsHistory > 0 {
		path += fmt.Sprintf("&history=%d", creditsHistory)
	}

	var resp report.CreditsResponse
	if err := getJSON(path, &resp); err != nil {
		reportRequestFailed(err)
	}

	ux.Success(fmt.Sprintf("%s: %d credits", resp.Account, resp.Balance))
	for _, entry := range resp.History {
		fmt.Printf("  %s  %+6d  balance=%-6d  %s\n",
			entry.At.Format("2006-01-02 15:04"), entry.Delta, entry.Balance, entry.Reason)
	}
}

// runTopupCommand adds credits to an account.
//
// # Description
//
// Confirms interactively before posting the topup; --yes skips the
// prompt for scripts. Outside a terminal the flag is required, so a
// stray pipeline cannot grow balances silently.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Optional account name
//
// # Outputs
//
// Prints the new balance.
//
// # Limitations
//
//   - Exits with code 1 when the prompt is declined or unavailable
func runTopupCommand(cmd *cobra.Command, args []string) {
	account := resolveAccountArg(args)
	if topupCredits <= 0 {
		fmt.Fprintln(os.Stderr, "Credits must be positive.")
		os.Exit(1)
	}

	if !topupYes {
		if !ux.IsInteractive() {
			fmt.Fprintln(os.Stderr, "Not a terminal; pass --yes to confirm the topup.")
			os.Exit(1)
		}
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Add %d credits to %q?", topupCredits, account)).
			Value(&confirmed).
			Run()
		if err != nil || !confirmed {
			ux.Muted("Topup cancelled.")
			os.Exit(1)
		}
	}

	req := report.TopupRequest{Account: account, Credits: topupCredits, Reason: topupReason}

	var resp report.CreditsResponse
	if err := postJSON("/v1/credits/topup", req, &resp); err != nil {
		reportRequestFailed(err)
	}

	ux.Success(fmt.Sprintf("%s: %d credits", resp.Account, resp.Balance))
}
