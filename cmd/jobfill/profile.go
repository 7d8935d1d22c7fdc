package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobfill/internal/store"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the resume profile used for autofill",
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a resume profile JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileValidate,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "Store a resume profile as the current resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSet,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active resume profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

func init() {
	profileCmd.AddCommand(profileValidateCmd, profileSetCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	profile, err := store.DecodeProfile(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Profile is valid: %s", profile.PersonalInfo.Name)
	if profile.VersionID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (version %s)", profile.VersionID)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	profile, err := store.SaveProfile(ctx, s, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored profile for %s\n", profile.PersonalInfo.Name)
	return nil
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	profile, err := store.LoadProfile(ctx, s)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}
