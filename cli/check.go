package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCmd creates the "check" subcommand.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify n8n connectivity, the API key, and the tool manifest",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
	addConfigFlags(cmd)
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	session, err := openToolSession(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if session.loaded.Fallback {
		fmt.Fprintf(out, "manifest: %s unavailable, demo tools would be served\n", session.loaded.Path)
	} else {
		fmt.Fprintf(out, "manifest: %s (%d tools, %d registered)\n",
			session.loaded.Path, len(session.loaded.Manifest.Tools), session.registry.Len())
	}

	auth := "unauthenticated"
	if session.proxy.Authenticated() {
		auth = "authenticated"
	}
	if err := session.proxy.CheckCredentials(cmd.Context()); err != nil {
		fmt.Fprintf(out, "n8n: %s FAILED (%s)\n", session.proxy.BaseURL(), auth)
		return exitError(exitUpstream, "%v", err)
	}
	fmt.Fprintf(out, "n8n: %s OK (%s)\n", session.proxy.BaseURL(), auth)
	return nil
}
