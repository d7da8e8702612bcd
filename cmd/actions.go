package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/swapstation/core/station"
)

var apiURL string

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Operator actions",
}

var actionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List operator actions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, a := range station.Actions {
			fmt.Fprintln(cmd.OutOrStdout(), a)
		}
	},
}

var actionsSendCmd = &cobra.Command{
	Use:   "send <action>",
	Short: "Trigger an action on a running station",
	Args:  cobra.ExactArgs(1),
	RunE:  sendAction,
}

func init() {
	actionsSendCmd.Flags().StringVar(&apiURL, "url", "http://localhost:8080", "operator API base URL")
	actionsCmd.AddCommand(actionsListCmd, actionsSendCmd)
	rootCmd.AddCommand(actionsCmd)
}

func sendAction(cmd *cobra.Command, args []string) error {
	a, err := station.ParseAction(args[0])
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(strings.TrimRight(apiURL, "/")+"/api/actions/"+string(a), "application/json", nil)
	if err != nil {
		return fmt.Errorf("send %s: %w", a, err)
	}
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		State  station.Snapshot `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%s rejected: %s", a, body.Error)
	}
	s := body.State
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: AGV %d%%, BMH %d%%, %s\n", a, body.Status, s.ActivePct, s.HubPct, s.StatusLabel)
	return nil
}
