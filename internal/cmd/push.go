package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luminary-app/luminary/internal/api"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Manage push notifications for this device",
}

var pushSubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Register this device for push notifications",
	RunE:  runPushSubscribe,
}

var pushUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe",
	Short: "Stop push notifications for this device",
	RunE:  runPushUnsubscribe,
}

var pushSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a notification (admin)",
	RunE:  runPushSend,
}

var pushStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether this device is subscribed",
	RunE:  runPushStatus,
}

var (
	pushTitle  string
	pushBody   string
	pushAll    bool
	pushUserID string
)

func init() {
	pushSendCmd.Flags().StringVar(&pushTitle, "title", "", "notification title")
	pushSendCmd.Flags().StringVar(&pushBody, "body", "", "notification body")
	pushSendCmd.Flags().BoolVar(&pushAll, "all", false, "send to every subscribed device")
	pushSendCmd.Flags().StringVar(&pushUserID, "user", "", "send to one user's devices")
	_ = pushSendCmd.MarkFlagRequired("title")

	pushCmd.AddCommand(pushSubscribeCmd)
	pushCmd.AddCommand(pushUnsubscribeCmd)
	pushCmd.AddCommand(pushSendCmd)
	pushCmd.AddCommand(pushStatusCmd)
	rootCmd.AddCommand(pushCmd)
}

func runPushSubscribe(cmd *cobra.Command, args []string) error {
	a, err := requireSession()
	if err != nil {
		return err
	}

	// A terminal client has no browser push service; the stable device ID
	// stands in as the endpoint and the delivery keys stay empty.
	endpoint := "device:" + a.creds.DeviceID()
	if err := a.api.Subscribe(cmd.Context(), endpoint, api.PushKeys{}); err != nil {
		return err
	}

	if err := a.creds.SetPushSubscribed(true, endpoint); err != nil {
		a.logger.WithError(err).Warn("subscription registered but local state was not saved")
	}

	fmt.Println("This device will receive push notifications.")
	return nil
}

func runPushUnsubscribe(cmd *cobra.Command, args []string) error {
	a, err := requireSession()
	if err != nil {
		return err
	}

	_, endpoint := a.creds.PushSubscribed()
	if endpoint == "" {
		endpoint = "device:" + a.creds.DeviceID()
	}

	if err := a.api.Unsubscribe(cmd.Context(), endpoint); err != nil {
		return err
	}

	if err := a.creds.SetPushSubscribed(false, ""); err != nil {
		a.logger.WithError(err).Warn("subscription removed but local state was not saved")
	}

	fmt.Println("Push notifications stopped for this device.")
	return nil
}

func runPushSend(cmd *cobra.Command, args []string) error {
	a, err := requireSession()
	if err != nil {
		return err
	}

	if pushAll == (pushUserID != "") {
		return fmt.Errorf("pass exactly one of --all or --user")
	}

	if pushAll {
		if err := a.api.SendToAll(cmd.Context(), pushTitle, pushBody); err != nil {
			return err
		}
		fmt.Println("Notification sent to all subscribers.")
		return nil
	}

	if err := a.api.SendToUser(cmd.Context(), pushUserID, pushTitle, pushBody); err != nil {
		return err
	}
	fmt.Printf("Notification sent to user %s.\n", pushUserID)
	return nil
}

func runPushStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	subscribed, endpoint := a.creds.PushSubscribed()
	if subscribed {
		fmt.Printf("Subscribed (%s).\n", endpoint)
	} else {
		fmt.Println("Not subscribed.")
	}
	return nil
}
