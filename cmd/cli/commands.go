package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vulneye/internal/config"
	"github.com/vulneye/internal/notify"
	"github.com/vulneye/sc"
)

// newAPIClient builds a client from config.yaml, falling back to the SC_*
// environment variables when no URL is configured.
func newAPIClient() (*sc.Client, error) {
	cfg := config.LoadConfig()

	var client *sc.Client
	var err error
	if cfg.SecurityCenter.URL == "" {
		client, err = sc.NewFromEnv()
	} else {
		client, err = sc.NewClient(sc.Config{
			URL:       cfg.SecurityCenter.URL,
			AccessKey: cfg.SecurityCenter.AccessKey,
			SecretKey: cfg.SecurityCenter.SecretKey,
			Insecure:  cfg.SecurityCenter.Insecure,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}

	if verbose {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
		client.SetLogger(log)
	}

	// Session auth when no API keys are configured.
	if cfg.SecurityCenter.AccessKey == "" && cfg.SecurityCenter.Username != "" {
		if err := client.Login(cfg.SecurityCenter.Username, cfg.SecurityCenter.Password); err != nil {
			return nil, fmt.Errorf("login failed: %v", err)
		}
	}

	return client, nil
}

func newLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and save them to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			client, err := sc.NewClient(sc.Config{
				URL:      cfg.SecurityCenter.URL,
				Insecure: cfg.SecurityCenter.Insecure,
			})
			if err != nil {
				return err
			}

			if err := client.Login(username, password); err != nil {
				return fmt.Errorf("login failed: %v", err)
			}

			viper.Set("securitycenter.username", username)
			viper.Set("securitycenter.password", password)
			if err := viper.WriteConfig(); err != nil {
				return fmt.Errorf("failed to save credentials: %v", err)
			}
			fmt.Println("Login successful")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "SecurityCenter username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "SecurityCenter password")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newAlertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alert",
		Short:   "Alert management commands",
		Aliases: []string{"alerts", "a"},
	}

	cmd.AddCommand(newAlertListCommand())
	cmd.AddCommand(newAlertGetCommand())
	cmd.AddCommand(newAlertCreateCommand())
	cmd.AddCommand(newAlertUpdateCommand())
	cmd.AddCommand(newAlertDeleteCommand())
	cmd.AddCommand(newAlertExecuteCommand())
	cmd.AddCommand(newAlertWatchCommand())

	return cmd
}

func parseAlertID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid alert ID: %v", err)
	}
	return id, nil
}

// parseFilters turns repeated --filter field:operator:value flags into
// filter expressions.
func parseFilters(raw []string) ([]sc.Filter, error) {
	filters := make([]sc.Filter, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid filter %q, expected field:operator:value", r)
		}
		filters = append(filters, sc.Filter{
			Field:    parts[0],
			Operator: parts[1],
			Value:    parts[2],
		})
	}
	return filters, nil
}

func readOptions() (sc.AlertOptions, error) {
	var opts sc.AlertOptions
	if err := json.NewDecoder(os.Stdin).Decode(&opts); err != nil {
		return opts, fmt.Errorf("invalid alert options JSON: %v", err)
	}
	return opts, nil
}

func printAlerts(alerts []sc.Record) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRIGGER\tSTATUS")
	for _, a := range alerts {
		trigger := ""
		if name, ok := a["triggerName"].(string); ok {
			trigger = fmt.Sprintf("%s %v %v", name, a["triggerOperator"], a["triggerValue"])
		}
		fmt.Fprintf(w, "%v\t%v\t%s\t%v\n", a["id"], a["name"], trigger, a["status"])
	}
	return w.Flush()
}

func printAlert(alert sc.Record) error {
	out, err := json.MarshalIndent(alert, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newAlertListCommand() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List alerts",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			alerts, err := client.Alerts().List(fields...)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %v", err)
			}
			return printAlerts(alerts)
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Attributes to return for each alert")
	return cmd
}

func newAlertGetCommand() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "get [alert_id]",
		Short: "Show alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlertID(args[0])
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			alert, err := client.Alerts().Details(id, fields...)
			if err != nil {
				return fmt.Errorf("failed to get alert: %v", err)
			}
			return printAlert(alert)
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Attributes to return")
	return cmd
}

func newAlertCreateCommand() *cobra.Command {
	var rawFilters []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an alert from options JSON on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readOptions()
			if err != nil {
				return err
			}
			filters, err := parseFilters(rawFilters)
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			alert, err := client.Alerts().Create(opts, filters...)
			if err != nil {
				return fmt.Errorf("failed to create alert: %v", err)
			}
			return printAlert(alert)
		},
	}

	cmd.Flags().StringArrayVar(&rawFilters, "filter", nil, "Filter expression as field:operator:value (repeatable)")
	return cmd
}

func newAlertUpdateCommand() *cobra.Command {
	var rawFilters []string

	cmd := &cobra.Command{
		Use:   "update [alert_id]",
		Short: "Update an alert from options JSON on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlertID(args[0])
			if err != nil {
				return err
			}
			opts, err := readOptions()
			if err != nil {
				return err
			}
			filters, err := parseFilters(rawFilters)
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			alert, err := client.Alerts().Update(id, opts, filters...)
			if err != nil {
				return fmt.Errorf("failed to update alert: %v", err)
			}
			return printAlert(alert)
		},
	}

	cmd.Flags().StringArrayVar(&rawFilters, "filter", nil, "Filter expression as field:operator:value (repeatable)")
	return cmd
}

func newAlertDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [alert_id]",
		Short:   "Delete an alert",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlertID(args[0])
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			if _, err := client.Alerts().Delete(id); err != nil {
				return fmt.Errorf("failed to delete alert: %v", err)
			}
			fmt.Printf("Alert %d deleted\n", id)
			return nil
		},
	}
}

func newAlertExecuteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "execute [alert_id]",
		Short:   "Execute an alert immediately",
		Aliases: []string{"exec"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlertID(args[0])
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			alert, err := client.Alerts().Execute(id)
			if err != nil {
				return fmt.Errorf("failed to execute alert: %v", err)
			}
			return printAlert(alert)
		},
	}
}

func newAlertWatchCommand() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new alerts and forward them to Slack/email",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			var notifiers []notify.Notifier
			if cfg.Notify.Slack.Token != "" {
				notifiers = append(notifiers,
					notify.NewSlackNotifier(cfg.Notify.Slack.Token, cfg.Notify.Slack.Channel))
			}
			if cfg.Notify.Email.SMTPHost != "" {
				notifiers = append(notifiers, notify.NewEmailNotifier(
					cfg.Notify.Email.SMTPHost, cfg.Notify.Email.SMTPPort,
					cfg.Notify.Email.From, cfg.Notify.Email.Password,
					cfg.Notify.Email.ToReceivers))
			}
			if len(notifiers) == 0 {
				return fmt.Errorf("no notification channels configured")
			}

			return watchAlerts(client, notifiers, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Poll interval")
	return cmd
}

func watchAlerts(client *sc.Client, notifiers []notify.Notifier, interval time.Duration) error {
	fields := []string{
		"id", "name", "description", "status",
		"triggerName", "triggerOperator", "triggerValue", "lastTriggered",
	}

	// Seed with the alerts that already exist so only new ones are
	// forwarded.
	seen := make(map[string]bool)
	existing, err := client.Alerts().List("id")
	if err != nil {
		return fmt.Errorf("failed to list alerts: %v", err)
	}
	for _, a := range existing {
		seen[fmt.Sprintf("%v", a["id"])] = true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		alerts, err := client.Alerts().List(fields...)
		if err != nil {
			fmt.Printf("Error listing alerts: %v\n", err)
			continue
		}

		for _, alert := range alerts {
			id := fmt.Sprintf("%v", alert["id"])
			if seen[id] {
				continue
			}
			seen[id] = true
			for _, n := range notifiers {
				if err := n.Notify(alert); err != nil {
					fmt.Printf("Error sending notification: %v\n", err)
				}
			}
		}
	}
	return nil
}
