package flood

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meterkit/statsd-go/flooder/pkg/flood"
)

// floodCmd represents the base command when called without any subcommands
var floodCmd = &cobra.Command{
	Use:   "flood",
	Short: "Sends a lot of statsd lines.",
	Run: func(cmd *cobra.Command, args []string) {
		flood.Flood(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := floodCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	floodCmd.Flags().StringP("address", "", "127.0.0.1:8125", "Address of the statsd server")
	floodCmd.Flags().StringP("flavor", "", "datadog", "Line flavor: datadog, etsy, telegraf or plain")
	floodCmd.Flags().StringP("name-prefix", "", "flood", "Prefix prepended to every metric name")
	floodCmd.Flags().StringSliceP("tags", "", []string{}, "Set common tags, key:value")
	floodCmd.Flags().DurationP("poll-interval", "", time.Duration(10)*time.Second, "Set the poll interval for pull meters")
	floodCmd.Flags().DurationP("write-timeout", "", time.Duration(100)*time.Millisecond, "Set write timeout")
	floodCmd.Flags().BoolP("publish-unchanged", "", false, "Publish gauges on every poll even when unchanged")
	floodCmd.Flags().Float64P("sample-rate", "", 1, "Client-side sample rate for timing lines")
	floodCmd.Flags().IntP("points-per-10seconds", "", 100000, "Set points per 10 seconds")
	floodCmd.Flags().BoolP("send-at-start-of-bucket", "", false, "Send all the points at the start of the 10 sec time bucket.")
	floodCmd.Flags().BoolP("verbose", "", false, "Enable verbose mode")
}
