// Command mcp-weather-client queries an mcp-weather-server from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/mcp-weather-server/internal/client"
	"github.com/i474232898/mcp-weather-server/internal/protocol"
)

var (
	streamMode bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "mcp-weather-client",
	Short:         "Ask an MCP weather server about current weather and forecasts",
	SilenceErrors: true,
	SilenceUsage:  true,
}

var askCmd = &cobra.Command{
	Use:   "ask <server> <query...>",
	Short: "Send a weather question",
	Long: `Send a free-text weather question, e.g.

  mcp-weather-client ask localhost:8000 London
  mcp-weather-client ask localhost:8000 forecast for Tokyo --stream`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	server, query := args[0], strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c := client.New(server, &http.Client{})
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connecting to MCP server at: %s\n\n", client.NormalizeBaseURL(server))

	if !streamMode {
		resp, err := c.Ask(ctx, query)
		if err != nil {
			return describe(err)
		}
		return client.Render(out, resp.Data)
	}

	return c.Stream(ctx, query, func(f protocol.Frame) error {
		switch f.Kind {
		case protocol.FrameMessage:
			return client.Render(out, f.Data)
		case protocol.FrameError:
			e, err := f.Err()
			if err != nil {
				return err
			}
			return describe(e)
		case protocol.FrameEnd:
			fmt.Fprintln(out, "\nStream completed.")
		}
		return nil
	})
}

func describe(err error) error {
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		return err
	}
	switch perr.Kind {
	case protocol.KindCityNotFound:
		return fmt.Errorf("could not find weather data: %s, check the city name and try again", perr.Message)
	case protocol.KindUpstreamTimeout:
		return fmt.Errorf("timed out getting weather data, try again later")
	case protocol.KindUpstreamUnreachable, protocol.KindUpstreamProviderError:
		return fmt.Errorf("the weather service might be unavailable: %s", perr.Message)
	default:
		return perr
	}
}

func init() {
	askCmd.Flags().BoolVar(&streamMode, "stream", false, "Register a stream session and read the result from it")
	askCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall request timeout")
	rootCmd.AddCommand(askCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
