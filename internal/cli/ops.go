package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/coolyuoo/memstress/internal/client"
	"github.com/spf13/cobra"
)

// growChunkMB is the --chunk flag for the grow command; 0 means server default.
var growChunkMB int

func init() {
	growCmd.Flags().IntVar(&growChunkMB, "chunk", 0, "Block size in MB within the new group (0 = server default)")
}

// statusCmd queries a running server for its pool totals
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show allocated memory on a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, cancel, err := newClient()
		if err != nil {
			return err
		}
		defer cancel()

		status, err := c.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch status: %w", err)
		}

		if jsonOutput {
			return printJSON(status)
		}
		fmt.Printf("allocated: %d MB in %d groups", status.AllocatedMB, status.Groups)
		if status.RSSMB > 0 {
			fmt.Printf(" (process RSS %d MB)", status.RSSMB)
		}
		fmt.Println()
		return nil
	},
}

// growCmd adds memory to a running server
var growCmd = &cobra.Command{
	Use:   "grow <mb>",
	Short: "Grow the pool by the given amount of MB",
	Long: `Grow the pool on a running server by the given amount of megabytes.
Example: memstress grow 300 --chunk 8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mb, err := parseMB(args[0])
		if err != nil {
			return err
		}

		c, ctx, cancel, err := newClient()
		if err != nil {
			return err
		}
		defer cancel()

		result, err := c.Add(ctx, mb, growChunkMB)
		if err != nil {
			return fmt.Errorf("grow failed: %w", err)
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("added %d MB (chunk %d MB), total now %d MB\n", result.AddedMB, result.ChunkMB, result.TotalMB)
		return nil
	},
}

// setCmd converges a running server to an absolute target
var setCmd = &cobra.Command{
	Use:   "set <mb>",
	Short: "Converge the pool to an absolute target in MB",
	Long: `Converge the pool on a running server to an absolute total.
Example: memstress set 600`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mb, err := parseMB(args[0])
		if err != nil {
			return err
		}

		c, ctx, cancel, err := newClient()
		if err != nil {
			return err
		}
		defer cancel()

		result, err := c.Set(ctx, mb)
		if err != nil {
			return fmt.Errorf("set failed: %w", err)
		}

		if jsonOutput {
			return printJSON(result)
		}
		if result.Note != "" {
			fmt.Printf("total %d MB (%s)\n", result.TotalMB, result.Note)
		} else {
			fmt.Printf("total now %d MB\n", result.TotalMB)
		}
		return nil
	},
}

// freeCmd releases memory on a running server
var freeCmd = &cobra.Command{
	Use:   "free <mb>",
	Short: "Free up to the given amount of MB from the pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mb, err := parseMB(args[0])
		if err != nil {
			return err
		}

		c, ctx, cancel, err := newClient()
		if err != nil {
			return err
		}
		defer cancel()

		result, err := c.Free(ctx, mb)
		if err != nil {
			return fmt.Errorf("free failed: %w", err)
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("freed up to %d MB, total now %d MB\n", result.FreedRequestMB, result.TotalMB)
		return nil
	},
}

// clearCmd releases everything on a running server
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Release all memory held by the pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, cancel, err := newClient()
		if err != nil {
			return err
		}
		defer cancel()

		result, err := c.Clear(ctx)
		if err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("cleared, total now %d MB\n", result.TotalMB)
		return nil
	},
}

// newClient builds a client for the --server URL with a request timeout context
func newClient() (*client.Client, context.Context, context.CancelFunc, error) {
	c, err := client.NewClient(serverURL)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	return c, ctx, cancel, nil
}

// parseMB parses a positional megabyte argument
func parseMB(arg string) (int, error) {
	mb, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid mb value %q: must be an integer", arg)
	}
	return mb, nil
}

// printJSON writes a value as indented JSON to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
