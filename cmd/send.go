// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Thermoquad/rover/pkg/rover"
	"github.com/spf13/cobra"
)

var (
	sendRepeat   int
	sendInterval time.Duration
	sendRaw      bool
)

var sendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Transmit a command byte over the wireless bridge",
	Long: `Transmit one command to the vehicle through the radio bridge.

The command is a code (1-5) or a name (forward, backward, left, right, stop).
With --raw any byte value 0-255 is sent unchecked, which is useful to check
that the vehicle stops on garbage.

The receiver only looks for a command every 2 seconds and keeps the latest
byte, so --repeat with an --interval of 2s or less makes sure it is seen.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "Number of transmissions")
	sendCmd.Flags().DurationVar(&sendInterval, "interval", 500*time.Millisecond, "Pause between transmissions")
	sendCmd.Flags().BoolVar(&sendRaw, "raw", false, "Send the argument as a raw byte value (0-255)")
}

// parseSendArg returns the payload byte and its display label
func parseSendArg(arg string, raw bool) (byte, string, error) {
	if raw {
		n, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return 0, "", fmt.Errorf("invalid raw byte %q: %w", arg, err)
		}
		b := byte(n)
		if c := rover.ParseCommandByte(b); c.Valid() {
			return b, c.Label(), nil
		}
		return b, fmt.Sprintf("%d (Invalid)", b), nil
	}

	c, err := rover.ParseCommandName(arg)
	if err != nil {
		return 0, "", err
	}
	return byte(c), c.Label(), nil
}

func runSend(cmd *cobra.Command, args []string) error {
	payload, label, err := parseSendArg(args[0], sendRaw)
	if err != nil {
		return err
	}
	if sendRepeat < 1 {
		return fmt.Errorf("--repeat must be at least 1")
	}

	conn, err := OpenRadioConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Rover - Send\n")
	fmt.Printf("Connection: %s\n\n", conn)

	for i := 0; i < sendRepeat; i++ {
		if i > 0 {
			time.Sleep(sendInterval)
		}
		if _, err := conn.Write([]byte{payload}); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
		fmt.Printf("[%s] Sent: %s\n", time.Now().Format("15:04:05.000"), label)
	}
	return nil
}
