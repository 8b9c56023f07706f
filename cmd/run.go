// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Thermoquad/rover/pkg/rover"
	"github.com/spf13/cobra"
)

var serialControl bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the motor control loop",
	Long: `Run the command arbitration and motor drive loop until interrupted.

Every 2 seconds the wireless bridge is checked for a command byte. Bytes 1-5
select Forward, Backward, Left, Right or Stop; any other byte stops the
vehicle. The selected command is applied to both motors every 10 ms.

Typed console characters 1-5 are echoed as "Serial Command" diagnostics but do
not change the command unless --serial-control is given. Any other character
flushes the console input.

If the wireless bridge cannot be opened "init failed" is printed and the loop
runs anyway with the motors stopped.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&serialControl, "serial-control", false, "Let valid console characters change the current command")
}

// consoleOpener attaches the serial console. Replaced in tests.
var consoleOpener = openConsole

// openRunHardware opens the vehicle before the console: a raw-mode console
// pumps stdin, and the radio bridge password prompt must read it first.
func openRunHardware(interrupt func()) (*vehicle, *console, error) {
	v, err := openVehicle()
	if err != nil {
		return nil, nil, err
	}
	con, err := consoleOpener(interrupt)
	if err != nil {
		v.Close()
		return nil, nil, err
	}
	return v, con, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, con, err := openRunHardware(stop)
	if err != nil {
		return err
	}
	defer con.Close()
	defer v.Close()

	diag, closeLog := openDiagnostics(con.out)
	defer closeLog()
	v.listen(diag)

	fmt.Fprintf(diag, "Rover - Direction Controller\n")
	fmt.Fprintf(diag, "Radio: %s\n", v.radioInfo)
	fmt.Fprintf(diag, "Motors: %s\n", v.motorInfo)
	fmt.Fprintf(diag, "Console: %s\n", con.info)
	fmt.Fprintf(diag, "Press Ctrl+C to exit\n\n")

	ctrl := rover.NewController(rover.Config{
		Radio:         v.receiver(),
		RadioErr:      v.radioErr,
		Console:       con.buf,
		Right:         v.right,
		Left:          v.left,
		Output:        diag,
		SerialControl: serialControl,
	})
	err = ctrl.Run(ctx)
	fmt.Fprintf(diag, "Radio: %s\n", v.radioSummary())
	return err
}
