/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	serbridge "github.com/allbin/go-serbridge"
	"github.com/allbin/go-serbridge/internal/tui/styles"
	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial devices that can be bridged",
	Long: `List the serial devices present on the system, to pick a value for --device.

Device types include:
- USB serial adapters (ttyUSB*), the default probe targets
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serbridge.ListPorts()
		if err != nil {
			return fmt.Errorf("list ports: %w", err)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		filtered, err := filterPorts(ports, filterType)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(filtered) == 0 {
			if filterType != "" {
				fmt.Fprintf(out, "No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Fprintln(out, "No serial ports found")
			}
			return nil
		}

		if tableFormat {
			renderTable(out, portInfos(filtered))
		} else {
			renderSimple(out, filtered)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts keeps the ports of the requested type
func filterPorts(ports []string, filterType string) ([]string, error) {
	var match func(name string) bool
	switch strings.ToLower(filterType) {
	case "", "all":
		return ports, nil
	case "usb":
		match = func(name string) bool {
			return strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM")
		}
	case "standard":
		match = func(name string) bool {
			return strings.HasPrefix(name, "ttyS") && !strings.HasPrefix(name, "ttySAC")
		}
	case "arm":
		match = func(name string) bool { return strings.HasPrefix(name, "ttyAMA") }
	default:
		return nil, fmt.Errorf("unknown filter %q (valid: usb, standard, arm, all)", filterType)
	}

	var filtered []string
	for _, port := range ports {
		if match(filepath.Base(port)) {
			filtered = append(filtered, port)
		}
	}
	return filtered, nil
}

func portInfos(ports []string) []*serbridge.PortInfo {
	infos := make([]*serbridge.PortInfo, 0, len(ports))
	for _, port := range ports {
		info, err := serbridge.GetPortInfo(port)
		if err != nil {
			info = &serbridge.PortInfo{Name: filepath.Base(port), Path: port, Description: "Error: " + err.Error()}
		}
		infos = append(infos, info)
	}
	return infos
}

// renderTable renders the port list as a static bubbles table
func renderTable(w io.Writer, infos []*serbridge.PortInfo) {
	fmt.Fprintln(w, styles.TitleStyle.Render(fmt.Sprintf("Found %d serial port(s):", len(infos))))
	fmt.Fprintln(w)

	columns := []table.Column{
		{Title: "Port", Width: 16},
		{Title: "Description", Width: 22},
		{Title: "USB ID", Width: 10},
		{Title: "Product", Width: 28},
	}

	rows := make([]table.Row, 0, len(infos))
	for _, info := range infos {
		usbID := ""
		if info.VendorID != "" {
			usbID = info.VendorID + ":" + info.ProductID
		}
		product := strings.TrimSpace(info.Manufacturer + " " + info.Product)
		rows = append(rows, table.Row{info.Path, info.Description, usbID, product})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+2),
	)
	t.SetStyles(styles.TableStyles())

	fmt.Fprintln(w, t.View())
}

// renderSimple prints one device path per line, USB adapters highlighted
func renderSimple(w io.Writer, ports []string) {
	for _, port := range ports {
		if strings.HasPrefix(filepath.Base(port), "ttyUSB") {
			fmt.Fprintln(w, styles.DeviceStyle.Render(port))
			continue
		}
		fmt.Fprintln(w, port)
	}
}
