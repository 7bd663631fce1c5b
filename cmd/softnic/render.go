package main

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/softnic/hal"
)

var (
	headerCellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	cellStyle       = lipgloss.NewStyle()
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Column widths of the frame table.
const (
	colSlot      = 6
	colLength    = 8
	colAddress   = 19
	colEtherType = 10
)

// frameRow summarizes one Ethernet frame.
type frameRow struct {
	Slot      int
	Length    int
	Dst       string
	Src       string
	EtherType string
}

// summarize extracts the Ethernet header fields of frame.
func summarize(slot int, frame []byte) frameRow {
	row := frameRow{Slot: slot, Length: len(frame), Dst: "-", Src: "-", EtherType: "-"}
	if len(frame) < 14 {
		return row
	}
	row.Dst = hal.MACAddress(frame[0:6]).String()
	row.Src = hal.MACAddress(frame[6:12]).String()
	row.EtherType = fmt.Sprintf("0x%04x", binary.BigEndian.Uint16(frame[12:14]))
	return row
}

// etherTypeColor returns a foreground colour for well-known EtherTypes.
func etherTypeColor(et string) lipgloss.Color {
	switch et {
	case "0x0800":
		return lipgloss.Color("2") // green, IPv4
	case "0x86dd":
		return lipgloss.Color("6") // cyan, IPv6
	case "0x0806":
		return lipgloss.Color("3") // yellow, ARP
	case "-":
		return lipgloss.Color("1") // red, runt
	default:
		return lipgloss.Color("8")
	}
}

// renderHeader renders the frame table header.
func renderHeader() string {
	return strings.Join([]string{
		headerCellStyle.Width(colSlot).Render("SLOT"),
		headerCellStyle.Width(colLength).Render("LENGTH"),
		headerCellStyle.Width(colAddress).Render("DST"),
		headerCellStyle.Width(colAddress).Render("SRC"),
		headerCellStyle.Width(colEtherType).Render("TYPE"),
	}, "")
}

// renderRow renders one frame table row.
func renderRow(r frameRow) string {
	slot := "-"
	if r.Slot >= 0 {
		slot = fmt.Sprint(r.Slot)
	}
	return strings.Join([]string{
		cellStyle.Width(colSlot).Render(slot),
		cellStyle.Width(colLength).Render(fmt.Sprint(r.Length)),
		cellStyle.Width(colAddress).Render(r.Dst),
		cellStyle.Width(colAddress).Render(r.Src),
		lipgloss.NewStyle().
			Width(colEtherType).
			Foreground(etherTypeColor(r.EtherType)).
			Render(r.EtherType),
	}, "")
}

// renderDump renders frame bytes as dimmed hex, 16 bytes per line.
func renderDump(frame []byte) string {
	var b strings.Builder
	for off := 0; off < len(frame); off += 16 {
		end := min(off+16, len(frame))
		fmt.Fprintf(&b, "  %04x  % x\n", off, frame[off:end])
	}
	return dimStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}
