package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/veltec-mfg/scanintakego/internal/capture"
	"github.com/veltec-mfg/scanintakego/internal/config"
	"github.com/veltec-mfg/scanintakego/internal/ledger"
	"github.com/veltec-mfg/scanintakego/internal/registry"
	"github.com/veltec-mfg/scanintakego/internal/scan"
)

// The kiosk drives the scan intake engine from a terminal: every input
// line is replayed as key events through the capture layer, exactly as a
// USB scanner in keyboard-wedge mode would produce them. Lines starting
// with ':' are operator commands instead.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client := ledger.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.RequestTimeout)
	client.AuthToken = os.Getenv("KIOSK_TOKEN")

	reg := registry.New(client)

	stdin := bufio.NewScanner(os.Stdin)

	coordinator := scan.NewCoordinator(client, reg, scan.Options{
		Operator:    os.Getenv("KIOSK_OPERATOR"),
		SettleDelay: cfg.Intake.SettleDelay,
		Timeout:     cfg.Ledger.RequestTimeout,
		OnRedirect: func(jobNumber string) {
			fmt.Printf(">> switched to job %s\n", jobNumber)
		},
		Confirm: func(prompt string) bool {
			fmt.Printf("%s [y/N] ", prompt)
			if !stdin.Scan() {
				return false
			}
			return strings.EqualFold(strings.TrimSpace(stdin.Text()), "y")
		},
	})

	wedge := capture.New(cfg.Intake.DebounceInterval, func(token string) {
		report(coordinator.Process(token))
	})

	if job := os.Getenv("KIOSK_JOB"); job != "" {
		switchJob(reg, job)
	}

	fmt.Println("Scan a label, or :help for commands.")
	for stdin.Scan() {
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if !runCommand(line, reg, coordinator, stdin) {
				return
			}
			continue
		}

		// Replay the line through the framing layer as key events.
		for _, r := range line {
			wedge.OnKey(capture.KeyEvent{Key: string(r)})
		}
		wedge.OnKey(capture.KeyEvent{Key: capture.EnterKey})
	}
}

func report(res scan.Result) {
	switch res.Outcome {
	case scan.OutcomeCommitted:
		fmt.Printf("✓ %s\n", res.Message)
	case scan.OutcomeRedirected:
		fmt.Printf(">> %s\n", res.Message)
	case scan.OutcomeDropped:
		fmt.Printf("… %s\n", res.Message)
	default:
		fmt.Printf("✗ %s\n", res.Message)
	}
}

func switchJob(reg *registry.Registry, jobNumber string) {
	reg.SwitchJob(jobNumber)
	if err := reg.Refresh(context.Background()); err != nil {
		fmt.Printf("✗ could not load pallets for job %s: %v\n", jobNumber, err)
		return
	}
	fmt.Printf("Job %s: %d pallet(s)\n", jobNumber, len(reg.Pallets()))
}

func runCommand(line string, reg *registry.Registry, coordinator *scan.Coordinator, stdin *bufio.Scanner) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return false

	case ":job":
		if len(fields) != 2 {
			fmt.Println("usage: :job <jobNumber>")
			break
		}
		switchJob(reg, fields[1])

	case ":pallets":
		for _, p := range reg.Pallets() {
			marker := " "
			if active := reg.Active(); active != nil && active.ID == p.ID {
				marker = "*"
			}
			state := ""
			if p.HasPackagingBeenGenerated {
				state = " [locked]"
			}
			fmt.Printf("%s %d  %s  (%d items)%s\n", marker, p.ID, p.Name, p.ItemCount, state)
		}

	case ":pallet":
		if len(fields) != 2 {
			fmt.Println("usage: :pallet <id> | :pallet new")
			break
		}
		if fields[1] == "new" {
			pallet, err := reg.Create(context.Background(), "")
			if err != nil {
				fmt.Printf("✗ %v\n", err)
				break
			}
			fmt.Printf("✓ pallet %s created and active\n", pallet.Name)
			break
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Println("usage: :pallet <id> | :pallet new")
			break
		}
		reg.SetActive(id)
		if active := reg.Active(); active != nil && active.ID == id {
			fmt.Printf("✓ active pallet: %s\n", active.Name)
		} else {
			fmt.Println("✗ no such pallet")
		}

	case ":delete":
		if len(fields) != 3 {
			fmt.Println("usage: :delete <qrCode> <palletId>")
			break
		}
		palletID, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			fmt.Println("usage: :delete <qrCode> <palletId>")
			break
		}
		if err := coordinator.DeleteScan(fields[1], palletID); err != nil {
			fmt.Printf("✗ %v\n", err)
		} else {
			fmt.Println("✓ scan deleted")
		}

	case ":log":
		for _, e := range coordinator.Session().Entries() {
			fmt.Printf("%s  %-7s  %s  %s\n",
				e.Timestamp.Format("15:04:05"), e.Status, e.QRCode, e.Message)
		}

	case ":help":
		fmt.Println(":job <n>     switch job context")
		fmt.Println(":pallets     list pallets (* = active)")
		fmt.Println(":pallet <id> select active pallet, :pallet new to create")
		fmt.Println(":delete <qr> <palletId>  delete a committed scan")
		fmt.Println(":log         show this session's scan attempts")
		fmt.Println(":quit        exit")

	default:
		fmt.Println("unknown command, :help for help")
	}
	return true
}
