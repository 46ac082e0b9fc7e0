// event-cli читает события шлюза (session.*, onboarding.*) из NATS JetStream.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/annel0/bookit/internal/eventbus"
	nats "github.com/nats-io/nats.go"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
	idleTimeout    = time.Second
)

func main() {
	var (
		natsURL    = flag.String("nats", defaultNatsURL, "NATS server URL")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		since      = flag.String("since", "1h", "Time duration since now (e.g., 1h, 30m, 1d)")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
	)
	flag.Parse()

	startTime, err := parseSinceTime(*since, time.Now())
	if err != nil {
		log.Fatalf("❌ Invalid since: %v", err)
	}

	nc, err := nats.Connect(*natsURL, nats.Name("bookit-event-cli"))
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatalf("❌ JetStream unavailable: %v", err)
	}

	filter := eventbus.Filter{Types: parseStringList(*eventTypes)}

	switch *command {
	case "tail":
		if err := tailEvents(js, filter, startTime, *limit, *follow); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		if err := showStats(js, filter, startTime); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}
}

// readEvents вызывает fn для каждого события начиная со startTime.
// Без follow чтение заканчивается, когда поток молчит idleTimeout.
func readEvents(js nats.JetStreamContext, startTime time.Time, follow bool, fn func(*eventbus.Envelope) bool) error {
	sub, err := js.SubscribeSync("bookit.>", nats.StartTime(startTime), nats.AckNone())
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		msg, err := sub.NextMsg(idleTimeout)
		if err == nats.ErrTimeout {
			if follow {
				continue
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("next: %w", err)
		}

		var ev eventbus.Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fmt.Printf("⚠️  skip malformed message on %s\n", msg.Subject)
			continue
		}
		if !fn(&ev) {
			return nil
		}
	}
}

// tailEvents выводит события в реальном времени
func tailEvents(js nats.JetStreamContext, filter eventbus.Filter, startTime time.Time, limit int, follow bool) error {
	fmt.Printf("🎬 Tailing events since %s (limit: %d, follow: %v)\n", startTime.UTC().Format(timeFormat), limit, follow)

	count := 0
	err := readEvents(js, startTime, follow, func(ev *eventbus.Envelope) bool {
		if !matches(ev, filter) {
			return true
		}
		printEvent(ev)
		count++
		return follow || count < limit
	})
	fmt.Printf("\n📊 Total events: %d\n", count)
	return err
}

// showStats выводит число событий по типам
func showStats(js nats.JetStreamContext, filter eventbus.Filter, startTime time.Time) error {
	fmt.Println("📊 Event statistics")

	counts := make(map[string]int)
	err := readEvents(js, startTime, false, func(ev *eventbus.Envelope) bool {
		if matches(ev, filter) {
			counts[ev.EventType]++
		}
		return true
	})
	if err != nil {
		return err
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("Period: %s - now\n", startTime.UTC().Format(timeFormat))
	for _, t := range types {
		fmt.Printf("  %-24s %d\n", t, counts[t])
	}
	return nil
}

func matches(ev *eventbus.Envelope, f eventbus.Filter) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == ev.EventType {
			return true
		}
	}
	return false
}

func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %-22s src=%-10s client=%s %s\n",
		ev.Timestamp.UTC().Format(timeFormat), ev.EventType, ev.Source, ev.Metadata["client_id"], string(ev.Payload))
}

// parseSinceTime понимает Go-длительности и суффикс d (дни).
func parseSinceTime(since string, now time.Time) (time.Time, error) {
	if strings.HasSuffix(since, "d") {
		var days int
		if _, err := fmt.Sscanf(since, "%dd", &days); err != nil {
			return time.Time{}, err
		}
		return now.Add(-time.Duration(days) * 24 * time.Hour), nil
	}
	d, err := time.ParseDuration(since)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
