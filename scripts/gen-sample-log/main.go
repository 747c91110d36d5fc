// gen-sample-log emits synthetic PostgreSQL slow-query logs in every format
// querydoctor reads, for demos and manual testing. The query mix includes
// patterns the static analyzer flags (leading wildcards, functions on
// columns, comma joins) so generated reports have something to say.
//
// Usage: go run ./scripts/gen-sample-log [-out DIR] [-records N] [-seed N] [-format plain|delimited|structured-lines|all]
//
// Output is deterministic for a given seed.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var surnames = []string{"smith", "garcia", "chen", "okafor", "ivanov", "dubois", "tanaka", "rossi"}

// queryTemplate generates one family of statements. Durations are drawn from
// a normal distribution around meanMS so executions of the same pattern
// cluster the way real workloads do.
type queryTemplate struct {
	build  func(r *rand.Rand) string
	meanMS float64
	spread float64
	weight int
}

var templates = []queryTemplate{
	{
		build: func(r *rand.Rand) string {
			return fmt.Sprintf("SELECT * FROM users WHERE id = %d", r.Intn(100000))
		},
		meanMS: 130, spread: 50, weight: 6,
	},
	{
		build: func(r *rand.Rand) string {
			return fmt.Sprintf("SELECT o.id, o.total FROM orders o JOIN order_items i ON i.order_id = o.id WHERE o.customer_id = %d AND o.created_at > '2024-01-01'", r.Intn(5000))
		},
		meanMS: 850, spread: 350, weight: 4,
	},
	{
		build: func(r *rand.Rand) string {
			return fmt.Sprintf("SELECT * FROM customers WHERE name LIKE '%%%s%%'", surnames[r.Intn(len(surnames))])
		},
		meanMS: 2400, spread: 800, weight: 3,
	},
	{
		build: func(r *rand.Rand) string {
			return fmt.Sprintf("SELECT * FROM events WHERE lower(email) = '%s@example.com'", surnames[r.Intn(len(surnames))])
		},
		meanMS: 1600, spread: 500, weight: 2,
	},
	{
		build: func(r *rand.Rand) string {
			ids := make([]string, 15)
			for i := range ids {
				ids[i] = strconv.Itoa(r.Intn(9000))
			}
			return "SELECT sku, qty FROM inventory WHERE warehouse_id IN (" + strings.Join(ids, ", ") + ")"
		},
		meanMS: 320, spread: 140, weight: 2,
	},
	{
		build: func(r *rand.Rand) string {
			return "SELECT u.name, p.title FROM users u, posts p WHERE u.signup_year = " + strconv.Itoa(2015+r.Intn(10))
		},
		meanMS: 5200, spread: 2200, weight: 1,
	},
	{
		build: func(r *rand.Rand) string {
			return "SELECT id FROM subscriptions WHERE plan_id NOT IN (SELECT id FROM plans WHERE archived = false)"
		},
		meanMS: 3100, spread: 1100, weight: 1,
	},
}

type record struct {
	ts  time.Time
	ms  float64
	sql string
}

func main() {
	out := flag.String("out", "sample-logs", "output directory")
	records := flag.Int("records", 200, "number of log records")
	seed := flag.Int64("seed", 42, "random seed; same seed, same logs")
	format := flag.String("format", "all", "plain, delimited, structured-lines, or all")
	flag.Parse()

	r := rand.New(rand.NewSource(*seed))
	recs := generate(r, *records)

	if err := os.MkdirAll(*out, 0755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var err error
	switch *format {
	case "plain":
		err = writePlain(filepath.Join(*out, "slow.log"), recs)
	case "delimited":
		err = writeDelimited(filepath.Join(*out, "slow.csv"), recs)
	case "structured-lines":
		err = writeStructured(filepath.Join(*out, "slow.jsonl"), recs)
	case "all":
		for name, write := range map[string]func(string, []record) error{
			"slow.log":   writePlain,
			"slow.csv":   writeDelimited,
			"slow.jsonl": writeStructured,
		} {
			if err = write(filepath.Join(*out, name), recs); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d records per file to %s\n", len(recs), *out)
}

func generate(r *rand.Rand, n int) []record {
	var picks []int
	for i, t := range templates {
		for j := 0; j < t.weight; j++ {
			picks = append(picks, i)
		}
	}

	ts := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	recs := make([]record, 0, n)
	for i := 0; i < n; i++ {
		tpl := templates[picks[r.Intn(len(picks))]]
		ms := tpl.meanMS + r.NormFloat64()*tpl.spread
		if ms < 1 {
			ms = 1
		}
		ts = ts.Add(time.Duration(200+r.Intn(1500)) * time.Millisecond)
		recs = append(recs, record{ts: ts, ms: ms, sql: tpl.build(r)})
	}
	return recs
}

func writePlain(path string, recs []record) error {
	var b strings.Builder
	for _, rec := range recs {
		fmt.Fprintf(&b, "%s UTC [%d] LOG:  duration: %.3f ms  statement: %s\n",
			rec.ts.Format("2006-01-02 15:04:05.000"), 20000+len(rec.sql)%1000, rec.ms, rec.sql)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func writeDelimited(path string, recs []record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "duration_ms", "query"}); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			rec.ts.Format(time.RFC3339Nano),
			strconv.FormatFloat(rec.ms, 'f', 3, 64),
			rec.sql,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeStructured(path string, recs []record) error {
	type line struct {
		Timestamp  string  `json:"timestamp"`
		DurationMS float64 `json:"duration_ms"`
		Query      string  `json:"query"`
	}

	var b strings.Builder
	for _, rec := range recs {
		data, err := json.Marshal(line{
			Timestamp:  rec.ts.Format(time.RFC3339Nano),
			DurationMS: rec.ms,
			Query:      rec.sql,
		})
		if err != nil {
			return err
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
