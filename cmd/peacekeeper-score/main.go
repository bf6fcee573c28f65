// Command peacekeeper-score scores text offline for threshold tuning.
//
//	peacekeeper-score < lines.txt
//	peacekeeper-score -analyze -sensitivity high < window.json
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/core/hostility"
)

// maxLine bounds a single stdin line
const maxLine = 1 << 20

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "peacekeeper-score:", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("peacekeeper-score", flag.ContinueOnError)
	var (
		fAnalyze = fs.Bool("analyze", false, "read a JSON array of messages and print the verdict")
		fTier    = fs.String("sensitivity", string(conflict.Medium), "threshold tier: low | medium | high | ultra")
		fWindow  = fs.Duration("window", conflict.DefaultWindow, "rapid exchange window")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fAnalyze {
		tier, err := conflict.ParseSensitivity(*fTier)
		if err != nil {
			return err
		}
		return analyze(in, out, tier, *fWindow)
	}
	return score(in, out)
}

// score prints score<TAB>breakdown<TAB>text for every stdin line
func score(in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	w := bufio.NewWriter(out)
	defer w.Flush()

	for sc.Scan() {
		text := sc.Text()
		b := hostility.Explain(text)
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%.4f\t%s\t%s\n", b.Total, raw, text)
	}
	return sc.Err()
}

type analysis struct {
	conflict.Verdict
	Sensitivity  conflict.Sensitivity `json:"sensitivity"`
	Threshold    float64              `json:"threshold"`
	Participants []string             `json:"participants"`
}

func analyze(in io.Reader, out io.Writer, tier conflict.Sensitivity, window time.Duration) error {
	var msgs []conflict.Message
	if err := json.NewDecoder(in).Decode(&msgs); err != nil {
		return fmt.Errorf("decode messages: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp < msgs[j].Timestamp })

	res := analysis{
		Verdict:      conflict.Detect(msgs, conflict.Options{Window: window, Threshold: conflict.Threshold(tier.Threshold())}),
		Sensitivity:  tier,
		Threshold:    tier.Threshold(),
		Participants: conflict.Participants(msgs),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
