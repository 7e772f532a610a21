package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	apiclient "github.com/bledden/tinker-voice/internal/api/client"
	"github.com/bledden/tinker-voice/internal/dataset"
	"github.com/bledden/tinker-voice/internal/elevenlabs"
	"github.com/bledden/tinker-voice/internal/tinker"
	"github.com/bledden/tinker-voice/internal/yutori"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printKeysTable(w io.Writer, keys []domain.KeyStatus) error {
	tw := newTabWriter(w)
	tw.writef("SERVICE\tCONFIGURED\tVALID\tLAST CHECKED\tERROR\n")
	for i := range keys {
		k := &keys[i]
		valid := "-"
		if k.Valid != nil {
			valid = fmt.Sprintf("%v", *k.Valid)
		}
		checked := "-"
		if k.LastChecked != nil {
			checked = k.LastChecked.Format(timeLayout)
		}
		tw.writef("%s\t%v\t%s\t%s\t%s\n", k.Service, k.Configured, valid, checked, truncate(k.LastError, 40))
	}
	return tw.finish()
}

func printVoicesTable(w io.Writer, voices []elevenlabs.Voice) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tCATEGORY\n")
	for i := range voices {
		tw.writef("%s\t%s\t%s\n", voices[i].VoiceID, voices[i].Name, voices[i].Category)
	}
	return tw.finish()
}

func printResearch(w io.Writer, r *yutori.ResearchResult) error {
	tw := newTabWriter(w)
	tw.writef("Research ID:\t%s\n", r.Metadata.ResearchID)
	tw.writef("Sources:\t%d\n", r.Metadata.SourcesConsulted)
	tw.writef("Duration:\t%dms\n", r.Metadata.DurationMs)
	if err := tw.finish(); err != nil {
		return err
	}
	tw = newTabWriter(w)
	tw.writef("\n%s\n", r.Summary)
	for _, in := range r.Insights {
		tw.writef("  - %s\n", in)
	}
	for i := range r.Sources {
		tw.writef("  [%d]\t%s\t%s\n", i+1, truncate(r.Sources[i].Title, 50), r.Sources[i].URL)
	}
	return tw.finish()
}

func printMLResearch(w io.Writer, r *yutori.MLResearchResult) error {
	tw := newTabWriter(w)
	tw.writef("PARAMETER\tVALUE\tRATIONALE\n")
	for _, p := range r.RecommendedParams {
		tw.writef("%s\t%s\t%s\n", p.Name, p.Value, truncate(p.Rationale, 60))
	}
	for _, sec := range []struct {
		title string
		items []string
	}{
		{"Best practices", r.BestPractices},
		{"Data patterns", r.DataPatterns},
		{"Pitfalls", r.Pitfalls},
	} {
		if len(sec.items) == 0 {
			continue
		}
		tw.writef("\n%s:\n", sec.title)
		for _, s := range sec.items {
			tw.writef("  - %s\n", s)
		}
	}
	return tw.finish()
}

func printRunsTable(w io.Writer, runs []apiclient.Run) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tSTATUS\tMODEL\tTYPE\tPROGRESS\tCREATED\n")
	for i := range runs {
		r := &runs[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			r.ID,
			truncate(r.Name, 30),
			r.Status,
			r.Model,
			r.TrainingType,
			r.PercentComplete,
			r.CreatedAt.Format(timeLayout),
		)
	}
	return tw.finish()
}

func printRunDetail(w io.Writer, r *apiclient.Run) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", r.ID)
	if r.Name != "" {
		tw.writef("Name:\t%s\n", r.Name)
	}
	tw.writef("Status:\t%s\n", r.Status)
	tw.writef("Model:\t%s\n", r.Model)
	tw.writef("Type:\t%s\n", r.TrainingType)
	tw.writef("Progress:\t%.1f%%\n", r.PercentComplete)
	if p := r.Progress; p != nil {
		tw.writef("Step:\t%d/%d\n", p.CurrentStep, p.TotalSteps)
		tw.writef("Epoch:\t%d/%d\n", p.CurrentEpoch, p.TotalEpochs)
		if p.Loss != nil {
			tw.writef("Loss:\t%.4f\n", *p.Loss)
		}
	}
	tw.writef("Created:\t%s\n", r.CreatedAt.Format(timeLayout))
	if r.Error != "" {
		tw.writef("Error:\t%s\n", r.Error)
	}
	return tw.finish()
}

func printCheckpointsTable(w io.Writer, cps []tinker.Checkpoint) error {
	tw := newTabWriter(w)
	tw.writef("ID\tSTEP\tLOSS\tSIZE\tPATH\n")
	for i := range cps {
		c := &cps[i]
		loss := "-"
		if c.Metrics != nil {
			loss = fmt.Sprintf("%.4f", c.Metrics.Loss)
		}
		tw.writef("%s\t%d\t%s\t%d\t%s\n", c.ID, c.Step, loss, c.SizeBytes, c.Path)
	}
	return tw.finish()
}

func printModelsTable(w io.Writer, models []tinker.ModelInfo) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tPARAMS\tTYPES\tMAX LORA RANK\t$/M TOKENS\n")
	for i := range models {
		m := &models[i]
		types := make([]string, len(m.SupportedTrainingTypes))
		for j, t := range m.SupportedTrainingTypes {
			types[j] = string(t)
		}
		tw.writef("%s\t%s\t%s\t%s\t%d\t%.2f\n",
			m.ID, m.Name, m.Parameters, strings.Join(types, ","), m.MaxLoraRank, m.PricePerMillionTokens)
	}
	return tw.finish()
}

func printExamplesTable(w io.Writer, examples []domain.TrainingExample) error {
	tw := newTabWriter(w)
	tw.writef("#\tINPUT\tOUTPUT\n")
	for i := range examples {
		tw.writef("%d\t%s\t%s\n", i+1, truncate(oneLine(examples[i].Input), 50), truncate(oneLine(examples[i].Output), 50))
	}
	return tw.finish()
}

func printStats(w io.Writer, st *dataset.Stats) error {
	tw := newTabWriter(w)
	tw.writef("Samples:\t%d\n", st.NumSamples)
	tw.writef("Avg input length:\t%d\n", st.AvgInputLength)
	tw.writef("Avg output length:\t%d\n", st.AvgOutputLength)
	tw.writef("Avg tokens/sample:\t%d\n", st.AvgTokensPerSample)
	tw.writef("Token range:\t%d-%d\n", st.MinTokens, st.MaxTokens)
	tw.writef("System prompts:\t%v (%d unique)\n", st.HasSystemPrompts, st.UniqueSystemPrompts)
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
