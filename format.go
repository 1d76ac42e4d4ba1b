package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"poffin-planner/internal/berry"
	"poffin-planner/internal/poffin"
)

var conditionHeader = table.Row{"Cool", "Beauty", "Cute", "Smart", "Tough", "Sheen"}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// rightAlign right-aligns columns from..to (1-based, inclusive).
func rightAlign(t table.Writer, from, to int) {
	cfgs := make([]table.ColumnConfig, 0, to-from+1)
	for n := from; n <= to; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cfgs)
}

func recipeLabel(c *CandidateView) string {
	return strings.Join(c.Berries, " + ")
}

func flavorLabel(f [5]int) string {
	parts := make([]string, len(f))
	for i, v := range f {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "/")
}

func stateRow(lead table.Row, conds [5]int, sheen int) table.Row {
	row := append(table.Row{}, lead...)
	for _, v := range conds {
		row = append(row, v)
	}
	return append(row, sheen)
}

// FormatCandidates renders a candidate table, best first.
func FormatCandidates(title string, cands []CandidateView) string {
	t := newTable(title)
	t.AppendHeader(table.Row{"#", "Berries", "Flavors", "Smooth", "Kind", "Lvl", "Score", "Rarity", "Dup"})
	for i := range cands {
		c := &cands[i]
		t.AppendRow(table.Row{i + 1, recipeLabel(c), flavorLabel(c.Flavors), c.Smoothness, c.Kind, c.Level, c.Score, c.Rarity, c.Duplicates})
	}
	rightAlign(t, 4, 9)
	return t.Render()
}

// FormatGreedy renders the greedy feeding steps.
func FormatGreedy(g *GreedyView) string {
	t := newTable("Greedy")
	t.AppendHeader(append(table.Row{"Step", "Berries", "Smooth"}, conditionHeader...))
	for i := range g.Steps {
		s := &g.Steps[i]
		t.AppendRow(stateRow(table.Row{i + 1, recipeLabel(&s.Candidate), s.Candidate.Smoothness}, s.Conditions, s.Sheen))
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("score %d, %s, %d perfect, %d berries", g.Score, g.Rank, g.Perfect, g.Distinct)})
	return t.Render()
}

// FormatPlans renders the exhaustive plans, best first.
func FormatPlans(plans []PlanView) string {
	t := newTable("Exhaustive")
	t.AppendHeader(append(table.Row{"#", "Sequence", "Score", "Poffins", "Rank", "Outcome"}, append(conditionHeader, "Extra")...))
	for i := range plans {
		p := &plans[i]
		seq := make([]string, len(p.Sequence))
		for j := range p.Sequence {
			seq[j] = recipeLabel(&p.Sequence[j])
		}
		row := stateRow(table.Row{i + 1, strings.Join(seq, " | "), p.Score, p.Poffins, p.Rank, p.Outcome}, p.Conditions, p.Sheen)
		t.AppendRow(append(row, extraLabel(p.ExtraToCap)))
	}
	return t.Render()
}

func extraLabel(n int) string {
	if n < 0 {
		return "-"
	}
	return fmt.Sprint(n)
}

// FormatReport renders everything a report holds.
func FormatReport(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d berries", r.RunID, r.Pool)
	if r.Pruned > 0 {
		fmt.Fprintf(&b, ", %d on the front, %d searched", r.Pruned, r.Searched)
	}
	if r.Evaluated > 0 {
		fmt.Fprintf(&b, ", %d plans evaluated on %d workers", r.Evaluated, r.Workers)
	}
	fmt.Fprintf(&b, " in %.1fs\n", float64(r.TimeMs)/1000)

	if len(r.Candidates) > 0 {
		b.WriteString(FormatCandidates("Candidates", r.Candidates))
		b.WriteByte('\n')
	}
	if r.Greedy != nil {
		b.WriteString(FormatGreedy(r.Greedy))
		b.WriteByte('\n')
	}
	if len(r.Plans) > 0 {
		b.WriteString(FormatPlans(r.Plans))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatBerries renders the catalog.
func FormatBerries(bs []berry.Berry) string {
	t := newTable("")
	header := table.Row{"ID", "Name"}
	for a := poffin.Axis(0); a < poffin.NumAxes; a++ {
		header = append(header, a.String())
	}
	t.AppendHeader(append(header, "Smooth", "Rarity"))
	for _, b := range bs {
		row := table.Row{b.ID, b.Name}
		for _, v := range b.Flavors {
			row = append(row, v)
		}
		t.AppendRow(append(row, b.Smoothness, b.Rarity))
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d berries", len(bs))})
	rightAlign(t, 3, 9)
	return t.Render()
}
