// Package output renders resolution reports and unit tables as text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"osiaddr/internal/locate"
	"osiaddr/internal/model"
	"osiaddr/internal/resolve"
	"osiaddr/internal/symbol"
)

var (
	labelColor = color.New(color.FgCyan)
	nameColor  = color.New(color.FgYellow, color.Bold)
	markColor  = color.New(color.FgGreen)
)

// Owner returns the owner line of a report: "Function: Init",
// "Class: Foo.bar" or "Unit: 0x1a (anonymous)".
func Owner(rep *resolve.Report) string {
	switch rep.Symbol.Kind {
	case symbol.KindFunction:
		return labelColor.Sprint("Function:") + " " + nameColor.Sprint(rep.Symbol.String())
	case symbol.KindMethod:
		return labelColor.Sprint("Class:") + " " + nameColor.Sprint(rep.Symbol.String())
	}
	return labelColor.Sprint("Unit:") + fmt.Sprintf(" 0x%x (anonymous)", rep.Unit.Offset)
}

// InstructionLine renders "[index] name op1, op2".
func InstructionLine(hit locate.InstructionHit) string {
	return fmt.Sprintf("[%d] %s", hit.Index, hit.Instruction)
}

// WriteReport writes the text form of rep:
//
//	Function: Init
//	  Instruction: [1] call "print"
func WriteReport(w io.Writer, rep *resolve.Report) error {
	_, err := fmt.Fprintf(w, "%s\n  %s %s\n",
		Owner(rep),
		labelColor.Sprint("Instruction:"),
		InstructionLine(rep.Instruction))
	return err
}

// ReportJSON is the JSON form of a report.
type ReportJSON struct {
	Address     string   `json:"address"`
	Unit        string   `json:"unit"`
	UnitIndex   int      `json:"unit_index"`
	UnitSize    uint64   `json:"unit_size"`
	Relative    uint64   `json:"relative"`
	Kind        string   `json:"kind"`
	Symbol      string   `json:"symbol,omitempty"`
	Class       string   `json:"class,omitempty"`
	Index       int      `json:"index"`
	InstOffset  uint64   `json:"inst_offset"`
	Mnemonic    string   `json:"mnemonic"`
	Operands    []string `json:"operands,omitempty"`
	InstSize    int      `json:"inst_size"`
	Instruction string   `json:"instruction"`
}

// ToJSON converts rep to its JSON form.
func ToJSON(rep *resolve.Report) ReportJSON {
	inst := rep.Instruction.Instruction
	out := ReportJSON{
		Address:     fmt.Sprintf("0x%x", rep.Address),
		Unit:        fmt.Sprintf("0x%x", rep.Unit.Offset),
		UnitIndex:   rep.UnitIndex,
		UnitSize:    rep.Unit.Size(),
		Relative:    rep.Relative,
		Kind:        rep.Symbol.Kind.String(),
		Symbol:      rep.Symbol.Name,
		Class:       rep.Symbol.Class,
		Index:       rep.Instruction.Index,
		InstOffset:  rep.Instruction.Offset,
		Mnemonic:    inst.Name,
		InstSize:    inst.Size,
		Instruction: inst.String(),
	}
	for _, op := range inst.Operands {
		out.Operands = append(out.Operands, op.String())
	}
	return out
}

// WriteReportsJSON writes reports as an indented JSON array.
func WriteReportsJSON(w io.Writer, reps []*resolve.Report) error {
	out := make([]ReportJSON, len(reps))
	for i, rep := range reps {
		out[i] = ToJSON(rep)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("output: encode reports: %w", err)
	}
	return nil
}

// WriteUnits writes one row per code unit in table order.
func WriteUnits(w io.Writer, res *model.Resource) error {
	names := symbol.Lookup(&res.Header)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tOFFSET\tEND\tSIZE\tINSTS\tSYMBOL")
	for i, u := range res.Units {
		name := names[u.Offset].String()
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%d\t0x%x\t0x%x\t%s\t%d\t%s\n",
			i, u.Offset, u.End(), humanize.Bytes(u.Size()), len(u.Instructions), name)
	}
	return tw.Flush()
}

// WriteListing writes every instruction of the unit containing rep, marking
// the resolved instruction.
func WriteListing(w io.Writer, rep *resolve.Report) error {
	var b strings.Builder
	b.WriteString(Owner(rep))
	b.WriteByte('\n')
	var off uint64
	for i, inst := range rep.Unit.Instructions {
		mark := "  "
		if i == rep.Instruction.Index {
			mark = markColor.Sprint("=>")
		}
		fmt.Fprintf(&b, "%s 0x%08x  +0x%04x  [%d] %s\n", mark, rep.Unit.Offset+off, off, i, inst)
		off += uint64(inst.Size)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}
