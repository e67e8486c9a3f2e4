package chronicle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/mnemo/internal/model"
)

// Record is the generic event row consumed by external chronicle
// tooling. One row per timeline event, contradiction, or pattern.
type Record struct {
	Title        string
	Description  string
	Timestamp    string // ISO date, empty for undated findings
	Category     string // event, contradiction, pattern
	Actor        string // subject entity surface name, if known
	Tags         string // semicolon-joined
	EvidenceRefs string // semicolon-joined claim IDs
}

var header = []string{"title", "description", "timestamp", "category", "actor", "tags", "evidence_refs"}

// Records flattens a snapshot into chronicle rows. Entities resolve
// subject IDs into display names; pass nil to fall back to raw IDs.
func Records(snap *model.Snapshot, entities []model.Entity) []Record {
	names := make(map[string]string, len(entities))
	for _, e := range entities {
		names[e.ID] = e.SurfaceText
	}
	actor := func(subjectID string) string {
		if name, ok := names[subjectID]; ok {
			return name
		}
		return subjectID
	}

	var records []Record
	for _, ev := range snap.Timeline {
		records = append(records, Record{
			Title:        truncate(ev.Description, 60),
			Description:  ev.Description,
			Timestamp:    ev.Timestamp.Format("2006-01-02"),
			Category:     "event",
			Actor:        actor(ev.SubjectID),
			Tags:         fmt.Sprintf("importance:%.1f", ev.Importance),
			EvidenceRefs: strings.Join(ev.SourceClaimID, ";"),
		})
	}
	for _, c := range snap.Contradictions {
		records = append(records, Record{
			Title:        "Contradiction: " + actor(c.SubjectID),
			Description:  c.Reason,
			Category:     "contradiction",
			Actor:        actor(c.SubjectID),
			Tags:         "supersession",
			EvidenceRefs: c.EarlierClaimID + ";" + c.LaterClaimID,
		})
	}
	for _, p := range snap.Patterns {
		records = append(records, Record{
			Title:        fmt.Sprintf("Pattern: %s %s", p.Kind, actor(p.SubjectID)),
			Description:  p.Description,
			Category:     "pattern",
			Actor:        actor(p.SubjectID),
			Tags:         fmt.Sprintf("%s;confidence:%.2f;%s", p.Kind, p.Confidence, p.Trend),
			EvidenceRefs: strings.Join(p.InstanceClaimIDs, ";"),
		})
	}
	return records
}

// Write emits records as CSV with a header row
func Write(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Title, rec.Description, rec.Timestamp, rec.Category, rec.Actor, rec.Tags, rec.EvidenceRefs}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile exports a snapshot to a CSV file
func WriteFile(path string, snap *model.Snapshot, entities []model.Entity) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, Records(snap, entities)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
