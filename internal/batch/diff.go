package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/repository"
)

// DiffSummary reports how many rows a differential export serialized.
type DiffSummary struct {
	Businesses   int `json:"businesses"`
	Translations int `json:"translations"`
}

// DiffExporter serializes rows modified after a saved watermark as idempotent
// SQL, for carrying enrichment work from one copy of the data store into
// another. The watermark lives in a small state file next to the operator's
// working data.
type DiffExporter struct {
	businesses repository.BusinessesRepository
	stateFile  string
	log        *slog.Logger
}

// NewDiffExporter wires a differential exporter.
func NewDiffExporter(businesses repository.BusinessesRepository, stateFile string, log *slog.Logger) *DiffExporter {
	if log == nil {
		log = slog.Default()
	}
	return &DiffExporter{businesses: businesses, stateFile: stateFile, log: log}
}

// Export writes SQL for every business modified after the saved watermark,
// or for every business when all is set or no watermark exists. Business rows
// become plain UPDATE statements keyed on id; translation rows become
// INSERT ... ON CONFLICT DO UPDATE so the script can be re-applied safely.
// On success the watermark advances to the newest serialized updated_at.
func (d *DiffExporter) Export(ctx context.Context, w io.Writer, all bool) (DiffSummary, error) {
	var summary DiffSummary

	var since *time.Time
	if !all {
		loaded, err := d.loadWatermark()
		if err != nil {
			return summary, err
		}
		since = loaded
	}

	businesses, err := d.businesses.ModifiedSince(ctx, since)
	if err != nil {
		return summary, err
	}
	if len(businesses) == 0 {
		d.log.Info("differential export found no modified rows")
		return summary, nil
	}

	var out strings.Builder
	var newest time.Time

	for _, business := range businesses {
		out.WriteString(businessUpdateSQL(&business))
		summary.Businesses++
		if business.UpdatedAt.After(newest) {
			newest = business.UpdatedAt
		}

		translations, err := d.businesses.ListTranslations(ctx, business.ID)
		if err != nil {
			return summary, err
		}
		for _, tr := range translations {
			out.WriteString(translationUpsertSQL(&tr))
			summary.Translations++
		}
	}

	if _, err := io.WriteString(w, out.String()); err != nil {
		return summary, fmt.Errorf("write diff output: %w", err)
	}
	if err := d.saveWatermark(newest); err != nil {
		return summary, err
	}

	d.log.Info("differential export complete",
		"businesses", summary.Businesses, "translations", summary.Translations,
		"watermark", newest.Format(time.RFC3339))
	return summary, nil
}

func (d *DiffExporter) loadWatermark() (*time.Time, error) {
	data, err := os.ReadFile(d.stateFile)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watermark file: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse watermark file: %w", err)
	}
	return &ts, nil
}

func (d *DiffExporter) saveWatermark(ts time.Time) error {
	line := ts.UTC().Format(time.RFC3339Nano) + "\n"
	if err := os.WriteFile(d.stateFile, []byte(line), 0o644); err != nil {
		return fmt.Errorf("save watermark file: %w", err)
	}
	return nil
}

func businessUpdateSQL(b *entity.CandidateBusiness) string {
	hoursJSON, _ := json.Marshal(b.OpeningHours)
	if b.OpeningHours == nil {
		hoursJSON = []byte("{}")
	}

	return fmt.Sprintf(
		"UPDATE businesses SET name = %s, slug = %s, address = %s, phone = %s, "+
			"website = %s, email = %s, opening_hours = %s::jsonb, status = %s, "+
			"updated_at = %s WHERE id = %s;\n",
		sqlString(b.Name),
		sqlStringPtr(b.Slug),
		sqlStringPtr(b.Address),
		sqlStringPtr(b.Phone),
		sqlStringPtr(b.Website),
		sqlStringPtr(b.Email),
		sqlString(string(hoursJSON)),
		sqlString(string(b.Status)),
		sqlString(b.UpdatedAt.UTC().Format(time.RFC3339Nano)),
		sqlString(b.ID.String()),
	)
}

func translationUpsertSQL(tr *entity.BusinessTranslation) string {
	return fmt.Sprintf(
		"INSERT INTO business_translations (business_id, locale, summary, description, updated_at) "+
			"VALUES (%s, %s, %s, %s, %s) "+
			"ON CONFLICT (business_id, locale) DO UPDATE SET "+
			"summary = EXCLUDED.summary, description = EXCLUDED.description, "+
			"updated_at = EXCLUDED.updated_at;\n",
		sqlString(tr.BusinessID.String()),
		sqlString(tr.Locale),
		sqlStringPtr(tr.Summary),
		sqlStringPtr(tr.Description),
		sqlString(tr.UpdatedAt.UTC().Format(time.RFC3339Nano)),
	)
}

func sqlString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func sqlStringPtr(value *string) string {
	if value == nil {
		return "NULL"
	}
	return sqlString(*value)
}
