// Package csvio converts property listings to and from the back office's
// comma-separated exchange format. Serialization is permissive (export assumes
// already-valid persisted data); parsing validates every row and reports
// per-row diagnostics instead of failing the whole document.
package csvio

import (
	"math"
	"strconv"
	"strings"
	"time"

	"musili-homes-backend/internal/models"
	"musili-homes-backend/internal/validation"
)

// Header columns, in wire order. The parser also accepts a lowercase
// camel-style key for each column so hand-edited files keep working.
var columns = []string{
	"ID", "Title", "Description", "Price", "Location", "Address",
	"Bedrooms", "Bathrooms", "Size (sq ft)", "Status", "Featured",
	"Agent ID", "Agent Name", "Created At", "Image Count",
}

// InvalidRow captures one rejected data row with its raw field map
type InvalidRow struct {
	Row    int               `json:"row"` // 1-based, header counts as row 1
	Data   map[string]string `json:"data"`
	Errors []string          `json:"errors"`
}

// Summary aggregates row counts for an import
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// ImportResult is the outcome of parsing one document. It is produced once per
// Parse call and never stored.
type ImportResult struct {
	Success         bool              `json:"success"`
	ValidProperties []models.Property `json:"valid_properties"`
	InvalidRows     []InvalidRow      `json:"invalid_rows"`
	Summary         Summary           `json:"summary"`
}

// Serialize renders properties as a CSV document with the fixed 15-column
// header. Text fields are double-quoted with embedded quotes doubled; numeric,
// boolean and id fields are emitted bare.
func Serialize(properties []models.Property, agents []models.Agent) string {
	names := make(map[int]string, len(agents))
	for _, a := range agents {
		names[a.ID] = a.Name
	}

	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteByte('\n')

	for _, p := range properties {
		agentName := names[p.AgentID]
		if agentName == "" {
			agentName = "Unknown"
		}

		row := []string{
			strconv.Itoa(p.ID),
			quote(p.Title),
			quote(p.Description),
			formatFloat(p.Price),
			quote(p.Location),
			quote(p.Address),
			strconv.Itoa(p.Bedrooms),
			formatFloat(p.Bathrooms),
			strconv.Itoa(p.Size),
			quote(string(p.Status)),
			formatBool(p.Featured),
			strconv.Itoa(p.AgentID),
			quote(agentName),
			p.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(len(p.Images)),
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}

	return b.String()
}

// Parse reads a CSV document and validates every data row against the supplied
// agent set. It never returns an error: structural problems degrade to an
// empty result and bad rows are reported in InvalidRows.
func Parse(text string, agents []models.Agent) *ImportResult {
	opts := validation.DefaultOptions()
	return ParseWithOptions(text, agents, opts)
}

// ParseWithOptions is Parse with caller-controlled validation rules. The agent
// referential check is always derived from the agents argument.
func ParseWithOptions(text string, agents []models.Agent, opts validation.Options) *ImportResult {
	result := &ImportResult{
		ValidProperties: []models.Property{},
		InvalidRows:     []InvalidRow{},
	}

	lines := retainedLines(text)
	if len(lines) < 2 {
		// Header-only or empty document: a valid (if unhelpful) outcome
		return result
	}

	header := tokenizeLine(lines[0])

	agentIDs := make([]int, len(agents))
	for i, a := range agents {
		agentIDs[i] = a.ID
	}
	opts.AgentIDs = agentIDs

	for i, line := range lines[1:] {
		fields := tokenizeLine(line)
		row := make(map[string]string, len(header))
		for j, name := range header {
			if j < len(fields) {
				row[name] = fields[j]
			}
		}

		input := coerceRow(row)
		outcome := validation.Validate(input, opts)

		if outcome.IsValid {
			result.ValidProperties = append(result.ValidProperties, toProperty(input, parseFeatured(row)))
		} else {
			messages := make([]string, len(outcome.Errors))
			for k, e := range outcome.Errors {
				messages[k] = e.Message
			}
			result.InvalidRows = append(result.InvalidRows, InvalidRow{
				Row:    i + 2, // header is row 1, first data line is row 2
				Data:   row,
				Errors: messages,
			})
		}
	}

	result.Summary = Summary{
		Total:   len(lines) - 1,
		Valid:   len(result.ValidProperties),
		Invalid: len(result.InvalidRows),
	}
	result.Success = len(result.ValidProperties) > 0

	return result
}

// GenerateTemplate produces a header row plus one illustrative sample row.
// The sample uses the first supplied agent's id, or 1 if none were supplied.
func GenerateTemplate(agents []models.Agent) string {
	agentID := 1
	agentName := "Jane Agent"
	if len(agents) > 0 {
		agentID = agents[0].ID
		agentName = agents[0].Name
	}

	sample := []string{
		"",
		quote("Modern Family Home"),
		quote("A beautiful four bedroom home with a landscaped garden and double garage."),
		"45000000",
		quote("Nairobi"),
		quote("45 Riverside Drive, Westlands"),
		"4",
		"3.5",
		"3200",
		quote("For Sale"),
		"No",
		strconv.Itoa(agentID),
		quote(agentName),
		"",
		"0",
	}

	return strings.Join(columns, ",") + "\n" + strings.Join(sample, ",") + "\n"
}

// retainedLines splits the document on newlines and drops blank and
// whitespace-only lines. Trailing carriage returns are stripped so CRLF
// documents parse the same as LF ones.
func retainedLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// tokenizeLine splits one line into fields with a single-pass quote-toggle
// scan. A doubled quote inside a quoted field emits one literal quote without
// toggling state; commas inside quotes are data. Fields are trimmed.
func tokenizeLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}

// fieldValue looks a field up by its human header, falling back to the
// lowercase key so re-exported or hand-edited files still resolve
func fieldValue(row map[string]string, header, fallback string) string {
	if v := row[header]; v != "" {
		return v
	}
	return row[fallback]
}

// coerceRow turns a raw field map into typed validator input. Unparseable
// numerics coerce to out-of-range sentinels so the validator reports them as
// invalid values rather than missing fields.
func coerceRow(row map[string]string) validation.PropertyInput {
	var in validation.PropertyInput

	if v := fieldValue(row, "Title", "title"); v != "" {
		in.Title = &v
	}
	if v := fieldValue(row, "Description", "description"); v != "" {
		in.Description = &v
	}
	if v := fieldValue(row, "Price", "price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			price = math.NaN()
		}
		in.Price = &price
	}
	if v := fieldValue(row, "Location", "location"); v != "" {
		in.Location = &v
	}
	if v := fieldValue(row, "Address", "address"); v != "" {
		in.Address = &v
	}
	if v := fieldValue(row, "Bedrooms", "bedrooms"); v != "" {
		bedrooms, err := strconv.Atoi(v)
		if err != nil {
			bedrooms = -1
		}
		in.Bedrooms = &bedrooms
	}
	if v := fieldValue(row, "Bathrooms", "bathrooms"); v != "" {
		bathrooms, err := strconv.ParseFloat(v, 64)
		if err != nil {
			bathrooms = math.NaN()
		}
		in.Bathrooms = &bathrooms
	}
	if v := fieldValue(row, "Size (sq ft)", "size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			size = 0
		}
		in.Size = &size
	}
	if v := fieldValue(row, "Status", "status"); v != "" {
		in.Status = &v
	}
	if v := fieldValue(row, "Agent ID", "agentId"); v != "" {
		agentID, err := strconv.Atoi(v)
		if err != nil {
			agentID = 0
		}
		in.AgentID = &agentID
	}

	return in
}

// toProperty converts validated input into a listing ready for persistence.
// The id column is deliberately ignored: imported rows are new records.
func toProperty(in validation.PropertyInput, featured bool) models.Property {
	return models.Property{
		Title:       strings.TrimSpace(*in.Title),
		Description: strings.TrimSpace(*in.Description),
		Price:       *in.Price,
		Location:    strings.TrimSpace(*in.Location),
		Address:     strings.TrimSpace(*in.Address),
		Bedrooms:    *in.Bedrooms,
		Bathrooms:   *in.Bathrooms,
		Size:        *in.Size,
		Status:      models.PropertyStatus(*in.Status),
		Featured:    featured,
		AgentID:     *in.AgentID,
	}
}

// parseFeatured reads the Featured column: true iff the text is a
// case-insensitive "yes" or "true"
func parseFeatured(row map[string]string) bool {
	v := fieldValue(row, "Featured", "featured")
	return strings.EqualFold(v, "yes") || strings.EqualFold(v, "true")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
