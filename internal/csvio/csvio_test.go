package csvio

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"musili-homes-backend/internal/models"
)

var testAgents = []models.Agent{
	{ID: 1, Name: "Grace Musili"},
	{ID: 2, Name: "David Otieno"},
}

func sampleProperty() models.Property {
	return models.Property{
		ID:          10,
		Title:       "Karen Forest Retreat",
		Description: "A secluded six bedroom home bordering the Karen forest reserve.",
		Price:       125000000,
		Location:    "Karen",
		Address:     "8 Forest Edge Lane, Karen",
		Bedrooms:    6,
		Bathrooms:   5.5,
		Size:        8400,
		Status:      models.StatusForSale,
		Featured:    true,
		AgentID:     1,
		CreatedAt:   time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestSerializeHeaderShape(t *testing.T) {
	doc := Serialize(nil, testAgents)
	lines := strings.Split(strings.TrimSpace(doc), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}

	header := tokenizeLine(lines[0])
	if len(header) != 15 {
		t.Fatalf("expected 15 columns, got %d: %v", len(header), header)
	}
	if header[0] != "ID" || header[8] != "Size (sq ft)" || header[14] != "Image Count" {
		t.Errorf("unexpected header layout: %v", header)
	}
}

func TestRoundTrip(t *testing.T) {
	orig := sampleProperty()
	doc := Serialize([]models.Property{orig}, testAgents)

	result := Parse(doc, testAgents)
	if !result.Success {
		t.Fatalf("round trip failed: %+v", result.InvalidRows)
	}
	if len(result.ValidProperties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(result.ValidProperties))
	}

	got := result.ValidProperties[0]
	if got.Title != orig.Title || got.Description != orig.Description {
		t.Errorf("text fields did not round trip: %+v", got)
	}
	if got.Price != orig.Price || got.Bedrooms != orig.Bedrooms ||
		got.Bathrooms != orig.Bathrooms || got.Size != orig.Size {
		t.Errorf("numeric fields did not round trip: %+v", got)
	}
	if got.Status != orig.Status {
		t.Errorf("status did not round trip: got %q", got.Status)
	}
	if got.Featured != orig.Featured {
		t.Errorf("featured did not round trip through Yes/No")
	}
	if got.AgentID != orig.AgentID {
		t.Errorf("agent id did not round trip: got %d", got.AgentID)
	}
}

func TestQuotingRoundTrip(t *testing.T) {
	p := sampleProperty()
	p.Title = `He said "wow" about this place`
	p.Location = "Nairobi, Kenya"

	doc := Serialize([]models.Property{p}, testAgents)
	result := Parse(doc, testAgents)

	if len(result.ValidProperties) != 1 {
		t.Fatalf("expected 1 valid property, got invalid rows: %+v", result.InvalidRows)
	}
	got := result.ValidProperties[0]
	if got.Title != p.Title {
		t.Errorf("embedded quotes lost: got %q, want %q", got.Title, p.Title)
	}
	if got.Location != p.Location {
		t.Errorf("embedded comma lost: got %q, want %q", got.Location, p.Location)
	}
}

func TestParseRowNumbering(t *testing.T) {
	good := sampleProperty()
	bad := sampleProperty()
	bad.Title = "X" // too short

	doc := Serialize([]models.Property{good, bad}, testAgents)
	result := Parse(doc, testAgents)

	if len(result.InvalidRows) != 1 {
		t.Fatalf("expected 1 invalid row, got %d", len(result.InvalidRows))
	}
	// Header is row 1, first data line row 2, so the bad second line is row 3
	if result.InvalidRows[0].Row != 3 {
		t.Errorf("expected row 3, got %d", result.InvalidRows[0].Row)
	}
}

func TestParseHeaderOnlyDocument(t *testing.T) {
	doc := Serialize(nil, testAgents)
	result := Parse(doc, testAgents)

	if result.Success {
		t.Error("header-only document must not report success")
	}
	want := Summary{}
	if result.Summary != want {
		t.Errorf("expected zero summary, got %+v", result.Summary)
	}
	if len(result.ValidProperties) != 0 || len(result.InvalidRows) != 0 {
		t.Errorf("expected empty lists, got %+v", result)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "\n\n", "   \n\t\n"} {
		result := Parse(doc, testAgents)
		if result.Success || result.Summary.Total != 0 {
			t.Errorf("doc %q: expected empty result, got %+v", doc, result.Summary)
		}
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	doc := Serialize([]models.Property{sampleProperty()}, testAgents)
	doc = strings.Replace(doc, "\n", "\n\n", 1) // blank line between header and data

	result := Parse(doc, testAgents)
	if result.Summary.Total != 1 || result.Summary.Valid != 1 {
		t.Errorf("blank lines should be discarded before counting: %+v", result.Summary)
	}
}

func TestParseUnknownAgent(t *testing.T) {
	p := sampleProperty()
	p.AgentID = 99

	doc := Serialize([]models.Property{p}, testAgents)
	result := Parse(doc, testAgents)

	if len(result.InvalidRows) != 1 {
		t.Fatalf("unknown agent id should reject the row: %+v", result)
	}
	joined := strings.Join(result.InvalidRows[0].Errors, "; ")
	if !strings.Contains(joined, "99") {
		t.Errorf("error should contain the literal agent id, got %q", joined)
	}
	if result.Success {
		t.Error("a document with no valid rows must report success=false")
	}
}

func TestParseLowercaseHeaderFallback(t *testing.T) {
	doc := strings.Join([]string{
		"title,description,price,location,address,bedrooms,bathrooms,size,status,featured,agentId",
		`"Westlands Penthouse","A three bedroom penthouse with skyline views and private lift.",60000000,"Nairobi","1 Parklands Road",3,3,2600,"For Rent",yes,2`,
	}, "\n")

	result := Parse(doc, testAgents)
	if len(result.ValidProperties) != 1 {
		t.Fatalf("lowercase headers should resolve: %+v", result.InvalidRows)
	}
	got := result.ValidProperties[0]
	if got.Title != "Westlands Penthouse" || got.Status != models.StatusForRent || !got.Featured {
		t.Errorf("unexpected parse: %+v", got)
	}
}

func TestSerializeUnknownAgentName(t *testing.T) {
	p := sampleProperty()
	p.AgentID = 42

	doc := Serialize([]models.Property{p}, testAgents)
	if !strings.Contains(doc, `"Unknown"`) {
		t.Errorf("missing agent should serialize as Unknown: %s", doc)
	}
}

func TestTokenizeLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"he said ""hi""",x`, []string{`he said "hi"`, "x"}},
		{`  spaced  , fields `, []string{"spaced", "fields"}},
		{`,,`, []string{"", "", ""}},
		{`"trailing"`, []string{"trailing"}},
	}

	for _, tt := range tests {
		got := tokenizeLine(tt.line)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("tokenizeLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestGenerateTemplate(t *testing.T) {
	doc := GenerateTemplate(testAgents)
	lines := strings.Split(strings.TrimSpace(doc), "\n")
	if len(lines) != 2 {
		t.Fatalf("template should be header plus one sample row, got %d lines", len(lines))
	}

	sample := tokenizeLine(lines[1])
	if len(sample) != 15 {
		t.Fatalf("sample row should have 15 fields, got %d", len(sample))
	}
	if sample[11] != "1" {
		t.Errorf("sample should use first agent's id, got %q", sample[11])
	}

	// No agents at all falls back to id 1
	doc = GenerateTemplate(nil)
	sample = tokenizeLine(strings.Split(strings.TrimSpace(doc), "\n")[1])
	if sample[11] != "1" {
		t.Errorf("agent-less template should use id 1, got %q", sample[11])
	}
}

func TestParsedTemplateIsImportable(t *testing.T) {
	doc := GenerateTemplate(testAgents)
	result := Parse(doc, testAgents)
	if !result.Success {
		t.Errorf("template sample row should import cleanly: %+v", result.InvalidRows)
	}
}
