package wikidata

import "testing"

func TestNormalizeFillsMissingColumns(t *testing.T) {
	bindings := []Binding{
		{
			"person":    {Type: "uri", Value: "http://www.wikidata.org/entity/Q1234"},
			"birthdate": {Type: "literal", Value: "1823-01-15T00:00:00Z"},
		},
		{
			"person": {Type: "uri", Value: "http://www.wikidata.org/entity/Q5678"},
		},
	}
	columns := Columns("person", "birthdate", "placeOfDeath")

	records := Normalize(bindings, columns)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	if got := records[0].Get("birthdate"); got != "1823-01-15T00:00:00Z" {
		t.Errorf("Expected the bound value, got %q", got)
	}
	if got := records[0].Get("placeOfDeath"); got != Missing {
		t.Errorf("Expected the missing marker for an unbound variable, got %q", got)
	}
	if got := records[1].Get("birthdate"); got != Missing {
		t.Errorf("Expected the missing marker, got %q", got)
	}

	// Every record carries every column, bound or not
	for i, rec := range records {
		for _, col := range columns {
			if !rec.Has(col) {
				t.Errorf("Record %d is missing column %q", i, col)
			}
		}
	}
}

func TestNormalizeIdempotence(t *testing.T) {
	records := []Record{
		{"person": "Q1", "birthdate": "1900-01-01T00:00:00Z", "placeOfDeath": Missing},
	}

	again := NormalizeRecords(records)
	if len(again) != len(records) {
		t.Fatalf("Expected %d records, got %d", len(records), len(again))
	}
	for col, want := range records[0] {
		if got := again[0][col]; got != want {
			t.Errorf("Column %q changed from %q to %q", col, want, got)
		}
	}
}

func TestNormalizeEmptyBatch(t *testing.T) {
	records := Normalize(nil, Columns("person"))
	if len(records) != 0 {
		t.Errorf("Expected no records from an empty batch, got %d", len(records))
	}
}
