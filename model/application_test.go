package model

import (
	"encoding/json"
	"testing"
	"time"

	"gorm.io/datatypes"
)

func TestNormalizeApplicationDataEmpty(t *testing.T) {
	data, err := NormalizeApplicationData(nil)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if data.Version != 2 {
		t.Errorf("expected version 2, got %d", data.Version)
	}
	if data.Institution != "" || data.DeclarationAgreed {
		t.Errorf("expected zero payload, got %+v", data)
	}
}

func TestNormalizeApplicationDataCurrentVersion(t *testing.T) {
	raw := datatypes.JSON(`{
		"version": 2,
		"institution": "University of Ibadan",
		"program_of_study": "Medicine",
		"grant_type": "tuition",
		"purpose_of_grant": "Final year fees",
		"academic_goals": "Qualify as a doctor",
		"how_grant_will_help": "Covers tuition",
		"declaration_agreed": true
	}`)

	data, err := NormalizeApplicationData(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if data.Institution != "University of Ibadan" {
		t.Errorf("unexpected institution %q", data.Institution)
	}
	if !data.DeclarationAgreed {
		t.Error("expected declaration agreed")
	}
}

func TestNormalizeApplicationDataLegacyRow(t *testing.T) {
	raw := datatypes.JSON(`{
		"school": "Ahmadu Bello University",
		"course": "Civil Engineering",
		"grant_category": "research",
		"purpose": "Materials for final project",
		"goals": "Publish my findings",
		"impact": "Funds lab equipment",
		"declaration": true
	}`)

	data, err := NormalizeApplicationData(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if data.Version != 2 {
		t.Errorf("expected upgrade to version 2, got %d", data.Version)
	}
	if data.Institution != "Ahmadu Bello University" {
		t.Errorf("expected school mapped to institution, got %q", data.Institution)
	}
	if data.ProgramOfStudy != "Civil Engineering" {
		t.Errorf("expected course mapped to program_of_study, got %q", data.ProgramOfStudy)
	}
	if data.GrantType != "research" {
		t.Errorf("expected grant_category mapped to grant_type, got %q", data.GrantType)
	}
	if data.PurposeOfGrant != "Materials for final project" {
		t.Errorf("expected purpose mapped, got %q", data.PurposeOfGrant)
	}
	if data.AcademicGoals != "Publish my findings" {
		t.Errorf("expected goals mapped, got %q", data.AcademicGoals)
	}
	if data.HowGrantWillHelp != "Funds lab equipment" {
		t.Errorf("expected impact mapped, got %q", data.HowGrantWillHelp)
	}
	if !data.DeclarationAgreed {
		t.Error("expected declaration mapped to declaration_agreed")
	}
}

func TestNormalizeApplicationDataVersionlessCurrentFields(t *testing.T) {
	// no version key, but a current-version field is present
	raw := datatypes.JSON(`{"institution": "Covenant University"}`)

	data, err := NormalizeApplicationData(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if data.Version != 2 {
		t.Errorf("expected version 2, got %d", data.Version)
	}
	if data.Institution != "Covenant University" {
		t.Errorf("unexpected institution %q", data.Institution)
	}
}

func TestNormalizeApplicationDataInvalidJSON(t *testing.T) {
	if _, err := NormalizeApplicationData(datatypes.JSON(`{broken`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestMarshalForcesCurrentVersion(t *testing.T) {
	data := &ApplicationData{Institution: "UNILAG"}

	raw, err := data.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to decode marshalled payload: %v", err)
	}
	if decoded["version"] != float64(2) {
		t.Errorf("expected version 2 in payload, got %v", decoded["version"])
	}
}

func TestMissingRequiredFields(t *testing.T) {
	empty := &ApplicationData{}
	missing := empty.MissingRequiredFields()
	if len(missing) != 6 {
		t.Fatalf("expected 6 missing fields, got %d: %v", len(missing), missing)
	}

	complete := &ApplicationData{
		Institution:      "UNILAG",
		ProgramOfStudy:   "Law",
		GrantType:        "tuition",
		PurposeOfGrant:   "Fees",
		AcademicGoals:    "Graduate",
		HowGrantWillHelp: "Pays fees",
	}
	if got := complete.MissingRequiredFields(); len(got) != 0 {
		t.Errorf("expected no missing fields, got %v", got)
	}

	partial := &ApplicationData{Institution: "UNILAG", ProgramOfStudy: "Law"}
	got := partial.MissingRequiredFields()
	if len(got) != 4 {
		t.Errorf("expected 4 missing fields, got %v", got)
	}
	for _, name := range got {
		if name == "institution" || name == "program_of_study" {
			t.Errorf("field %q should not be reported missing", name)
		}
	}
}

func TestProgramIsOpen(t *testing.T) {
	if open := (&Program{Active: true}).IsOpen(); !open {
		t.Error("active program without deadline should be open")
	}
	if open := (&Program{Active: false}).IsOpen(); open {
		t.Error("inactive program should be closed")
	}

	past := time.Now().Add(-time.Hour)
	if open := (&Program{Active: true, Deadline: &past}).IsOpen(); open {
		t.Error("program past its deadline should be closed")
	}
}
